package httpx

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client is a small wrapper around http.Client with sane defaults.
// It satisfies the upstream clients' HTTPClient interface.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
	Log       zerolog.Logger
	// OnDone, when set, observes every finished round trip.
	OnDone func(host string, status int, elapsed time.Duration, err error)
}

func New(timeout time.Duration) *Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          50,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       20,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "marketdash/1.0", Log: zerolog.Nop()}
}

// Do sends req, filling in the user agent and default headers the caller left unset.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	elapsed := time.Since(start)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	ev := c.Log.Debug()
	if err != nil {
		ev = c.Log.Warn().Err(err)
	}
	ev.Str("method", req.Method).Str("host", req.URL.Host).Str("path", req.URL.Path).
		Int("status", status).Dur("elapsed", elapsed).Msg("upstream request")
	if c.OnDone != nil {
		c.OnDone(req.URL.Host, status, elapsed, err)
	}
	return resp, err
}

// Get is a convenience for a context-bound GET.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}
