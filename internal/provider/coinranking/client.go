package coinranking

import (
	"net/http"
	"net/url"
)

const (
	baseURL = "https://coinranking1.p.rapidapi.com"
	apiHost = "coinranking1.p.rapidapi.com"

	// USDReferenceUUID is the upstream's id for US Dollar.
	USDReferenceUUID = "yhjMzLPhuIDl"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=coinranking_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Coinranking API served through RapidAPI.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP httpClient.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	// query contains additional query parameters to be sent with each request.
	query url.Values
	// name is what Name reports.
	name string
}

// ClientOption is a configuration option for the Coinranking client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// WithReferenceCurrency overrides the quote currency (defaults to USD).
func WithReferenceCurrency(uuid string) ClientOption {
	return func(c *Client) {
		if uuid != "" {
			c.query.Set("referenceCurrencyUuid", uuid)
		}
	}
}

// WithName overrides the provider name used in logs and metrics.
func WithName(name string) ClientOption {
	return func(c *Client) {
		c.name = name
	}
}

// NewClient creates a new Coinranking client authenticated with a RapidAPI key.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		query:      url.Values{},
		name:       "coinranking",
	}
	client.query.Set("referenceCurrencyUuid", USDReferenceUUID)
	if key != "" {
		// RapidAPI authenticates with these two headers.
		// https://rapidapi.com/Coinranking/api/coinranking1
		client.header.Set("x-rapidapi-key", key)
		client.header.Set("x-rapidapi-host", apiHost)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

func (c *Client) Name() string { return c.name }
