package coinranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strconv"

	"marketdash/internal/provider"
)

// envelope is the wrapper every Coinranking response uses.
type envelope[T any] struct {
	Status  string `json:"status"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type coinsData struct {
	Coins []json.RawMessage `json:"coins"`
}

type coinData struct {
	Coin json.RawMessage `json:"coin"`
}

type historyData struct {
	Change  provider.Scalar            `json:"change"`
	History []provider.RawHistoryPoint `json:"history"`
}

// Coins lists coins ordered by market cap, descending.
func (c *Client) Coins(ctx context.Context, q provider.CoinsQuery) ([]provider.RawCoin, error) {
	query := url.Values{}
	query.Set("timePeriod", orDefault(q.TimePeriod, "24h"))
	query.Set("tiers[0]", "1")
	query.Set("orderBy", "marketCap")
	query.Set("orderDirection", "desc")
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	query.Set("offset", strconv.Itoa(max(q.Offset, 0)))

	var env envelope[coinsData]
	if err := c.get(ctx, "/coins", query, &env); err != nil {
		return nil, err
	}
	out := make([]provider.RawCoin, 0, len(env.Data.Coins))
	for _, raw := range env.Data.Coins {
		out = append(out, decodeCoin(raw))
	}
	return out, nil
}

// Coin fetches the detail record of one coin.
func (c *Client) Coin(ctx context.Context, id string) (provider.RawCoin, error) {
	if id == "" {
		return provider.RawCoin{}, fmt.Errorf("empty coin id: %w", provider.ErrNotFound)
	}
	query := url.Values{}
	query.Set("timePeriod", "24h")

	var env envelope[coinData]
	if err := c.get(ctx, "/coin/"+url.PathEscape(id), query, &env); err != nil {
		return provider.RawCoin{}, err
	}
	if len(env.Data.Coin) == 0 || string(env.Data.Coin) == "null" {
		return provider.RawCoin{}, fmt.Errorf("/coin/%s: empty data: %w", id, provider.ErrNotFound)
	}
	return decodeCoin(env.Data.Coin), nil
}

// decodeCoin decodes one record. A record that does not fit RawCoin comes
// back with Malformed set and whatever identity could be recovered.
func decodeCoin(raw json.RawMessage) provider.RawCoin {
	var coin provider.RawCoin
	err := json.Unmarshal(raw, &coin)
	if err == nil {
		return coin
	}

	coin = provider.RawCoin{Malformed: err.Error()}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) == nil {
		_ = json.Unmarshal(fields["uuid"], &coin.UUID)
		_ = json.Unmarshal(fields["symbol"], &coin.Symbol)
	}
	return coin
}

// History fetches the price history of one coin, newest first.
func (c *Client) History(ctx context.Context, id string, period string) ([]provider.RawHistoryPoint, error) {
	if id == "" {
		return nil, fmt.Errorf("empty coin id: %w", provider.ErrNotFound)
	}
	query := url.Values{}
	query.Set("timePeriod", orDefault(period, "7d"))

	var env envelope[historyData]
	if err := c.get(ctx, "/coin/"+url.PathEscape(id)+"/history", query, &env); err != nil {
		return nil, err
	}
	return env.Data.History, nil
}

func (c *Client) get(ctx context.Context, path string, extra url.Values, out any) error {
	query := maps.Clone(c.query)
	for k, vs := range extra {
		query[k] = vs
	}

	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, provider.ErrNotFound)

	case http.StatusUnauthorized, http.StatusForbidden:
		return provider.ErrUnauthorized

	case http.StatusTooManyRequests:
		return provider.ErrRateLimited

	default:
		b, _ := io.ReadAll(io.LimitReader(res.Body, 2<<10))
		return fmt.Errorf("unexpected status code: %d: %s", res.StatusCode, string(b))
	}

	// Decode the status first so a "fail" body is reported as such.
	body, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	var head envelope[json.RawMessage]
	if err := json.Unmarshal(body, &head); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if head.Status != "success" {
		if head.Type == "COIN_NOT_FOUND" {
			return fmt.Errorf("%s: %s: %w", path, head.Message, provider.ErrNotFound)
		}
		return fmt.Errorf("upstream status %q (%s): %s", head.Status, head.Type, head.Message)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
