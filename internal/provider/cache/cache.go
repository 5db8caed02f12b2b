package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"marketdash/internal/provider"
)

// Store is a byte cache with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Provider caches raw upstream payloads for a TTL.
// When StaleFor exceeds TTL, a second copy is kept that long and served
// if the upstream fails.
type Provider struct {
	P        provider.Provider
	Store    Store
	TTL      time.Duration
	StaleFor time.Duration
	Log      zerolog.Logger
	// OnLookup, when set, observes every cache lookup.
	OnLookup func(op string, hit bool)
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) Coins(ctx context.Context, q provider.CoinsQuery) ([]provider.RawCoin, error) {
	key := "coins:" + q.TimePeriod + ":" + strconv.Itoa(q.Limit) + ":" + strconv.Itoa(q.Offset)
	return cached(ctx, c, "coins", key, func() ([]provider.RawCoin, error) { return c.P.Coins(ctx, q) })
}

func (c *Provider) Coin(ctx context.Context, id string) (provider.RawCoin, error) {
	return cached(ctx, c, "coin", "coin:"+id, func() (provider.RawCoin, error) { return c.P.Coin(ctx, id) })
}

func (c *Provider) History(ctx context.Context, id string, period string) ([]provider.RawHistoryPoint, error) {
	return cached(ctx, c, "history", "history:"+id+":"+period, func() ([]provider.RawHistoryPoint, error) { return c.P.History(ctx, id, period) })
}

func cached[T any](ctx context.Context, c *Provider, op, key string, fetch func() (T, error)) (T, error) {
	if c.Store == nil || c.TTL <= 0 {
		return fetch()
	}

	var zero T
	if v, ok := c.load(ctx, key); ok {
		var out T
		if err := json.Unmarshal(v, &out); err == nil {
			c.observe(op, true)
			return out, nil
		}
		c.Log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}
	c.observe(op, false)

	fresh, err := fetch()
	if err != nil {
		if c.StaleFor > 0 {
			if v, ok := c.load(ctx, "stale:"+key); ok {
				var out T
				if json.Unmarshal(v, &out) == nil {
					c.Log.Warn().Err(err).Str("key", key).Msg("upstream failed, serving stale payload")
					return out, nil
				}
			}
		}
		return zero, err
	}

	b, err := json.Marshal(fresh)
	if err != nil {
		return fresh, nil
	}
	if err := c.Store.Set(ctx, key, b, c.TTL); err != nil {
		c.Log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
	if c.StaleFor > c.TTL {
		if err := c.Store.Set(ctx, "stale:"+key, b, c.StaleFor); err != nil {
			c.Log.Warn().Err(err).Str("key", key).Msg("stale cache set failed")
		}
	}
	return fresh, nil
}

func (c *Provider) load(ctx context.Context, key string) ([]byte, bool) {
	v, ok, err := c.Store.Get(ctx, key)
	if err != nil {
		c.Log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return nil, false
	}
	return v, ok
}

func (c *Provider) observe(op string, hit bool) {
	if c.OnLookup != nil {
		c.OnLookup(op, hit)
	}
}

// KeyPrefix namespaces keys so several dashboards can share one store.
type KeyPrefix struct {
	Store  Store
	Prefix string
}

func (k KeyPrefix) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return k.Store.Get(ctx, k.Prefix+key)
}

func (k KeyPrefix) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := k.Store.Set(ctx, k.Prefix+key, val, ttl); err != nil {
		return fmt.Errorf("prefixed set: %w", err)
	}
	return nil
}
