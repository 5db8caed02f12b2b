package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"marketdash/internal/provider"
)

// MinInterval wraps a provider and enforces a minimum time between calls.
// Concurrent calls will wait until the interval has elapsed since the last call,
// or return early if the context is canceled.
type MinInterval struct {
	P        provider.Provider
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (m *MinInterval) Name() string { return m.P.Name() }

func (m *MinInterval) Coins(ctx context.Context, q provider.CoinsQuery) ([]provider.RawCoin, error) {
	return gated(ctx, m, func() ([]provider.RawCoin, error) { return m.P.Coins(ctx, q) })
}

func (m *MinInterval) Coin(ctx context.Context, id string) (provider.RawCoin, error) {
	return gated(ctx, m, func() (provider.RawCoin, error) { return m.P.Coin(ctx, id) })
}

func (m *MinInterval) History(ctx context.Context, id string, period string) ([]provider.RawHistoryPoint, error) {
	return gated(ctx, m, func() ([]provider.RawHistoryPoint, error) { return m.P.History(ctx, id, period) })
}

func gated[T any](ctx context.Context, m *MinInterval, call func() (T, error)) (T, error) {
	var zero T
	if m.Interval > 0 {
		m.mu.Lock()
		wait := time.Until(m.last.Add(m.Interval))
		m.mu.Unlock()
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-t.C:
			}
		}
	}
	out, err := call()
	if m.Interval > 0 {
		m.mu.Lock()
		m.last = time.Now()
		m.mu.Unlock()
	}
	return out, err
}

// NewLimiter builds a limiter from a per-minute budget. A budget <= 0
// disables limiting.
func NewLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

// TokenBucket wraps a Provider and gates calls through a shared limiter.
type TokenBucket struct {
	P       provider.Provider
	Limiter *rate.Limiter
}

func (t *TokenBucket) Name() string { return t.P.Name() }

func (t *TokenBucket) Coins(ctx context.Context, q provider.CoinsQuery) ([]provider.RawCoin, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.P.Coins(ctx, q)
}

func (t *TokenBucket) Coin(ctx context.Context, id string) (provider.RawCoin, error) {
	if err := t.wait(ctx); err != nil {
		return provider.RawCoin{}, err
	}
	return t.P.Coin(ctx, id)
}

func (t *TokenBucket) History(ctx context.Context, id string, period string) ([]provider.RawHistoryPoint, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.P.History(ctx, id, period)
}

func (t *TokenBucket) wait(ctx context.Context) error {
	if t.Limiter == nil {
		return nil
	}
	return t.Limiter.Wait(ctx)
}
