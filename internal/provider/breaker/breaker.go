package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	cb "github.com/sony/gobreaker"

	"marketdash/internal/provider"
)

// Settings tunes when the breaker opens.
type Settings struct {
	ConsecutiveFailures uint32
	MinRequests         uint32
	FailureRatio        float64
	Interval            time.Duration
	OpenFor             time.Duration
}

func DefaultSettings() Settings {
	return Settings{ConsecutiveFailures: 3, MinRequests: 20, FailureRatio: 0.05, Interval: 60 * time.Second, OpenFor: 60 * time.Second}
}

// Provider stops calling the upstream for OpenFor once it keeps failing.
// Not-found answers and caller cancellation do not count as failures.
type Provider struct {
	P  provider.Provider
	cb *cb.CircuitBreaker
}

// New wraps p. OnStateChange, if non-nil, observes transitions.
func New(p provider.Provider, s Settings, onStateChange func(name string, from, to cb.State)) *Provider {
	st := cb.Settings{Name: p.Name(), Interval: s.Interval, Timeout: s.OpenFor}
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if s.ConsecutiveFailures > 0 && counts.ConsecutiveFailures >= s.ConsecutiveFailures {
			return true
		}
		if counts.Requests < s.MinRequests || counts.Requests == 0 {
			return false
		}
		return float64(counts.TotalFailures)/float64(counts.Requests) > s.FailureRatio
	}
	st.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, provider.ErrNotFound) ||
			errors.Is(err, context.Canceled)
	}
	st.OnStateChange = onStateChange
	return &Provider{P: p, cb: cb.NewCircuitBreaker(st)}
}

func (b *Provider) Name() string { return b.P.Name() }

// State reports the current breaker state.
func (b *Provider) State() cb.State { return b.cb.State() }

func (b *Provider) Coins(ctx context.Context, q provider.CoinsQuery) ([]provider.RawCoin, error) {
	return execute(b, func() ([]provider.RawCoin, error) { return b.P.Coins(ctx, q) })
}

func (b *Provider) Coin(ctx context.Context, id string) (provider.RawCoin, error) {
	return execute(b, func() (provider.RawCoin, error) { return b.P.Coin(ctx, id) })
}

func (b *Provider) History(ctx context.Context, id string, period string) ([]provider.RawHistoryPoint, error) {
	return execute(b, func() ([]provider.RawHistoryPoint, error) { return b.P.History(ctx, id, period) })
}

func execute[T any](b *Provider, fn func() (T, error)) (T, error) {
	var zero T
	out, err := b.cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		if errors.Is(err, cb.ErrOpenState) || errors.Is(err, cb.ErrTooManyRequests) {
			return zero, fmt.Errorf("%s: %w: %w", b.P.Name(), provider.ErrUnavailable, err)
		}
		return zero, err
	}
	return out.(T), nil
}
