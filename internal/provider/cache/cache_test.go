package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketdash/internal/provider"
)

type countingProvider struct {
	calls int
	coins []provider.RawCoin
	err   error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Coins(_ context.Context, _ provider.CoinsQuery) ([]provider.RawCoin, error) {
	p.calls++
	return p.coins, p.err
}

func (p *countingProvider) Coin(_ context.Context, id string) (provider.RawCoin, error) {
	p.calls++
	if p.err != nil {
		return provider.RawCoin{}, p.err
	}
	return provider.RawCoin{UUID: id, Price: provider.S("1")}, nil
}

func (p *countingProvider) History(_ context.Context, _ string, _ string) ([]provider.RawHistoryPoint, error) {
	p.calls++
	return []provider.RawHistoryPoint{{Timestamp: provider.S("1"), Price: provider.S("2")}}, p.err
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestProvider_HitsWithinTTL(t *testing.T) {
	t.Parallel()

	// Arrange
	clock := &fakeClock{t: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	mem := NewMemory(100)
	mem.now = clock.now
	up := &countingProvider{coins: []provider.RawCoin{{UUID: "a", Price: provider.S("1.5"), Rank: provider.S("1")}}}
	var hits, misses int
	c := &Provider{P: up, Store: mem, TTL: 10 * time.Second, OnLookup: func(_ string, hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}}
	q := provider.CoinsQuery{TimePeriod: "24h", Limit: 50}

	// Act
	first, err := c.Coins(t.Context(), q)
	require.NoError(t, err)
	second, err := c.Coins(t.Context(), q)
	require.NoError(t, err)

	// Assert: one upstream call, identical payloads.
	require.Equal(t, 1, up.calls)
	require.Equal(t, first, second)
	require.Equal(t, 1, hits)
	require.Equal(t, 1, misses)

	// Act: after expiry the upstream is asked again.
	clock.t = clock.t.Add(11 * time.Second)
	_, err = c.Coins(t.Context(), q)
	require.NoError(t, err)
	require.Equal(t, 2, up.calls)
}

func TestProvider_KeysSeparateRequests(t *testing.T) {
	t.Parallel()

	up := &countingProvider{}
	c := &Provider{P: up, Store: NewMemory(0), TTL: time.Minute}

	_, _ = c.Coin(t.Context(), "a")
	_, _ = c.Coin(t.Context(), "b")
	_, _ = c.History(t.Context(), "a", "7d")
	_, _ = c.History(t.Context(), "a", "30d")
	_, _ = c.History(t.Context(), "a", "7d")

	require.Equal(t, 4, up.calls)
}

func TestProvider_ServesStaleOnFailure(t *testing.T) {
	t.Parallel()

	// Arrange
	clock := &fakeClock{t: time.Now()}
	mem := NewMemory(0)
	mem.now = clock.now
	up := &countingProvider{}
	c := &Provider{P: up, Store: mem, TTL: time.Second, StaleFor: time.Hour}

	coin, err := c.Coin(t.Context(), "a")
	require.NoError(t, err)

	// Act: the fresh entry expires and the upstream goes down.
	clock.t = clock.t.Add(time.Minute)
	up.err = errors.New("upstream down")
	stale, err := c.Coin(t.Context(), "a")

	// Assert
	require.NoError(t, err)
	require.Equal(t, coin, stale)
}

func TestProvider_FailureWithoutStale(t *testing.T) {
	t.Parallel()

	up := &countingProvider{err: errors.New("upstream down")}
	c := &Provider{P: up, Store: NewMemory(0), TTL: time.Second}

	_, err := c.Coins(t.Context(), provider.CoinsQuery{})
	require.EqualError(t, err, "upstream down")
}

func TestProvider_DisabledPassesThrough(t *testing.T) {
	t.Parallel()

	up := &countingProvider{}
	c := &Provider{P: up, Store: NewMemory(0)}

	_, _ = c.Coin(t.Context(), "a")
	_, _ = c.Coin(t.Context(), "a")
	require.Equal(t, 2, up.calls)
	require.Equal(t, "counting", c.Name())
}

func TestMemory_CapsSize(t *testing.T) {
	t.Parallel()

	m := NewMemory(2)
	ctx := t.Context()
	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), time.Minute))

	require.Equal(t, 2, m.Len())
	v, ok, err := m.Get(ctx, "c")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("3"), v)
}

func TestKeyPrefix(t *testing.T) {
	t.Parallel()

	m := NewMemory(0)
	p := KeyPrefix{Store: m, Prefix: "marketdash:"}
	require.NoError(t, p.Set(t.Context(), "k", []byte("v"), time.Minute))

	_, ok, _ := m.Get(t.Context(), "marketdash:k")
	require.True(t, ok)
	v, ok, _ := p.Get(t.Context(), "k")
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}
