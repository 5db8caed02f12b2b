package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	cb "github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"

	"marketdash/internal/provider"
)

type flakyProvider struct {
	calls int
	err   error
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Coins(context.Context, provider.CoinsQuery) ([]provider.RawCoin, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []provider.RawCoin{{UUID: "a"}}, nil
}

func (f *flakyProvider) Coin(_ context.Context, id string) (provider.RawCoin, error) {
	f.calls++
	return provider.RawCoin{UUID: id}, f.err
}

func (f *flakyProvider) History(context.Context, string, string) ([]provider.RawHistoryPoint, error) {
	f.calls++
	return nil, f.err
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	// Arrange
	up := &flakyProvider{err: errors.New("boom")}
	var transitions []cb.State
	b := New(up, DefaultSettings(), func(_ string, _, to cb.State) { transitions = append(transitions, to) })

	// Act
	for range 3 {
		_, err := b.Coins(t.Context(), provider.CoinsQuery{})
		require.EqualError(t, err, "boom")
	}
	_, err := b.Coins(t.Context(), provider.CoinsQuery{})

	// Assert
	require.ErrorIs(t, err, provider.ErrUnavailable)
	require.ErrorIs(t, err, cb.ErrOpenState)
	require.Equal(t, 3, up.calls)
	require.Equal(t, cb.StateOpen, b.State())
	require.Equal(t, []cb.State{cb.StateOpen}, transitions)
}

func TestBreaker_NotFoundIsNotAFailure(t *testing.T) {
	t.Parallel()

	up := &flakyProvider{err: provider.ErrNotFound}
	b := New(up, DefaultSettings(), nil)

	for range 10 {
		_, err := b.Coin(t.Context(), "missing")
		require.ErrorIs(t, err, provider.ErrNotFound)
	}
	require.Equal(t, 10, up.calls)
	require.Equal(t, cb.StateClosed, b.State())
}

func TestBreaker_HalfOpenRecovers(t *testing.T) {
	t.Parallel()

	// Arrange
	up := &flakyProvider{err: errors.New("boom")}
	s := DefaultSettings()
	s.ConsecutiveFailures = 1
	s.OpenFor = 20 * time.Millisecond
	b := New(up, s, nil)

	_, _ = b.History(t.Context(), "a", "7d")
	require.Equal(t, cb.StateOpen, b.State())

	// Act
	time.Sleep(30 * time.Millisecond)
	up.err = nil
	_, err := b.History(t.Context(), "a", "7d")

	// Assert
	require.NoError(t, err)
	require.Equal(t, cb.StateClosed, b.State())
	require.Equal(t, "flaky", b.Name())
}
