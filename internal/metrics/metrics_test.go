package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	cb "github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Observers(t *testing.T) {
	t.Parallel()

	// Arrange
	r := New()

	// Act
	r.ObserveCache("coins", true)
	r.ObserveCache("coins", false)
	r.ObserveCache("coins", false)
	r.ObserveNormalizationFailure("price")
	r.ObserveEmpty("heatmap")
	r.ObserveStale()
	r.ObserveStale()
	r.ObserveUpstream("api.example", 200, time.Millisecond, nil)
	r.ObserveUpstream("api.example", 0, time.Millisecond, errors.New("dial"))
	r.ObserveBreaker("coinranking", cb.StateClosed, cb.StateOpen)
	r.ObserveHTTP("/api/coins", 200)

	// Assert
	require.InDelta(t, 1, testutil.ToFloat64(r.CacheLookups.WithLabelValues("coins", "hit")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(r.CacheLookups.WithLabelValues("coins", "miss")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.NormalizationFailures.WithLabelValues("price")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.EmptyResults.WithLabelValues("heatmap")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(r.StaleDiscarded), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.UpstreamRequests.WithLabelValues("api.example", "200")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.UpstreamRequests.WithLabelValues("api.example", "error")), 0)
	require.InDelta(t, 2, testutil.ToFloat64(r.BreakerState.WithLabelValues("coinranking")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(r.HTTPRequests.WithLabelValues("/api/coins", "200")), 0)
}

func TestRegistry_ObserveFetch(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveFetch("list", 20*time.Millisecond, nil)
	r.ObserveFetch("list", 30*time.Millisecond, errors.New("boom"))

	require.Equal(t, 2, testutil.CollectAndCount(r.FetchDuration, "marketdash_fetch_duration_seconds"))
}

func TestRegistry_Handler(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveStale()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "marketdash_stale_responses_discarded_total 1")
}
