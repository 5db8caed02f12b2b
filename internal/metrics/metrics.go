package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cb "github.com/sony/gobreaker"
)

// Registry holds the dashboard's Prometheus collectors on a private registry.
type Registry struct {
	reg *prometheus.Registry

	FetchDuration         *prometheus.HistogramVec
	UpstreamRequests      *prometheus.CounterVec
	CacheLookups          *prometheus.CounterVec
	NormalizationFailures *prometheus.CounterVec
	EmptyResults          *prometheus.CounterVec
	StaleDiscarded        prometheus.Counter
	BreakerState          *prometheus.GaugeVec
	HTTPRequests          *prometheus.CounterVec
}

func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdash_fetch_duration_seconds",
				Help:    "Duration of dashboard fetches by operation and result",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"op", "result"},
		),

		UpstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_upstream_requests_total",
				Help: "Upstream HTTP round trips by host and status code",
			},
			[]string{"host", "code"},
		),

		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_cache_lookups_total",
				Help: "Response cache lookups by operation and outcome",
			},
			[]string{"op", "outcome"},
		),

		NormalizationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_normalization_failures_total",
				Help: "Upstream records dropped during normalization by field",
			},
			[]string{"field"},
		),

		EmptyResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_empty_results_total",
				Help: "Fetches that produced no displayable records",
			},
			[]string{"op"},
		),

		StaleDiscarded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marketdash_stale_responses_discarded_total",
				Help: "Responses dropped because a newer request superseded them",
			},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketdash_breaker_state",
				Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
			},
			[]string{"provider"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdash_http_requests_total",
				Help: "Served API requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	r.reg.MustRegister(
		r.FetchDuration,
		r.UpstreamRequests,
		r.CacheLookups,
		r.NormalizationFailures,
		r.EmptyResults,
		r.StaleDiscarded,
		r.BreakerState,
		r.HTTPRequests,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{DisableCompression: true})
}

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) ObserveFetch(op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.FetchDuration.WithLabelValues(op, result).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveUpstream(host string, status int, _ time.Duration, err error) {
	code := strconv.Itoa(status)
	if err != nil {
		code = "error"
	}
	r.UpstreamRequests.WithLabelValues(host, code).Inc()
}

func (r *Registry) ObserveCache(op string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.CacheLookups.WithLabelValues(op, outcome).Inc()
}

func (r *Registry) ObserveNormalizationFailure(field string) {
	r.NormalizationFailures.WithLabelValues(field).Inc()
}

func (r *Registry) ObserveEmpty(op string) { r.EmptyResults.WithLabelValues(op).Inc() }

func (r *Registry) ObserveStale() { r.StaleDiscarded.Inc() }

func (r *Registry) ObserveBreaker(name string, _, to cb.State) {
	r.BreakerState.WithLabelValues(name).Set(float64(to))
}

func (r *Registry) ObserveHTTP(route string, status int) {
	r.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
