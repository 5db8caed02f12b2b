package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"marketdash/internal/config"
	"marketdash/internal/dashboard"
	"marketdash/internal/httpx"
	"marketdash/internal/metrics"
	"marketdash/internal/normalize"
	"marketdash/internal/provider"
	"marketdash/internal/provider/breaker"
	"marketdash/internal/provider/cache"
	"marketdash/internal/provider/coinranking"
	"marketdash/internal/provider/ratelimit"
)

// stack is everything a command needs to serve dashboard views.
type stack struct {
	svc     *dashboard.Service
	metrics *metrics.Registry
	log     zerolog.Logger
	close   func()
}

// buildStack assembles client -> rate limit -> breaker -> cache and the
// Service on top. Cache hits therefore spend no rate-limit tokens.
func buildStack(ctx context.Context, cfg config.Config, log zerolog.Logger) (*stack, error) {
	reg := metrics.New()
	closers := []func(){}

	if cfg.Coinranking.APIKey == "" {
		log.Warn().Msg("coinranking api key not set (COINRANKING_API_KEY); upstream calls will be rejected")
	}

	hc := httpx.New(time.Duration(cfg.Coinranking.TimeoutSec) * time.Second)
	hc.Log = log.With().Str("component", "httpx").Logger()
	hc.OnDone = reg.ObserveUpstream

	client, err := coinranking.NewClient(
		cfg.Coinranking.APIKey,
		coinranking.WithBaseURL(cfg.Coinranking.BaseURL),
		coinranking.WithReferenceCurrency(cfg.Coinranking.ReferenceCurrency),
		coinranking.WithHTTPClient(hc),
	)
	if err != nil {
		return nil, fmt.Errorf("coinranking client: %w", err)
	}

	var p provider.Provider = client
	// Prefer token bucket with burst if RPM is set, otherwise use min-interval
	if limiter := ratelimit.NewLimiter(cfg.Coinranking.MaxRequestsPerMinute, cfg.Coinranking.Burst); limiter != nil {
		p = &ratelimit.TokenBucket{P: p, Limiter: limiter}
	} else if cfg.Coinranking.MinRequestIntervalSec > 0 {
		p = &ratelimit.MinInterval{P: p, Interval: time.Duration(cfg.Coinranking.MinRequestIntervalSec) * time.Second}
	}

	if cfg.Breaker.Enabled {
		s := breaker.DefaultSettings()
		s.ConsecutiveFailures = cfg.Breaker.ConsecutiveFailures
		s.MinRequests = cfg.Breaker.MinRequests
		s.FailureRatio = cfg.Breaker.FailureRatio
		if cfg.Breaker.OpenSec > 0 {
			s.OpenFor = time.Duration(cfg.Breaker.OpenSec) * time.Second
		}
		p = breaker.New(p, s, reg.ObserveBreaker)
	}

	store, closeStore, err := buildStore(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}
	if store != nil {
		p = &cache.Provider{
			P:        p,
			Store:    cache.KeyPrefix{Store: store, Prefix: cfg.Cache.KeyPrefix},
			TTL:      time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			StaleFor: time.Duration(cfg.Cache.StaleSeconds) * time.Second,
			Log:      log.With().Str("component", "cache").Logger(),
			OnLookup: reg.ObserveCache,
		}
	}

	svc := dashboard.NewService(p, log)
	svc.Normalizer = &normalize.Normalizer{
		Log:       log.With().Str("component", "normalize").Logger(),
		OnFailure: func(ne *normalize.NormalizationError) { reg.ObserveNormalizationFailure(ne.Field) },
	}
	svc.Limits = dashboard.Limits{Home: cfg.Views.HomeLimit, List: cfg.Views.ListLimit, Heatmap: cfg.Views.HeatmapLimit}
	svc.Observer = reg

	return &stack{
		svc:     svc,
		metrics: reg,
		log:     log,
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func buildStore(ctx context.Context, c config.Cache) (cache.Store, func(), error) {
	if c.TTLSeconds <= 0 {
		return nil, nil, nil
	}
	switch c.Backend {
	case "memory":
		return cache.NewMemory(c.MaxItems), nil, nil
	case "redis":
		r, err := cache.NewRedis(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}
	return nil, nil, nil
}
