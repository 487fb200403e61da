package comb

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/mesh-intelligence/slowcomb/pkg/comb")

// Cache traffic counters, created on first use against the global meter
// provider.
var (
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter
	cacheEvictions metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		cacheHits, err = meter.Int64Counter(
			"slowcomb_cache_hits_total",
			metric.WithDescription("Total number of element cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"slowcomb_cache_misses_total",
			metric.WithDescription("Total number of element cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheEvictions, err = meter.Int64Counter(
			"slowcomb_cache_evictions_total",
			metric.WithDescription("Total number of element cache evictions"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordCacheHit(ctx context.Context, opts ...metric.AddOption) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheHits.Add(ctx, 1, opts...)
}

func recordCacheMiss(ctx context.Context, opts ...metric.AddOption) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheMisses.Add(ctx, 1, opts...)
}

func recordCacheEviction(ctx context.Context, opts ...metric.AddOption) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheEvictions.Add(ctx, 1, opts...)
}
