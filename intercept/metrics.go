package intercept

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Call outcomes recorded per intercepted call.
const (
	outcomeHit    = "hit"
	outcomeMiss   = "miss"
	outcomeBypass = "bypass"
)

// callMetrics records per-call counters and cache lookup latency.
type callMetrics struct {
	hits       metric.Int64Counter
	misses     metric.Int64Counter
	bypasses   metric.Int64Counter
	lookupHist metric.Float64Histogram
}

func newCallMetrics(meter metric.Meter) (*callMetrics, error) {
	hits, err := meter.Int64Counter(
		"callcache.hits",
		metric.WithDescription("Calls answered from the cache"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter(
		"callcache.misses",
		metric.WithDescription("Eligible calls not found in the cache"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	bypasses, err := meter.Int64Counter(
		"callcache.bypasses",
		metric.WithDescription("Calls routed around the cache"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	lookupHist, err := meter.Float64Histogram(
		"callcache.lookup.duration_ms",
		metric.WithDescription("Cache lookup duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &callMetrics{
		hits:       hits,
		misses:     misses,
		bypasses:   bypasses,
		lookupHist: lookupHist,
	}, nil
}

func (m *callMetrics) recordOutcome(ctx context.Context, serviceID, operation, outcome string) {
	opt := metric.WithAttributes(
		attribute.String("service.id", serviceID),
		attribute.String("operation", operation),
	)
	switch outcome {
	case outcomeHit:
		m.hits.Add(ctx, 1, opt)
	case outcomeMiss:
		m.misses.Add(ctx, 1, opt)
	case outcomeBypass:
		m.bypasses.Add(ctx, 1, opt)
	}
}

func (m *callMetrics) recordLookup(ctx context.Context, serviceID, operation string, d time.Duration) {
	m.lookupHist.Record(ctx, float64(d.Milliseconds()),
		metric.WithAttributes(
			attribute.String("service.id", serviceID),
			attribute.String("operation", operation),
		))
}
