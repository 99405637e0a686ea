package intercept

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/jonwraymond/callcache/cache"
)

// Dispatcher routes calls through the cache: it consults the eligibility
// policy, looks the call up in the store, executes the transport on a miss
// or an ineligible call, and writes eligible results back.
//
// Contract:
//   - Transport errors propagate unchanged and are never cached.
//   - Every cache-layer failure (key derivation, store I/O, serialization)
//     downgrades the call to direct execution; callers observe the same
//     behavior they would without the cache, modulo warning output.
//   - Calls on one dispatcher are handled in the order issued; dispatchers
//     sharing a store are not coordinated with each other.
type Dispatcher struct {
	store   cache.Store
	keyer   cache.Keyer
	policy  *cache.Policy
	logger  *zap.Logger
	metrics *callMetrics

	callLog          bool
	suppressWarnings bool
}

// NewDispatcher builds a dispatcher from the given options. Most callers
// go through Enter or With instead and let the scope hand out bound
// clients.
func NewDispatcher(opts Options) (*Dispatcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	policy, err := cache.NewPolicy(opts.TTL, opts.MatchRules)
	if err != nil {
		return nil, err
	}

	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer(opts.ExcludeParams...)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	meter := opts.Meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("callcache")
	}
	metrics, err := newCallMetrics(meter)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		store:            opts.Store,
		keyer:            keyer,
		policy:           policy,
		logger:           logger,
		metrics:          metrics,
		callLog:          opts.CallLog,
		suppressWarnings: opts.SuppressWarnings,
	}, nil
}

// Invoke runs one call through the hit/miss/store state machine. The
// transport is a parameter rather than a field so one dispatcher can serve
// every client bound to its scope.
func (d *Dispatcher) Invoke(ctx context.Context, transport Transport, serviceID, operation string, params map[string]any) (map[string]any, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	if !d.policy.Cacheable(operation) {
		d.metrics.recordOutcome(ctx, serviceID, operation, outcomeBypass)
		d.logCall(serviceID, operation, outcomeBypass)
		return transport.Invoke(ctx, serviceID, operation, params)
	}

	key, err := d.keyer.Key(serviceID, operation, params)
	if err != nil {
		d.warn("cache key derivation failed, calling without cache",
			zap.String("service", serviceID), zap.String("operation", operation), zap.Error(err))
		return transport.Invoke(ctx, serviceID, operation, params)
	}
	if err := cache.ValidateKey(key); err != nil {
		d.warn("derived cache key is invalid, calling without cache",
			zap.String("service", serviceID), zap.String("operation", operation), zap.Error(err))
		return transport.Invoke(ctx, serviceID, operation, params)
	}

	start := time.Now()
	raw, err := d.store.Get(ctx, key)
	d.metrics.recordLookup(ctx, serviceID, operation, time.Since(start))

	switch {
	case err == nil:
		var resp map[string]any
		if uerr := json.Unmarshal(raw, &resp); uerr == nil {
			d.metrics.recordOutcome(ctx, serviceID, operation, outcomeHit)
			d.logCall(serviceID, operation, outcomeHit)
			return resp, nil
		}
		// Corrupt entry. Drop it and fall through to a miss.
		_ = d.store.Delete(ctx, key)
		d.warn("discarding undecodable cache entry",
			zap.String("service", serviceID), zap.String("operation", operation), zap.String("key", key))
	case errors.Is(err, cache.ErrNotFound):
		// Plain miss.
	default:
		d.warn("cache read failed, treating as miss",
			zap.String("service", serviceID), zap.String("operation", operation), zap.Error(err))
	}

	d.metrics.recordOutcome(ctx, serviceID, operation, outcomeMiss)
	d.logCall(serviceID, operation, outcomeMiss)

	resp, err := transport.Invoke(ctx, serviceID, operation, params)
	if err != nil {
		return resp, err
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		d.warn("response is not serializable, skipping cache",
			zap.String("service", serviceID), zap.String("operation", operation), zap.Error(err))
		return resp, nil
	}
	if err := d.store.Set(ctx, key, encoded, d.policy.TTL()); err != nil {
		d.warn("cache write failed, result not cached",
			zap.String("service", serviceID), zap.String("operation", operation), zap.Error(err))
	}
	return resp, nil
}

// Policy exposes the dispatcher's compiled eligibility policy.
func (d *Dispatcher) Policy() *cache.Policy {
	return d.policy
}

func (d *Dispatcher) logCall(serviceID, operation, outcome string) {
	if !d.callLog {
		return
	}
	d.logger.Info("intercepted call",
		zap.String("service", serviceID),
		zap.String("operation", operation),
		zap.String("outcome", outcome),
	)
}

func (d *Dispatcher) warn(msg string, fields ...zap.Field) {
	if d.suppressWarnings {
		return
	}
	d.logger.Warn(msg, fields...)
}
