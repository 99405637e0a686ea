package intercept

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/callcache/cache"
)

// Options configures a Scope and its dispatcher. Store is the only
// required field; everything else has a working default.
type Options struct {
	// Store is the backing store for cached responses. Required. The same
	// store may be shared by independent scopes or processes; consistency
	// under concurrent writers is whatever the store's backend provides.
	Store cache.Store

	// MatchRules are case-sensitive regular expressions matched against
	// operation names, anchored to the full name. An operation is cacheable
	// if any rule matches. An empty list caches nothing.
	MatchRules []string

	// TTL is the lifetime of stored entries. Non-positive falls back to
	// cache.DefaultTTL.
	TTL time.Duration

	// ExcludeParams names top-level parameters dropped from key derivation,
	// for fields that differ per call without changing the call's meaning
	// (client-generated request tokens and the like).
	ExcludeParams []string

	// Keyer overrides the default SHA-256 keyer. ExcludeParams is ignored
	// when a Keyer is supplied.
	Keyer cache.Keyer

	// CallLog emits one log line per intercepted call, noting whether it
	// was a hit, a miss, or a bypass.
	CallLog bool

	// SuppressWarnings silences the non-fatal warnings emitted when the
	// cache layer degrades (store errors, unserializable responses).
	SuppressWarnings bool

	// Logger receives call logs and warnings. Defaults to a no-op logger.
	Logger *zap.Logger

	// Meter records hit/miss/bypass counters and lookup latency. Defaults
	// to a no-op meter.
	Meter metric.Meter
}

// Validate checks that the options can build a dispatcher.
func (o *Options) Validate() error {
	if o.Store == nil {
		return cache.ErrNilStore
	}
	// Compile the rules now so an invalid pattern surfaces at scope entry,
	// not on the first call.
	if _, err := cache.NewPolicy(o.TTL, o.MatchRules); err != nil {
		return err
	}
	return nil
}

// FileOptions is the YAML-loadable subset of Options. The store, logger,
// and meter stay in code; the tunables tend to differ per environment and
// live in a file.
type FileOptions struct {
	MatchRules       []string `yaml:"match_rules"`
	TTL              string   `yaml:"ttl"` // Go duration string, e.g. "15m"
	ExcludeParams    []string `yaml:"exclude_params"`
	CallLog          bool     `yaml:"call_log"`
	SuppressWarnings bool     `yaml:"suppress_warnings"`
}

// LoadFileOptions reads FileOptions from a YAML file.
func LoadFileOptions(path string) (*FileOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("intercept: read config: %w", err)
	}
	var f FileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("intercept: parse config: %w", err)
	}
	return &f, nil
}

// Options combines the file-loaded tunables with the injected store into a
// complete Options value.
func (f *FileOptions) Options(store cache.Store) (Options, error) {
	o := Options{
		Store:            store,
		MatchRules:       append([]string(nil), f.MatchRules...),
		ExcludeParams:    append([]string(nil), f.ExcludeParams...),
		CallLog:          f.CallLog,
		SuppressWarnings: f.SuppressWarnings,
	}
	if f.TTL != "" {
		ttl, err := time.ParseDuration(f.TTL)
		if err != nil {
			return Options{}, fmt.Errorf("intercept: invalid ttl %q: %w", f.TTL, err)
		}
		o.TTL = ttl
	}
	return o, nil
}
