package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// DefaultTTL is the entry lifetime used when none is configured.
const DefaultTTL = 15 * time.Minute

// DefaultMaxSize is the entry bound used when none is configured.
const DefaultMaxSize = 100

// Sentinel errors for store operations.
var (
	ErrNotFound   = errors.New("cache: key not found")
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrClosed     = errors.New("cache: store is closed")
)

// Store is the interface for cache entry storage.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use. A store
//     shared across processes delegates all read/write consistency to its
//     backend's own locking; racing writers are tolerated, not coordinated.
//   - TTL: Get must never return an entry whose TTL has elapsed; expired
//     entries are reported as ErrNotFound and eventually purged.
//   - Bound: size-bounded implementations evict the least recently accessed
//     entry before an insertion that would exceed the bound.
//   - Errors: any error other than ErrNotFound means the store itself
//     failed; callers are expected to degrade to uncached operation.
type Store interface {
	// Get retrieves the value for key. Returns ErrNotFound if the key does
	// not exist or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL, evicting first if the
	// insertion would exceed the store's size bound.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Contains reports whether the key exists and has not expired. Unlike
	// Get it does not refresh the entry's recency.
	Contains(ctx context.Context, key string) (bool, error)

	// Delete removes a key. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store.
	Close() error
}

// ValidateKey checks if a key is valid for storage.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
