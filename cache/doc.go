// Package cache provides the storage layer for cached API responses.
//
// It defines the Store interface consumed by the intercept package, a
// deterministic SHA-256 Keyer for deriving cache keys from call identity
// and normalized parameters, an eligibility Policy matched against
// operation names, and three Store implementations: in-memory LRU, Redis,
// and SQL.
package cache
