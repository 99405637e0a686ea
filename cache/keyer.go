package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Keyer generates deterministic cache keys from call identity and
// parameters.
//
// Contract:
// - Determinism: same service, operation, and semantically equal parameters
//   must produce the same key, regardless of map iteration order.
// - Exclusions: parameters named in the exclusion set never influence the key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key for one call.
	Key(serviceID, operation string, params map[string]any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
//
// Exclude lists top-level parameter names dropped before hashing. It is
// meant for fields that differ on every call without changing the call's
// meaning, such as client-generated request tokens.
type DefaultKeyer struct {
	Exclude []string
}

// NewDefaultKeyer creates a keyer with the given parameter exclusion set.
func NewDefaultKeyer(exclude ...string) *DefaultKeyer {
	return &DefaultKeyer{Exclude: exclude}
}

// Key generates a deterministic cache key.
// Format: cache:<serviceID>:<operation>:<hash>
// where hash is the first 16 hex characters of SHA-256(canonical JSON of
// the parameters after exclusions).
func (k *DefaultKeyer) Key(serviceID, operation string, params map[string]any) (string, error) {
	canonical, err := canonicalize(k.prune(params))
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize params: %w", err)
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:8]) // First 8 bytes = 16 hex chars

	return fmt.Sprintf("cache:%s:%s:%s", serviceID, operation, hashStr), nil
}

// prune returns params with excluded names removed. The input map is not
// modified.
func (k *DefaultKeyer) prune(params map[string]any) map[string]any {
	if len(k.Exclude) == 0 || params == nil {
		return params
	}
	out := make(map[string]any, len(params))
	for name, v := range params {
		out[name] = v
	}
	for _, name := range k.Exclude {
		delete(out, name)
	}
	return out
}

// canonicalize produces a deterministic JSON representation of the value.
// Maps are sorted by key to ensure consistent ordering.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// For other types, use standard JSON encoding
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
