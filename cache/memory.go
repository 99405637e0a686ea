package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store bounded to maxSize entries with
// least-recently-used eviction. Expiry is passive: entries are checked on
// read and purged on write, with no background timers.
type MemoryStore struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently accessed
	closed  bool
}

type memEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemoryStore creates an in-memory store bounded to maxSize entries.
// A non-positive maxSize falls back to DefaultMaxSize.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &MemoryStore{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a value and refreshes its recency.
func (c *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	elem, ok := c.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	entry := elem.Value.(*memEntry)
	if entry.expired(time.Now()) {
		c.remove(elem)
		return nil, ErrNotFound
	}

	c.order.MoveToFront(elem)

	// Return a copy to prevent mutation
	cp := make([]byte, len(entry.value))
	copy(cp, entry.value)
	return cp, nil
}

// Set stores a value, evicting the least recently accessed entry first if
// the insertion would exceed the size bound. Expired entries are purged
// before eviction so live entries are not displaced by dead ones.
func (c *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	cp := make([]byte, len(value))
	copy(cp, value)

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*memEntry)
		entry.value = cp
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return nil
	}

	c.purgeExpired()
	for len(c.entries) >= c.maxSize {
		c.remove(c.order.Back())
	}

	c.entries[key] = c.order.PushFront(&memEntry{key: key, value: cp, expiresAt: expiresAt})
	return nil
}

// Contains reports whether the key exists and has not expired. Recency is
// not refreshed.
func (c *MemoryStore) Contains(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, ErrClosed
	}

	elem, ok := c.entries[key]
	return ok && !elem.Value.(*memEntry).expired(time.Now()), nil
}

// Delete removes a key. Idempotent - no error on miss.
func (c *MemoryStore) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
	return nil
}

// Close releases the store. Subsequent operations return ErrClosed.
func (c *MemoryStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.entries = nil
	c.order = nil
	return nil
}

// Len reports the current number of entries, including any not yet purged
// expired ones.
func (c *MemoryStore) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove must be called with the lock held.
func (c *MemoryStore) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*memEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
}

// purgeExpired must be called with the lock held.
func (c *MemoryStore) purgeExpired() {
	now := time.Now()
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memEntry).expired(now) {
			c.remove(elem)
		}
		elem = prev
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
