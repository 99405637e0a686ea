package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	// Get on empty store
	_, err := store.Get(ctx, "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}

	key := "test-key"
	value := []byte("test-value")
	if err := store.Set(ctx, key, value, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Set failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("Get returned %q, want %q", got, value)
	}

	ok, err := store.Contains(ctx, key)
	if err != nil || !ok {
		t.Errorf("Contains = (%v, %v), want (true, nil)", ok, err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}

	// Delete is idempotent
	if err := store.Delete(ctx, "nonexistent"); err != nil {
		t.Errorf("Delete on missing key should not error, got: %v", err)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	key := "expiring-key"
	if err := store.Set(ctx, key, []byte("v"), 50*time.Millisecond); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := store.Get(ctx, key); err != nil {
		t.Fatalf("Get before expiry failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if _, err := store.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after expiry = %v, want ErrNotFound", err)
	}
	ok, err := store.Contains(ctx, key)
	if err != nil {
		t.Fatalf("Contains failed: %v", err)
	}
	if ok {
		t.Error("Contains after expiry should report false")
	}
}

func TestMemoryStore_LRUEviction(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		key := fmt.Sprintf("key-%d", i)
		if err := store.Set(ctx, key, []byte{byte(i)}, time.Minute); err != nil {
			t.Fatalf("Set %s failed: %v", key, err)
		}
	}

	// Touch key-1 so key-2 becomes least recently used.
	if _, err := store.Get(ctx, "key-1"); err != nil {
		t.Fatalf("Get key-1 failed: %v", err)
	}

	// Inserting a fourth key evicts exactly one entry: key-2.
	if err := store.Set(ctx, "key-4", []byte{4}, time.Minute); err != nil {
		t.Fatalf("Set key-4 failed: %v", err)
	}

	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3 after eviction", store.Len())
	}
	if _, err := store.Get(ctx, "key-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("key-2 should have been evicted, Get = %v", err)
	}
	for _, key := range []string{"key-1", "key-3", "key-4"} {
		if _, err := store.Get(ctx, key); err != nil {
			t.Errorf("%s should survive eviction, Get = %v", key, err)
		}
	}
}

func TestMemoryStore_ContainsDoesNotRefreshRecency(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("a"), time.Minute)
	_ = store.Set(ctx, "b", []byte("b"), time.Minute)

	// Contains peeks at "a" without refreshing it; "a" stays LRU.
	if ok, _ := store.Contains(ctx, "a"); !ok {
		t.Fatal("Contains(a) should be true")
	}

	_ = store.Set(ctx, "c", []byte("c"), time.Minute)

	if _, err := store.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("a should have been evicted despite Contains, Get = %v", err)
	}
	if _, err := store.Get(ctx, "b"); err != nil {
		t.Errorf("b should survive, Get = %v", err)
	}
}

func TestMemoryStore_UpdateDoesNotEvict(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	_ = store.Set(ctx, "a", []byte("a1"), time.Minute)
	_ = store.Set(ctx, "b", []byte("b1"), time.Minute)

	// Overwriting an existing key at capacity must not evict.
	if err := store.Set(ctx, "a", []byte("a2"), time.Minute); err != nil {
		t.Fatalf("update Set failed: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get a failed: %v", err)
	}
	if !bytes.Equal(got, []byte("a2")) {
		t.Errorf("Get a = %q, want updated value", got)
	}
	if _, err := store.Get(ctx, "b"); err != nil {
		t.Errorf("b should still be present, Get = %v", err)
	}
}

func TestMemoryStore_ExpiredPurgedBeforeEviction(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	_ = store.Set(ctx, "dead", []byte("x"), 10*time.Millisecond)
	_ = store.Set(ctx, "live", []byte("y"), time.Minute)

	time.Sleep(20 * time.Millisecond)

	// The expired entry, not the live one, makes room.
	_ = store.Set(ctx, "new", []byte("z"), time.Minute)

	if _, err := store.Get(ctx, "live"); err != nil {
		t.Errorf("live entry should not be displaced by a dead one, Get = %v", err)
	}
	if _, err := store.Get(ctx, "new"); err != nil {
		t.Errorf("new entry should be present, Get = %v", err)
	}
}

func TestMemoryStore_ValueCopied(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	value := []byte("original")
	_ = store.Set(ctx, "k", value, time.Minute)
	value[0] = 'X'

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, []byte("original")) {
		t.Errorf("stored value should be isolated from caller mutation, got %q", got)
	}

	got[0] = 'Y'
	again, _ := store.Get(ctx, "k")
	if !bytes.Equal(again, []byte("original")) {
		t.Errorf("returned value should be isolated from later mutation, got %q", again)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	_ = store.Set(ctx, "k", []byte("v"), time.Minute)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("key-%d-%d", n, j%20)
				_ = store.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = store.Get(ctx, key)
				_, _ = store.Contains(ctx, key)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() > 50 {
		t.Errorf("Len() = %d, want <= maxSize 50", store.Len())
	}
}
