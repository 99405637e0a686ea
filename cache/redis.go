package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis, suitable for a cache shared by
// multiple processes. Cross-process consistency is exactly what the Redis
// server provides: racing writers on the same key are resolved
// last-write-wins, with no coordination added by this layer.
//
// TTL expiry is delegated to Redis key expiration. The size bound is
// delegated to the server's maxmemory policy; configure
// maxmemory-policy allkeys-lru on the server to match the LRU discipline
// of the other stores.
type RedisStore struct {
	client *redis.Client
	prefix string
	owned  bool
}

// RedisConfig holds connection settings for a Redis-backed store.
type RedisConfig struct {
	Addr      string // Redis address (e.g. "localhost:6379")
	Password  string // Redis password
	DB        int    // Redis database number
	KeyPrefix string // Key prefix for namespacing (default: "callcache:")

	// ClearOnStart deletes all entries under KeyPrefix when the store is
	// created.
	ClearOnStart bool
}

const defaultRedisPrefix = "callcache:"

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: redis ping failed: %w", err)
	}

	s := &RedisStore{client: client, prefix: cfg.KeyPrefix, owned: true}
	if s.prefix == "" {
		s.prefix = defaultRedisPrefix
	}
	if cfg.ClearOnStart {
		if err := s.clear(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewRedisStoreFromClient creates a Redis store using an existing client.
// The caller retains ownership of the client; Close is a no-op for it.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	return s.prefix + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *RedisStore) Contains(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}

// clear deletes every key under the store's prefix.
func (s *RedisStore) clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache: redis clear failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis scan failed: %w", err)
	}
	return nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
