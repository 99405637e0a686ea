package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	glogger "gorm.io/gorm/logger"
)

// sqlEntry is the row layout for SQL-backed cache entries. Recency is
// tracked in last_accessed_at so eviction can select the least recently
// used row with a single ordered query.
type sqlEntry struct {
	Key            string     `gorm:"column:cache_key;primaryKey;size:512"`
	Value          []byte     `gorm:"column:value"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	LastAccessedAt time.Time  `gorm:"column:last_accessed_at;index"`
	ExpiresAt      *time.Time `gorm:"column:expires_at;index"` // nil = no expiry
}

func (sqlEntry) TableName() string { return "cache_entries" }

// SQLStore is a Store backed by a SQL database, suitable for a cache shared
// by independent processes pointed at the same database. Row-level locking
// and transaction isolation are whatever the database provides; racing
// writers on the same key are resolved by the upsert, last write wins.
//
// Expiry is passive: expired rows are purged on access, never by a timer.
type SQLStore struct {
	db      *gorm.DB
	maxSize int
}

// SQLConfig holds settings for a MySQL-backed store.
type SQLConfig struct {
	DSN     string // MySQL DSN (e.g. "user:pass@tcp(host:3306)/db?parseTime=true")
	MaxSize int    // entry bound; non-positive falls back to DefaultMaxSize

	// ClearOnStart deletes all entries when the store is created.
	ClearOnStart bool
}

// NewSQLStore opens a MySQL-backed store and migrates the entry table.
func NewSQLStore(cfg SQLConfig) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("cache: sql open failed: %w", err)
	}
	return newSQLStore(db, cfg.MaxSize, cfg.ClearOnStart)
}

// NewSQLStoreFromDB creates a SQL store on an existing GORM connection,
// which may use any dialect. The entry table is migrated if missing.
func NewSQLStoreFromDB(db *gorm.DB, maxSize int) (*SQLStore, error) {
	return newSQLStore(db, maxSize, false)
}

func newSQLStore(db *gorm.DB, maxSize int, clear bool) (*SQLStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if err := db.AutoMigrate(&sqlEntry{}); err != nil {
		return nil, fmt.Errorf("cache: sql migrate failed: %w", err)
	}
	if clear {
		if err := db.Where("1 = 1").Delete(&sqlEntry{}).Error; err != nil {
			return nil, fmt.Errorf("cache: sql clear failed: %w", err)
		}
	}
	return &SQLStore{db: db, maxSize: maxSize}, nil
}

// Get retrieves a value and refreshes its recency.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.purgeExpired(ctx); err != nil {
		return nil, err
	}

	var entry sqlEntry
	err := s.db.WithContext(ctx).First(&entry, "cache_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&sqlEntry{}).
		Where("cache_key = ?", key).
		Update("last_accessed_at", time.Now().UTC()).Error
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// Set upserts a value, evicting least recently accessed rows first if the
// insertion would exceed the size bound.
func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.purgeExpired(ctx); err != nil {
		return err
	}

	db := s.db.WithContext(ctx)
	var exists int64
	if err := db.Model(&sqlEntry{}).Where("cache_key = ?", key).Count(&exists).Error; err != nil {
		return err
	}
	if exists == 0 {
		if err := s.evictToFit(ctx); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}
	entry := sqlEntry{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		LastAccessedAt: now,
		ExpiresAt:      expiresAt,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		UpdateAll: true,
	}).Create(&entry).Error
}

// Contains reports whether the key exists and has not expired. Recency is
// not refreshed.
func (s *SQLStore) Contains(ctx context.Context, key string) (bool, error) {
	if err := s.purgeExpired(ctx); err != nil {
		return false, err
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&sqlEntry{}).Where("cache_key = ?", key).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a key. Idempotent - no error on miss.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&sqlEntry{}, "cache_key = ?", key).Error
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.Close()
}

// Len reports the current number of live rows.
func (s *SQLStore) Len(ctx context.Context) (int, error) {
	if err := s.purgeExpired(ctx); err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&sqlEntry{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *SQLStore) purgeExpired(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now().UTC()).
		Delete(&sqlEntry{}).Error
}

// evictToFit removes least recently accessed rows until one more insertion
// fits within the bound.
func (s *SQLStore) evictToFit(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for {
		var n int64
		if err := db.Model(&sqlEntry{}).Count(&n).Error; err != nil {
			return err
		}
		if int(n) < s.maxSize {
			return nil
		}

		var oldest sqlEntry
		err := db.Order("last_accessed_at ASC").First(&oldest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := db.Delete(&sqlEntry{}, "cache_key = ?", oldest.Key).Error; err != nil {
			return err
		}
	}
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
