package storage

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store owns the SQLite database backing every persistent cache bucket.
type Store struct {
	db *gorm.DB
}

// BucketMeta records when a bucket was last persisted. TTL gating compares
// against this timestamp.
type BucketMeta struct {
	Name      string `gorm:"primaryKey"`
	UpdatedAt time.Time
}

// BucketEntry is one serialized key/value pair within a bucket.
type BucketEntry struct {
	Bucket string `gorm:"primaryKey"`
	Key    string `gorm:"primaryKey"`
	Value  []byte
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&BucketMeta{}, &BucketEntry{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Bucket is a TTL-gated persistent key/value cache. The payload is owned
// exclusively by the opening run: it is loaded once, mutated in memory, and
// persisted by Close. An empty payload is indistinguishable from a cache
// miss by design; callers rebuild from source either way.
type Bucket[V any] struct {
	store  *Store
	name   string
	ttl    time.Duration // 0 = never expires
	data   map[string]V
	valid  bool
	logger *slog.Logger
}

// OpenBucket loads the named bucket from the store. A missing, unreadable or
// expired bucket yields an empty payload, never an error: cache trouble only
// costs a rebuild. ttl 0 means the bucket is valid whenever it exists.
func OpenBucket[V any](s *Store, name string, ttl time.Duration) *Bucket[V] {
	b := &Bucket[V]{
		store:  s,
		name:   name,
		ttl:    ttl,
		data:   make(map[string]V),
		logger: slog.Default().With("bucket", name),
	}
	b.load()
	return b
}

func (b *Bucket[V]) load() {
	var meta BucketMeta
	err := b.store.db.First(&meta, "name = ?", b.name).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		b.logger.Info("cache bucket not found, starting empty")
		return
	case err != nil:
		b.logger.Warn("cache read failed, starting empty", slog.Any("error", err))
		return
	}

	if b.ttl > 0 && time.Since(meta.UpdatedAt) > b.ttl {
		b.logger.Info("cache bucket is over TTL, starting empty",
			slog.Time("last_written", meta.UpdatedAt),
			slog.Duration("ttl", b.ttl),
		)
		return
	}

	var entries []BucketEntry
	if err := b.store.db.Find(&entries, "bucket = ?", b.name).Error; err != nil {
		b.logger.Warn("cache read failed, starting empty", slog.Any("error", err))
		return
	}

	for _, e := range entries {
		var v V
		if err := json.Unmarshal(e.Value, &v); err != nil {
			b.logger.Warn("dropping corrupt cache entry", slog.String("key", e.Key), slog.Any("error", err))
			continue
		}
		b.data[e.Key] = v
	}

	b.valid = true
	b.logger.Info("cache bucket loaded", slog.Int("entries", len(b.data)))
}

// Valid reports whether a prior persisted payload was loaded within its TTL.
func (b *Bucket[V]) Valid() bool {
	return b.valid
}

// Get returns the value stored under key.
func (b *Bucket[V]) Get(key string) (V, bool) {
	v, ok := b.data[key]
	return v, ok
}

// Set stores a value under key in the in-memory payload.
func (b *Bucket[V]) Set(key string, value V) {
	b.data[key] = value
}

// Len returns the number of keys in the payload.
func (b *Bucket[V]) Len() int {
	return len(b.data)
}

// Range calls fn for every key/value pair until fn returns false. Iteration
// order is unspecified.
func (b *Bucket[V]) Range(fn func(key string, value V) bool) {
	for k, v := range b.data {
		if !fn(k, v) {
			return
		}
	}
}

// Close persists the in-memory payload, replacing whatever was stored
// before. Persistence failure is logged and swallowed: a lost cache only
// costs the next run a rebuild. Callers defer Close on every exit path
// rather than relying on teardown timing.
func (b *Bucket[V]) Close() {
	err := b.store.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&BucketEntry{}, "bucket = ?", b.name).Error; err != nil {
			return err
		}

		entries := make([]BucketEntry, 0, len(b.data))
		for k, v := range b.data {
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			entries = append(entries, BucketEntry{Bucket: b.name, Key: k, Value: raw})
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 200).Error; err != nil {
				return err
			}
		}

		meta := BucketMeta{Name: b.name, UpdatedAt: time.Now()}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&meta).Error
	})
	if err != nil {
		b.logger.Warn("cache persist failed", slog.Any("error", err))
		return
	}
	b.logger.Debug("cache bucket persisted", slog.Int("entries", len(b.data)))
}
