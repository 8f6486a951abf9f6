package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hay-kot/dyna/internal/core/kv"
	"github.com/hay-kot/dyna/internal/data/db"
)

const (
	busyRetries = 3
	busyBackoff = 20 * time.Millisecond
)

// KVStore implements kv.KV using SQLite.
type KVStore struct {
	db  *db.DB
	now func() time.Time
}

var _ kv.KV = (*KVStore)(nil)

// NewKVStore creates a new SQLite-backed KV store.
func NewKVStore(db *db.DB) *KVStore {
	return &KVStore{db: db, now: time.Now}
}

// Get retrieves and deserializes a value by key.
// Returns an error wrapping sql.ErrNoRows if the key does not exist.
// Expired entries are lazily deleted and treated as missing.
func (s *KVStore) Get(ctx context.Context, key string, dest any) error {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		return fmt.Errorf("kv get %q: %w", key, err)
	}

	if s.isExpired(row) {
		_ = s.db.Queries().KVDelete(ctx, key)
		return fmt.Errorf("kv get %q: %w", key, sql.ErrNoRows)
	}

	if err := json.Unmarshal(row.Value, dest); err != nil {
		return fmt.Errorf("kv get %q unmarshal: %w", key, err)
	}

	return nil
}

// Set stores a value with no expiry.
func (s *KVStore) Set(ctx context.Context, key string, value any) error {
	return s.set(ctx, key, value, sql.NullInt64{})
}

// SetTTL stores a value that expires after the given duration.
func (s *KVStore) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.set(ctx, key, value, s.expiry(ttl))
}

// SetIfAbsent stores value only when key is missing or already expired.
// The check and the write happen in one statement, so concurrent callers
// racing on the same key see exactly one winner. A ttl <= 0 means no expiry.
func (s *KVStore) SetIfAbsent(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("kv set-if-absent %q marshal: %w", key, err)
	}

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = s.expiry(ttl)
	}

	now := s.now().UnixNano()
	params := db.KVSetParams{
		Key:       key,
		Value:     data,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var stored bool
	err = s.retryBusy(ctx, func() error {
		var err error
		stored, err = s.db.Queries().KVSetIfAbsent(ctx, params, now)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("kv set-if-absent %q: %w", key, err)
	}

	return stored, nil
}

// Delete removes keys. Missing keys are not an error.
func (s *KVStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 1 {
		if err := s.db.Queries().KVDelete(ctx, keys[0]); err != nil {
			return fmt.Errorf("kv delete %q: %w", keys[0], err)
		}
		return nil
	}

	return s.db.WithTx(ctx, func(q *db.Queries) error {
		for _, key := range keys {
			if err := q.KVDelete(ctx, key); err != nil {
				return fmt.Errorf("kv delete %q: %w", key, err)
			}
		}
		return nil
	})
}

// Has returns whether a key exists and has not expired.
func (s *KVStore) Has(ctx context.Context, key string) (bool, error) {
	count, err := s.db.Queries().KVHas(ctx, key, s.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("kv has %q: %w", key, err)
	}
	return count > 0, nil
}

// ListKeys returns all non-expired keys in sorted order.
func (s *KVStore) ListKeys(ctx context.Context) ([]string, error) {
	now := sql.NullInt64{Int64: s.now().UnixNano(), Valid: true}
	keys, err := s.db.Queries().KVListKeys(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("kv list keys: %w", err)
	}
	return keys, nil
}

// GetRaw retrieves a raw KV entry with metadata.
// Returns an error wrapping sql.ErrNoRows if the key does not exist.
func (s *KVStore) GetRaw(ctx context.Context, key string) (kv.Entry, error) {
	row, err := s.db.Queries().KVGet(ctx, key)
	if err != nil {
		return kv.Entry{}, fmt.Errorf("kv get raw %q: %w", key, err)
	}

	if s.isExpired(row) {
		_ = s.db.Queries().KVDelete(ctx, key)
		return kv.Entry{}, fmt.Errorf("kv get raw %q: %w", key, sql.ErrNoRows)
	}

	entry := kv.Entry{
		Key:       row.Key,
		Value:     json.RawMessage(row.Value),
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}

	if row.ExpiresAt.Valid {
		t := time.Unix(0, row.ExpiresAt.Int64)
		entry.ExpiresAt = &t
	}

	return entry, nil
}

// SweepExpired deletes all entries whose TTL has passed and returns how many were removed.
func (s *KVStore) SweepExpired(ctx context.Context) (int64, error) {
	now := sql.NullInt64{Int64: s.now().UnixNano(), Valid: true}
	n, err := s.db.Queries().KVSweepExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("kv sweep expired: %w", err)
	}
	return n, nil
}

func (s *KVStore) set(ctx context.Context, key string, value any, expiresAt sql.NullInt64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv set %q marshal: %w", key, err)
	}

	now := s.now().UnixNano()
	params := db.KVSetParams{
		Key:       key,
		Value:     data,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.retryBusy(ctx, func() error {
		return s.db.Queries().KVSet(ctx, params)
	})
	if err != nil {
		return fmt.Errorf("kv set %q: %w", key, err)
	}

	return nil
}

func (s *KVStore) expiry(ttl time.Duration) sql.NullInt64 {
	return sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
}

func (s *KVStore) isExpired(row db.KvStore) bool {
	return row.ExpiresAt.Valid && row.ExpiresAt.Int64 <= s.now().UnixNano()
}

// retryBusy retries fn while SQLite reports the database as locked. The
// busy_timeout pragma covers most contention; this catches the remainder.
func (s *KVStore) retryBusy(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		err = fn()
		if err == nil || !IsBusyError(err) {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(busyBackoff * time.Duration(attempt+1)):
		}
	}
	return err
}
