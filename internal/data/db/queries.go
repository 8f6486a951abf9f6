package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the hand-written statements for the kv_store table.
type Queries struct {
	db DBTX
}

// New binds queries to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q that runs inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// KvStore is one row of the kv_store table. Times are unix nanoseconds.
type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

// KVSetParams are the inputs to KVSet and KVSetIfAbsent.
type KVSetParams struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

const kvGet = `SELECT key, value, expires_at, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var row KvStore
	err := q.db.QueryRowContext(ctx, kvGet, key).Scan(
		&row.Key,
		&row.Value,
		&row.ExpiresAt,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	return row, err
}

const kvSet = `
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value      = excluded.value,
    expires_at = excluded.expires_at,
    updated_at = excluded.updated_at`

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

// An existing row is only replaced when it has already expired, so the whole
// compare-and-set is a single statement under SQLite's write lock.
const kvSetIfAbsent = `
INSERT INTO kv_store (key, value, expires_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET
    value      = excluded.value,
    expires_at = excluded.expires_at,
    created_at = excluded.created_at,
    updated_at = excluded.updated_at
WHERE kv_store.expires_at IS NOT NULL AND kv_store.expires_at <= ?`

// KVSetIfAbsent reports whether the row was written.
func (q *Queries) KVSetIfAbsent(ctx context.Context, arg KVSetParams, now int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, kvSetIfAbsent,
		arg.Key,
		arg.Value,
		arg.ExpiresAt,
		arg.CreatedAt,
		arg.UpdatedAt,
		now,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

const kvHas = `
SELECT COUNT(*) FROM kv_store
WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`

func (q *Queries) KVHas(ctx context.Context, key string, now int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, kvHas, key, now).Scan(&count)
	return count, err
}

const kvListKeys = `
SELECT key FROM kv_store
WHERE expires_at IS NULL OR expires_at > ?
ORDER BY key`

func (q *Queries) KVListKeys(ctx context.Context, now sql.NullInt64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, kvListKeys, now)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

const kvSweepExpired = `DELETE FROM kv_store WHERE expires_at IS NOT NULL AND expires_at <= ?`

// KVSweepExpired returns the number of rows removed.
func (q *Queries) KVSweepExpired(ctx context.Context, now sql.NullInt64) (int64, error) {
	res, err := q.db.ExecContext(ctx, kvSweepExpired, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
