package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema step. Files are named
// NNNN_name.up.sql and NNNN_name.down.sql.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	AppliedAt time.Time // zero when pending
}

// Applied reports whether the migration is recorded in schema_migrations.
func (s MigrationStatus) Applied() bool { return !s.AppliedAt.IsZero() }

// ErrNothingToRevert is returned when a rollback asks for more steps than
// are recorded.
var ErrNothingToRevert = errors.New("not enough applied migrations")

func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		version, name, up, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}

		body, err := fs.ReadFile(migrationsFS, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		}
		if m.Name != name {
			return nil, fmt.Errorf("migration %04d named both %q and %q", version, m.Name, name)
		}

		slot := &m.DownSQL
		if up {
			slot = &m.UpSQL
		}
		if *slot != "" {
			return nil, fmt.Errorf("migration %04d has two %s files", version, direction(up))
		}
		*slot = string(body)
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		switch {
		case m.UpSQL == "":
			return nil, fmt.Errorf("migration %04d is missing its up file", m.Version)
		case m.DownSQL == "":
			return nil, fmt.Errorf("migration %04d is missing its down file", m.Version)
		}
		out = append(out, *m)
	}

	slices.SortFunc(out, func(a, b Migration) int { return a.Version - b.Version })
	return out, nil
}

func direction(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// parseFilename splits "0001_kv_store.up.sql" into (1, "kv_store", true).
func parseFilename(filename string) (version int, name string, up bool, err error) {
	stem, ok := strings.CutSuffix(filename, ".up.sql")
	up = ok
	if !ok {
		stem, ok = strings.CutSuffix(filename, ".down.sql")
	}
	if !ok {
		return 0, "", false, fmt.Errorf("want .up.sql or .down.sql suffix")
	}

	num, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" {
		return 0, "", false, fmt.Errorf("want NNNN_name prefix")
	}

	version, err = strconv.Atoi(num)
	if err != nil {
		return 0, "", false, fmt.Errorf("version %q: %w", num, err)
	}
	if version < 1 {
		return 0, "", false, fmt.Errorf("version must be positive, got %d", version)
	}

	return version, name, up, nil
}

// migrateUp applies every pending migration in version order.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	statuses, migrations, err := readStatus(ctx, conn)
	if err != nil {
		return err
	}

	for i, m := range migrations {
		if statuses[i].Applied() {
			continue
		}

		log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("applying migration")
		err := inTx(ctx, conn, m.UpSQL,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now().UnixNano())
		if err != nil {
			return fmt.Errorf("apply %04d_%s: %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// Migrations lists every embedded migration alongside when it was applied.
func (db *DB) Migrations(ctx context.Context) ([]MigrationStatus, error) {
	statuses, _, err := readStatus(ctx, db.conn)
	return statuses, err
}

// Rollback reverts the newest steps applied migrations and returns them
// newest first.
func (db *DB) Rollback(ctx context.Context, steps int) ([]Migration, error) {
	return migrateDown(ctx, db.conn, steps)
}

// Migrate re-applies anything pending, typically after a Rollback.
func (db *DB) Migrate(ctx context.Context) error {
	return migrateUp(ctx, db.conn)
}

func migrateDown(ctx context.Context, conn *sql.DB, steps int) ([]Migration, error) {
	if steps < 1 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	statuses, migrations, err := readStatus(ctx, conn)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for i := len(migrations) - 1; i >= 0; i-- {
		if statuses[i].Applied() {
			applied = append(applied, migrations[i])
		}
	}
	if steps > len(applied) {
		return nil, fmt.Errorf("%w: asked for %d, have %d", ErrNothingToRevert, steps, len(applied))
	}

	reverted := applied[:steps]
	for _, m := range reverted {
		log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("reverting migration")
		err := inTx(ctx, conn, m.DownSQL, "DELETE FROM schema_migrations WHERE version = ?", m.Version)
		if err != nil {
			return nil, fmt.Errorf("revert %04d_%s: %w", m.Version, m.Name, err)
		}
	}

	return reverted, nil
}

// readStatus loads the embedded migrations and pairs each with its
// schema_migrations row. Both slices share an index.
func readStatus(ctx context.Context, conn *sql.DB) ([]MigrationStatus, []Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, nil, err
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	rows, err := conn.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	appliedAt := map[int]time.Time{}
	for rows.Next() {
		var version int
		var at int64
		if err := rows.Scan(&version, &at); err != nil {
			return nil, nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		appliedAt[version] = time.Unix(0, at)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	statuses := make([]MigrationStatus, len(migrations))
	for i, m := range migrations {
		statuses[i] = MigrationStatus{Version: m.Version, Name: m.Name, AppliedAt: appliedAt[m.Version]}
	}
	return statuses, migrations, nil
}

// inTx runs a migration body and its bookkeeping statement atomically.
func inTx(ctx context.Context, conn *sql.DB, body, record string, args ...any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return tx.Commit()
}
