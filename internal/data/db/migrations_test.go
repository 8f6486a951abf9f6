package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(t.TempDir(), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openRawConn(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "dyna.db")
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_AppliesEveryMigration(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	statuses, err := database.Migrations(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied(), "migration %04d_%s should be applied", s.Version, s.Name)
	}

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM kv_store LIMIT 0")
	require.NoError(t, err, "kv_store table should exist")
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)

	assert.NoError(t, migrateUp(context.Background(), database.Conn()))
}

func TestMigrations_PendingOnRawConn(t *testing.T) {
	conn := openRawConn(t)

	statuses, _, err := readStatus(context.Background(), conn)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.False(t, s.Applied())
		assert.True(t, s.AppliedAt.IsZero())
	}
}

func TestRollback_DropsAndRestores(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	_, err := conn.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, created_at, updated_at)
		VALUES ('chat:1:token', '"abc"', 1, 1)
	`)
	require.NoError(t, err)

	reverted, err := database.Rollback(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reverted, 1)
	assert.Equal(t, "kv_store", reverted[0].Name)

	_, err = conn.ExecContext(ctx, "SELECT 1 FROM kv_store LIMIT 0")
	require.Error(t, err, "kv_store should not exist after rollback")

	statuses, err := database.Migrations(ctx)
	require.NoError(t, err)
	assert.False(t, statuses[len(statuses)-1].Applied())

	require.NoError(t, database.Migrate(ctx))
	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestRollback_InvalidSteps(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	_, err := database.Rollback(ctx, 0)
	require.Error(t, err)

	_, err = database.Rollback(ctx, -1)
	require.Error(t, err)
}

func TestRollback_TooMany(t *testing.T) {
	database := openTestDB(t)

	migrations, err := loadMigrations()
	require.NoError(t, err)

	_, err = database.Rollback(context.Background(), len(migrations)+1)
	require.ErrorIs(t, err, ErrNothingToRevert)

	statuses, err := database.Migrations(context.Background())
	require.NoError(t, err)
	for _, s := range statuses {
		assert.True(t, s.Applied(), "a refused rollback must not revert anything")
	}
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version)
	}

	for _, m := range migrations {
		assert.NotEmpty(t, m.UpSQL, "migration %d up SQL", m.Version)
		assert.NotEmpty(t, m.DownSQL, "migration %d down SQL", m.Version)
		assert.NotEmpty(t, m.Name, "migration %d name", m.Version)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantUp      bool
		wantErr     bool
	}{
		{"0001_kv_store.up.sql", 1, "kv_store", true, false},
		{"0001_kv_store.down.sql", 1, "kv_store", false, false},
		{"0100_big_version.down.sql", 100, "big_version", false, false},
		{"bad.sql", 0, "", false, true},
		{"0001_kv_store.sql", 0, "", false, true},
		{"0000_zero.up.sql", 0, "", false, true},
		{"-1_negative.up.sql", 0, "", false, true},
		{"abc_notnumber.up.sql", 0, "", false, true},
		{"0001_.up.sql", 0, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantUp, up)
		})
	}
}
