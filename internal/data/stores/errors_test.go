package stores

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCorruptionError(t *testing.T) {
	assert.True(t, IsCorruptionError(errors.New("ping: file is not a database")))
	assert.True(t, IsCorruptionError(errors.New("database disk image is malformed")))
	assert.False(t, IsCorruptionError(errors.New("connection refused")))
	assert.False(t, IsBusyError(errors.New("database is locked")), "only typed sqlite errors count as busy")
}

func TestRecoverFromCorruption(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "dyna.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(dbPath+"-wal", []byte("wal"), 0o644))

	backup, err := RecoverFromCorruption(dir)
	require.NoError(t, err)

	assert.NoFileExists(t, dbPath)
	assert.NoFileExists(t, dbPath+"-wal")
	assert.FileExists(t, backup)
	assert.FileExists(t, backup+"-wal")

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}

func TestRecoverFromCorruption_NoDatabase(t *testing.T) {
	backup, err := RecoverFromCorruption(t.TempDir())
	require.NoError(t, err)
	assert.NoFileExists(t, backup)
}
