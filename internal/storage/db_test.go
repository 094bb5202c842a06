package storage

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig("scans.db")

	assert.Equal(t, "scans.db", c.Path)
	assert.Equal(t, 25, c.MaxOpenConns)
	assert.Equal(t, 5*time.Second, c.BusyTimeout)
	assert.Equal(t, "WAL", c.JournalMode)
	assert.False(t, c.AutoMigrate)
}

func TestConfigDSN(t *testing.T) {
	dsn := DefaultConfig("scans.db").dsn()
	for _, want := range []string{"busy_timeout%285000%29", "journal_mode%28WAL%29", "synchronous%28NORMAL%29", "foreign_keys%281%29"} {
		assert.Contains(t, dsn, want)
	}
	assert.NotContains(t, DefaultConfig(MemoryPath).dsn(), "journal_mode")
}

func TestOpen_Memory(t *testing.T) {
	db, err := Open(DefaultConfig(MemoryPath))
	require.NoError(t, err)

	require.NoError(t, db.Ping())
	assert.Equal(t, 1, db.Conn().Stats().MaxOpenConnections)

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(), "closed database")
}

func TestOpen_CreatesDirectoryAndSchema(t *testing.T) {
	c := DefaultConfig(filepath.Join(t.TempDir(), "nested", "dir", "scans.db"))
	c.AutoMigrate = true

	db, err := Open(c)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM scans`).Scan(&count))
	assert.Zero(t, count)
}

func TestOpen_NilConfig(t *testing.T) {
	_, err := Open(nil)
	assert.Error(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	db := NewTestDB(t)
	ctx := t.Context()
	abort := errors.New("abort")

	err := db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_cache (cache_key, payload, expires_at, created_at) VALUES ('k', '{}', 1, 1)`)
		require.NoError(t, err)
		return abort
	})
	assert.ErrorIs(t, err, abort)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM catalog_cache`).Scan(&count))
	assert.Zero(t, count)
}

func TestInTx_Commits(t *testing.T) {
	db := NewTestDB(t)
	ctx := t.Context()

	require.NoError(t, db.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_cache (cache_key, payload, expires_at, created_at) VALUES ('k', '{}', 1, 1)`)
		return err
	}))

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM catalog_cache`).Scan(&count))
	assert.Equal(t, 1, count)
}
