package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupTestService returns a service over a migrated database file, so that
// pooled connections share state the way they do in production.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scans.db")
	mg, err := NewMigrator(path)
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	require.NoError(t, mg.Close())

	db, err := Open(DefaultConfig(path))
	require.NoError(t, err)

	service := NewService(db)
	t.Cleanup(func() { _ = service.Close() })
	return service
}
