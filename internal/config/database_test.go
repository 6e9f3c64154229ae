package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/todoapi/internal/config"
	"github.com/Kerhoff/todoapi/pkg/logger"
)

// assertMigrationsReleaseConnections runs up, down and up again and checks
// the pool is left idle and usable after each step.
func assertMigrationsReleaseConnections(t *testing.T, db *config.Database) {
	t.Helper()

	require.NoError(t, db.Migrate())
	assert.Zero(t, db.Stats().InUse)

	require.NoError(t, db.MigrateDown())
	assert.Zero(t, db.Stats().InUse)

	require.NoError(t, db.Migrate())
	assert.Zero(t, db.Stats().InUse)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM todos`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, db.Ping())
}

func TestSQLiteMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todos.db")
	db, err := config.NewDatabase(config.DriverSQLite, "file:"+path, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assertMigrationsReleaseConnections(t, db)
}

func TestPostgresMigrations(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := config.NewDatabase(config.DriverPostgres, url, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assertMigrationsReleaseConnections(t, db)
}

func TestNewDatabaseUnknownDriver(t *testing.T) {
	_, err := config.NewDatabase("mysql", "root@/todos", logger.Discard())
	assert.Error(t, err)
}
