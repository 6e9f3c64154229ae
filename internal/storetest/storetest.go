// Package storetest opens throwaway SQLite stores for tests.
package storetest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Kerhoff/todoapi/internal/config"
	"github.com/Kerhoff/todoapi/internal/repository"
	"github.com/Kerhoff/todoapi/internal/repository/sqlite"
	"github.com/Kerhoff/todoapi/pkg/logger"
)

// NewDatabase opens a migrated SQLite database in a temp dir. It is closed
// when the test ends.
func NewDatabase(t testing.TB) *config.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "todos.db")
	db, err := config.NewDatabase(config.DriverSQLite, "file:"+path+"?_foreign_keys=on", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate())
	return db
}

// NewRepository returns a todo repository backed by NewDatabase.
func NewRepository(t testing.TB) repository.TodoRepository {
	t.Helper()
	return sqlite.NewTodoRepository(NewDatabase(t).Sqlx())
}
