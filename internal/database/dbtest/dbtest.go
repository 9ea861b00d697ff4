// Package dbtest builds throwaway migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/entities"
)

// New opens a fresh database in the test's temp dir and closes it on cleanup.
func New(t testing.TB) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// CreateUser inserts a user with sensible defaults for tests.
func CreateUser(t testing.TB, db *database.Database, email string) *entities.User {
	t.Helper()
	user := &entities.User{
		Name:           "Reader",
		Email:          email,
		Timezone:       "UTC",
		WeeklyTarget:   4,
		EmailReminders: true,
	}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}
