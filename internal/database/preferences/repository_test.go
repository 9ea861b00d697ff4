package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/database/dbtest"
)

func setupTestDB(t *testing.T) (*Repository, uint) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "prefs@example.com")
	return NewRepository(db.DB), user.ID
}

func TestRepository_Set_New(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, userID, "theme", "dark"))

	pref, err := repo.Get(ctx, userID, "theme")
	require.NoError(t, err)
	assert.Equal(t, "theme", pref.Key)
	assert.Equal(t, "dark", pref.Value)
}

func TestRepository_Set_Update(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, userID, "theme", "light"))
	require.NoError(t, repo.Set(ctx, userID, "theme", "dark"))

	pref, err := repo.Get(ctx, userID, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", pref.Value)
}

func TestRepository_GetOrDefault(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	value, err := repo.GetOrDefault(ctx, userID, "missing", "all")
	require.NoError(t, err)
	assert.Equal(t, "all", value)

	require.NoError(t, repo.Set(ctx, userID, "missing", "new"))
	value, err = repo.GetOrDefault(ctx, userID, "missing", "all")
	require.NoError(t, err)
	assert.Equal(t, "new", value)
}

func TestRepository_Delete(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, userID, "to-delete", "value"))
	require.NoError(t, repo.Delete(ctx, userID, "to-delete"))

	_, err := repo.Get(ctx, userID, "to-delete")
	assert.Error(t, err)

	// Deleting again is a no-op.
	assert.NoError(t, repo.Delete(ctx, userID, "to-delete"))
}
