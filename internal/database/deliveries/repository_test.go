package deliveries

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/database/dbtest"
	"github.com/biblehabit/tracker/internal/entities"
)

func TestRepository_RecordOncePerDay(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "mail@example.com")
	repo := NewRepository(db.DB)
	ctx := context.Background()

	created, err := repo.Record(ctx, user.ID, entities.EmailKindReminder, "2024-05-01")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Record(ctx, user.ID, entities.EmailKindReminder, "2024-05-01")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = repo.Record(ctx, user.ID, entities.EmailKindWeeklySummary, "2024-05-01")
	require.NoError(t, err)
	assert.True(t, created)

	exists, err := repo.Exists(ctx, user.ID, entities.EmailKindReminder, "2024-05-02")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_Forget(t *testing.T) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "forget@example.com")
	repo := NewRepository(db.DB)
	ctx := context.Background()

	_, err := repo.Record(ctx, user.ID, entities.EmailKindReminder, "2024-05-01")
	require.NoError(t, err)
	require.NoError(t, repo.Forget(ctx, user.ID, entities.EmailKindReminder, "2024-05-01"))

	exists, err := repo.Exists(ctx, user.ID, entities.EmailKindReminder, "2024-05-01")
	require.NoError(t, err)
	assert.False(t, exists)
}
