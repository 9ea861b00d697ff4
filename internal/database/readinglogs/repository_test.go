package readinglogs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/database/dbtest"
	"github.com/biblehabit/tracker/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, uint) {
	db := dbtest.New(t)
	user := dbtest.CreateUser(t, db, "reader@example.com")
	return NewRepository(db.DB), user.ID
}

func seed(t *testing.T, repo *Repository, userID uint, rows ...entities.ReadingLog) {
	t.Helper()
	for i := range rows {
		rows[i].UserID = userID
		require.NoError(t, repo.Create(context.Background(), &rows[i]))
	}
}

func TestRepository_Create_Duplicate(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	first := &entities.ReadingLog{UserID: userID, BookID: 1, Chapter: 1, DateRead: "2024-05-01"}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	err := repo.Create(ctx, &entities.ReadingLog{UserID: userID, BookID: 1, Chapter: 1, DateRead: "2024-05-01"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))

	kept, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, kept.Chapter)
}

func TestRepository_Create_ConcurrentDuplicates(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.Create(ctx, &entities.ReadingLog{UserID: userID, BookID: 43, Chapter: 3, DateRead: "2024-05-01"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicate):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestRepository_Queries(t *testing.T) {
	repo, userID := setupTestDB(t)
	ctx := context.Background()

	seed(t, repo, userID,
		entities.ReadingLog{BookID: 1, Chapter: 1, DateRead: "2024-05-01"},
		entities.ReadingLog{BookID: 1, Chapter: 2, DateRead: "2024-05-01"},
		entities.ReadingLog{BookID: 1, Chapter: 2, DateRead: "2024-05-03"},
		entities.ReadingLog{BookID: 40, Chapter: 5, DateRead: "2024-05-04"},
	)

	t.Run("InDateRange is inclusive", func(t *testing.T) {
		logs, err := repo.InDateRange(ctx, userID, "2024-05-01", "2024-05-03")
		require.NoError(t, err)
		assert.Len(t, logs, 3)
	})

	t.Run("ForBook", func(t *testing.T) {
		logs, err := repo.ForBook(ctx, userID, 1)
		require.NoError(t, err)
		assert.Len(t, logs, 3)
	})

	t.Run("ChaptersForBook is distinct", func(t *testing.T) {
		chapters, err := repo.ChaptersForBook(ctx, userID, 1)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, chapters)
	})

	t.Run("DistinctDates", func(t *testing.T) {
		dates, err := repo.DistinctDates(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024-05-01", "2024-05-03", "2024-05-04"}, dates)
	})

	t.Run("CountForUser", func(t *testing.T) {
		n, err := repo.CountForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("HasReadOn", func(t *testing.T) {
		read, err := repo.HasReadOn(ctx, userID, "2024-05-03")
		require.NoError(t, err)
		assert.True(t, read)

		read, err = repo.HasReadOn(ctx, userID, "2024-05-02")
		require.NoError(t, err)
		assert.False(t, read)
	})

	t.Run("ForUser paginates newest first", func(t *testing.T) {
		page, total, err := repo.ForUser(ctx, userID, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, page, 2)
		assert.Equal(t, "2024-05-04", page[0].DateRead)
		assert.Equal(t, "2024-05-03", page[1].DateRead)
	})

	t.Run("Recent", func(t *testing.T) {
		logs, err := repo.Recent(ctx, userID, 1)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, 40, logs[0].BookID)
	})

	t.Run("UsersWithLogs", func(t *testing.T) {
		ids, err := repo.UsersWithLogs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{userID}, ids)
	})
}

func TestRepository_Delete_OwnerOnly(t *testing.T) {
	db := dbtest.New(t)
	owner := dbtest.CreateUser(t, db, "owner@example.com")
	other := dbtest.CreateUser(t, db, "other@example.com")
	repo := NewRepository(db.DB)
	ctx := context.Background()

	log := &entities.ReadingLog{UserID: owner.ID, BookID: 1, Chapter: 1, DateRead: "2024-05-01"}
	require.NoError(t, repo.Create(ctx, log))

	err := repo.Delete(ctx, log.ID, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Delete(ctx, log.ID, owner.ID))
	_, err = repo.GetByID(ctx, log.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
