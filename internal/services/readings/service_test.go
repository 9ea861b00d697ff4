package readings

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/database/dbtest"
	progressrepo "github.com/biblehabit/tracker/internal/database/progress"
	"github.com/biblehabit/tracker/internal/database/readinglogs"
	"github.com/biblehabit/tracker/internal/database/users"
	"github.com/biblehabit/tracker/internal/entities"
	progresssvc "github.com/biblehabit/tracker/internal/services/progress"
)

// 2024-05-01 14:00 UTC
var fixedNow = time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

type countingInvalidator struct {
	calls []uint
}

func (c *countingInvalidator) Invalidate(_ context.Context, userID uint) error {
	c.calls = append(c.calls, userID)
	return nil
}

// flakyLogs fails the Create call number failOn (1-based).
type flakyLogs struct {
	*readinglogs.Repository
	failOn int
	calls  int
}

func (f *flakyLogs) Create(ctx context.Context, log *entities.ReadingLog) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("disk I/O error")
	}
	return f.Repository.Create(ctx, log)
}

type fixture struct {
	db       *database.Database
	logs     *readinglogs.Repository
	progress *progressrepo.Repository
	stats    *countingInvalidator
	svc      *Service
	user     *entities.User
}

func setup(t *testing.T) *fixture {
	db := dbtest.New(t)
	f := &fixture{
		db:       db,
		logs:     readinglogs.NewRepository(db.DB),
		progress: progressrepo.NewRepository(db.DB),
		stats:    &countingInvalidator{},
		user:     dbtest.CreateUser(t, db, "reader@example.com"),
	}
	clock := func() time.Time { return fixedNow }
	sync := progresssvc.NewService(f.logs, f.progress, users.NewRepository(db.DB), bible.Default(), nil).WithClock(clock)
	f.svc = NewService(f.logs, sync, f.stats, bible.Default(), nil).WithClock(clock)
	return f
}

func TestLogReading_RangeEndToEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1-3", DateRead: "2024-05-01"})
	require.NoError(t, err)

	assert.Equal(t, "Genesis 1-3", result.Reference)
	require.Len(t, result.Created, 3)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, "Genesis 2", result.Created[1].PassageText)
	assert.Equal(t, "Logged Genesis 1-3.", result.Message())

	n, err := f.logs.CountForUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	p, err := f.progress.Get(ctx, f.user.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int{1, 2, 3}, p.Chapters())
	assert.Equal(t, 6.0, p.CompletionPercent)
	assert.False(t, p.IsCompleted)

	assert.Equal(t, []uint{f.user.ID}, f.stats.calls)
}

func TestLogReading_DuplicateIsConflict(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	in := LogReadingInput{BookID: 43, ChapterInput: "3", DateRead: "2024-05-01", NotesText: "first"}

	first, err := f.svc.LogReading(ctx, f.user, in)
	require.NoError(t, err)

	in.NotesText = "second"
	_, err = f.svc.LogReading(ctx, f.user, in)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.True(t, strings.Contains(err.Error(), "already logged John 3"), err.Error())
	assert.Equal(t, []string{"You have already logged John 3 for 2024-05-01."}, apperr.FieldErrors(err)[bible.FieldChapterInput])

	kept, err := f.logs.GetByID(ctx, first.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "first", kept.NotesText)
}

func TestLogReading_PartialRange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 19, ChapterInput: "2", DateRead: "2024-05-01"})
	require.NoError(t, err)

	result, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 19, ChapterInput: "1-3", DateRead: "2024-05-01"})
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)
	assert.Equal(t, []int{2}, result.Skipped)
	assert.Equal(t, "Logged Psalms 1-3. Chapter 2 was already logged.", result.Message())

	chapters, err := f.logs.ChaptersForBook(ctx, f.user.ID, 19)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, chapters)
}

func TestLogReading_SameChapterOtherDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-04-30"})
	require.NoError(t, err)
	_, err = f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-05-01"})
	require.NoError(t, err)

	p, err := f.progress.Get(ctx, f.user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, p.Chapters())
}

func TestLogReading_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		in    LogReadingInput
		field string
		check func(error) bool
	}{
		{"missing book", LogReadingInput{ChapterInput: "1", DateRead: "2024-05-01"}, FieldBookID, apperr.IsValidation},
		{"book out of range", LogReadingInput{BookID: 67, ChapterInput: "1", DateRead: "2024-05-01"}, FieldBookID, apperr.IsValidation},
		{"missing chapter", LogReadingInput{BookID: 1, DateRead: "2024-05-01"}, bible.FieldChapterInput, apperr.IsValidation},
		{"bad date", LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "05/01/2024"}, FieldDateRead, apperr.IsValidation},
		{"two days ago", LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-04-29"}, FieldDateRead, apperr.IsValidation},
		{"tomorrow", LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-05-02"}, FieldDateRead, apperr.IsValidation},
		{"chapter beyond book", LogReadingInput{BookID: 1, ChapterInput: "49-51", DateRead: "2024-05-01"}, bible.FieldChapterInput, apperr.IsValidation},
		{"inverted range", LogReadingInput{BookID: 1, ChapterInput: "5-3", DateRead: "2024-05-01"}, bible.FieldChapterInput, apperr.IsInvalidArgument},
		{"malformed range", LogReadingInput{BookID: 1, ChapterInput: "1,2", DateRead: "2024-05-01"}, bible.FieldChapterInput, apperr.IsInvalidArgument},
		{"notes too long", LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-05-01", NotesText: strings.Repeat("é", 501)}, FieldNotes, apperr.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			_, err := f.svc.LogReading(context.Background(), f.user, tt.in)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type %T: %v", err, err)
			assert.Contains(t, apperr.FieldErrors(err), tt.field)

			n, err := f.logs.CountForUser(context.Background(), f.user.ID)
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestLogReading_NotesAtLimit(t *testing.T) {
	f := setup(t)
	_, err := f.svc.LogReading(context.Background(), f.user, LogReadingInput{
		BookID: 1, ChapterInput: "1", DateRead: "2024-05-01", NotesText: strings.Repeat("é", 500),
	})
	assert.NoError(t, err)
}

func TestAllowedDates_UsesUserTimezone(t *testing.T) {
	f := setup(t)
	// 02:00 UTC on May 2nd is still May 1st in New York.
	f.svc.WithClock(func() time.Time { return time.Date(2024, 5, 2, 2, 0, 0, 0, time.UTC) })
	f.user.Timezone = "America/New_York"

	today, yesterday := f.svc.AllowedDates(f.user)
	assert.Equal(t, "2024-05-01", today)
	assert.Equal(t, "2024-04-30", yesterday)

	_, err := f.svc.LogReading(context.Background(), f.user, LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-05-02"})
	assert.True(t, apperr.IsValidation(err))
}

func TestDeleteLog(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := dbtest.CreateUser(t, f.db, "other@example.com")

	result, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1-2", DateRead: "2024-05-01"})
	require.NoError(t, err)
	target := result.Created[1]

	err = f.svc.DeleteLog(ctx, other, target.ID)
	assert.True(t, apperr.IsNotFound(err))

	require.NoError(t, f.svc.DeleteLog(ctx, f.user, target.ID))

	p, err := f.progress.Get(ctx, f.user.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, p.Chapters())
	assert.Equal(t, 2.0, p.CompletionPercent)

	err = f.svc.DeleteLog(ctx, f.user, target.ID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestLogReading_FailureMidRangeKeepsProgressInStep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	logs := &flakyLogs{Repository: f.logs, failOn: 2}
	clock := func() time.Time { return fixedNow }
	sync := progresssvc.NewService(f.logs, f.progress, users.NewRepository(f.db.DB), bible.Default(), nil).WithClock(clock)
	svc := NewService(logs, sync, f.stats, bible.Default(), nil).WithClock(clock)

	result, err := svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1-3", DateRead: "2024-05-01"})
	require.Error(t, err)
	assert.False(t, apperr.IsConflict(err))
	assert.ErrorContains(t, err, "disk I/O error")
	require.NotNil(t, result)
	require.Len(t, result.Created, 1)

	p, err := f.progress.Get(ctx, f.user.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []int{1}, p.Chapters())
	assert.Equal(t, 2.0, p.CompletionPercent)
	assert.Equal(t, p.Chapters(), result.Progress.Chapters())

	assert.Equal(t, []uint{f.user.ID}, f.stats.calls)
}

func TestDeleteLog_LastChapterNoLongerStarted(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.LogReading(ctx, f.user, LogReadingInput{BookID: 1, ChapterInput: "1", DateRead: "2024-05-01"})
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteLog(ctx, f.user, result.Created[0].ID))

	started, completed, err := f.progress.Counts(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Zero(t, started)
	assert.Zero(t, completed)
}
