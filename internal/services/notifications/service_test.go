package notifications

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/database/dbtest"
	"github.com/biblehabit/tracker/internal/database/deliveries"
	progressrepo "github.com/biblehabit/tracker/internal/database/progress"
	"github.com/biblehabit/tracker/internal/database/readinglogs"
	"github.com/biblehabit/tracker/internal/database/users"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/mail"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
)

// Wednesday evening
var fixedNow = time.Date(2024, 5, 8, 19, 0, 0, 0, time.UTC)

type fixture struct {
	db     *database.Database
	logs   *readinglogs.Repository
	users  *users.Repository
	mailer *mail.RecordingMailer
	svc    *Service
}

func setup(t *testing.T) *fixture {
	db := dbtest.New(t)
	clock := func() time.Time { return fixedNow }
	f := &fixture{
		db:     db,
		logs:   readinglogs.NewRepository(db.DB),
		users:  users.NewRepository(db.DB),
		mailer: &mail.RecordingMailer{},
	}
	statsSvc := stats.NewService(f.logs, progressrepo.NewRepository(db.DB), cache.Nop{}, time.Minute, nil).WithClock(clock)
	composer, err := mail.NewComposer()
	require.NoError(t, err)
	signer, err := mail.NewSigner("0123456789abcdef0123456789abcdef", "test", 0)
	require.NoError(t, err)

	f.svc = NewService(f.users, f.logs, statsSvc, streak.NewService(18), deliveries.NewRepository(db.DB),
		f.mailer, composer, signer, Options{AppName: "Daily Bread", BaseURL: "https://bread.example.com"}, nil).
		WithClock(clock)
	return f
}

func (f *fixture) read(t *testing.T, userID uint, dates ...string) {
	t.Helper()
	for _, d := range dates {
		require.NoError(t, f.logs.Create(context.Background(), &entities.ReadingLog{
			UserID: userID, BookID: 1, Chapter: 1, DateRead: d,
		}))
	}
}

func TestSendReminder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.db, "streak@example.com")
	f.read(t, user.ID, "2024-05-05", "2024-05-06", "2024-05-07")

	outcome, err := f.svc.SendReminder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "streak@example.com", sent[0].To.Email)
	assert.Equal(t, "Keep your 3-day streak going", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "3")
	assert.Contains(t, sent[0].Headers["List-Unsubscribe"], "/email/unsubscribe?token=")

	outcome, err = f.svc.SendReminder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome, "only one reminder per day")
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestSendReminder_Skips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	readToday := dbtest.CreateUser(t, f.db, "today@example.com")
	f.read(t, readToday.ID, "2024-05-08")

	optedOut := dbtest.CreateUser(t, f.db, "off@example.com")
	require.NoError(t, f.users.SetEmailReminders(ctx, optedOut.ID, false))

	for _, id := range []uint{readToday.ID, optedOut.ID} {
		outcome, err := f.svc.SendReminder(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome)
	}
	assert.Empty(t, f.mailer.Sent())

	_, err := f.svc.SendReminder(ctx, 999)
	assert.True(t, apperr.IsNotFound(err))
}

func TestSendReminder_FailureReleasesSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.db, "flaky@example.com")

	f.mailer.Err = errors.New("smtp down")
	outcome, err := f.svc.SendReminder(ctx, user.ID)
	assert.Error(t, err)
	assert.Equal(t, OutcomeFailed, outcome)

	f.mailer.Err = nil
	outcome, err = f.svc.SendReminder(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
}

func TestSendReminders_Batch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	dbtest.CreateUser(t, f.db, "a@example.com")
	b := dbtest.CreateUser(t, f.db, "b@example.com")
	dbtest.CreateUser(t, f.db, "c@example.com")
	f.read(t, b.ID, "2024-05-08")

	result, err := f.svc.SendReminders(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Sent: 2, Skipped: 1}, result)

	again, err := f.svc.SendReminders(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Skipped: 3}, again)
}

func TestSendReminders_Cancelled(t *testing.T) {
	f := setup(t)
	dbtest.CreateUser(t, f.db, "a@example.com")
	dbtest.CreateUser(t, f.db, "b@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.SendReminders(ctx, time.Hour)
	assert.Error(t, err)
}

func TestSendWeeklySummary(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.db, "weekly@example.com")
	f.read(t, user.ID, "2024-05-06", "2024-05-07")

	outcome, err := f.svc.SendWeeklySummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your week in the Word: 2 of 4 days", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "Week of 2024-05-06")

	outcome, err = f.svc.SendWeeklySummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, outcome)
}

func TestSendWelcome(t *testing.T) {
	f := setup(t)
	user := dbtest.CreateUser(t, f.db, "new@example.com")

	outcome, err := f.svc.SendWelcome(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSent, outcome)
	assert.Equal(t, "Welcome to Daily Bread", f.mailer.Sent()[0].Subject)
}

func TestUnsubscribe(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	user := dbtest.CreateUser(t, f.db, "leave@example.com")

	link, err := url.Parse(f.svc.UnsubscribeURL(user.ID))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.String(), "https://bread.example.com/email/unsubscribe"))

	got, err := f.svc.Unsubscribe(ctx, link.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.False(t, got.EmailReminders)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailReminders)

	_, err = f.svc.Unsubscribe(ctx, "not-a-token")
	assert.True(t, apperr.IsInvalidArgument(err))
}
