package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services/notifications"
	"github.com/biblehabit/tracker/internal/services/progress"
)

type fakeSender struct {
	calls []string
	err   error
}

func (f *fakeSender) record(kind string, userID uint) (notifications.Outcome, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return notifications.OutcomeFailed, f.err
	}
	return notifications.OutcomeSent, nil
}

func (f *fakeSender) SendWelcome(_ context.Context, userID uint) (notifications.Outcome, error) {
	return f.record("welcome", userID)
}

func (f *fakeSender) SendReminder(_ context.Context, userID uint) (notifications.Outcome, error) {
	return f.record("reminder", userID)
}

func (f *fakeSender) SendWeeklySummary(_ context.Context, userID uint) (notifications.Outcome, error) {
	return f.record("weekly", userID)
}

func TestSendEmailTaskConfig(t *testing.T) {
	cfg := SendEmailTask{UserID: 1, Kind: entities.EmailKindReminder}.Config()

	assert.Equal(t, "send_email", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Backoff)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestSendEmailProcessor(t *testing.T) {
	tests := []struct {
		name     string
		task     SendEmailTask
		wantCall string
		wantErr  bool
	}{
		{"welcome", SendEmailTask{UserID: 1, Kind: entities.EmailKindWelcome}, "welcome", false},
		{"reminder", SendEmailTask{UserID: 1, Kind: entities.EmailKindReminder}, "reminder", false},
		{"weekly summary", SendEmailTask{UserID: 1, Kind: entities.EmailKindWeeklySummary}, "weekly", false},
		{"unknown kind", SendEmailTask{UserID: 1, Kind: "newsletter"}, "", true},
		{"missing user", SendEmailTask{Kind: entities.EmailKindReminder}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			err := SendEmailProcessor(sender, logger.Nop())(context.Background(), tt.task)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, sender.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantCall}, sender.calls)
		})
	}
}

func TestSendEmailProcessor_PropagatesFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	err := SendEmailProcessor(sender, nil)(context.Background(), SendEmailTask{UserID: 3, Kind: entities.EmailKindReminder})
	assert.ErrorContains(t, err, "smtp down")
}

func TestSendEmailProcessor_NilSender(t *testing.T) {
	err := SendEmailProcessor(nil, nil)(context.Background(), SendEmailTask{UserID: 1, Kind: entities.EmailKindWelcome})
	assert.Error(t, err)
}

type fakeSyncer struct {
	userCalls []uint
	allCalls  int
	err       error
}

func (f *fakeSyncer) SyncForUser(_ context.Context, userID uint) (progress.UserSyncResult, error) {
	f.userCalls = append(f.userCalls, userID)
	return progress.UserSyncResult{ProcessedLogs: 3, UpdatedBooks: 1}, f.err
}

func (f *fakeSyncer) SyncForAllUsers(_ context.Context) (progress.AllSyncResult, error) {
	f.allCalls++
	return progress.AllSyncResult{UsersProcessed: 2}, f.err
}

func TestSyncProgressProcessor(t *testing.T) {
	t.Run("single user", func(t *testing.T) {
		syncer := &fakeSyncer{}
		require.NoError(t, SyncProgressProcessor(syncer, nil)(context.Background(), SyncProgressTask{UserID: 9}))
		assert.Equal(t, []uint{9}, syncer.userCalls)
		assert.Zero(t, syncer.allCalls)
	})

	t.Run("all users when id is zero", func(t *testing.T) {
		syncer := &fakeSyncer{}
		require.NoError(t, SyncProgressProcessor(syncer, logger.Nop())(context.Background(), SyncProgressTask{}))
		assert.Empty(t, syncer.userCalls)
		assert.Equal(t, 1, syncer.allCalls)
	})

	t.Run("error is wrapped", func(t *testing.T) {
		syncer := &fakeSyncer{err: errors.New("locked")}
		err := SyncProgressProcessor(syncer, nil)(context.Background(), SyncProgressTask{UserID: 1})
		assert.ErrorContains(t, err, "locked")
	})
}

func TestSyncProgressTaskConfig(t *testing.T) {
	cfg := SyncProgressTask{}.Config()

	assert.Equal(t, "sync_progress", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Timeout)
}
