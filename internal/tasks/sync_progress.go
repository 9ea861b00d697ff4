package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services/progress"
)

// ProgressSyncer rebuilds book progress from the reading logs.
type ProgressSyncer interface {
	SyncForUser(ctx context.Context, userID uint) (progress.UserSyncResult, error)
	SyncForAllUsers(ctx context.Context) (progress.AllSyncResult, error)
}

// SyncProgressTask recomputes progress for one user, or for every user
// with reading logs when UserID is zero.
type SyncProgressTask struct {
	UserID uint `json:"user_id,omitempty"`
}

// Config returns the queue configuration for progress sync tasks.
func (t SyncProgressTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sync_progress",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SyncProgressProcessor creates a processor function for SyncProgressTask.
func SyncProgressProcessor(syncer ProgressSyncer, log *logger.Logger) backlite.QueueProcessor[SyncProgressTask] {
	if log == nil {
		log = logger.Nop()
	}
	return func(ctx context.Context, task SyncProgressTask) error {
		if syncer == nil {
			return fmt.Errorf("progress syncer not configured")
		}

		if task.UserID != 0 {
			res, err := syncer.SyncForUser(ctx, task.UserID)
			if err != nil {
				return fmt.Errorf("sync progress for user %d: %w", task.UserID, err)
			}
			log.Info("progress synced", "user_id", task.UserID, "logs", res.ProcessedLogs, "books", res.UpdatedBooks)
			return nil
		}

		res, err := syncer.SyncForAllUsers(ctx)
		if err != nil {
			return fmt.Errorf("sync progress for all users: %w", err)
		}
		log.Info("progress synced for all users",
			"users", res.UsersProcessed,
			"logs", res.TotalLogsProcessed,
			"books", res.TotalBooksUpdated,
		)
		return nil
	}
}

// NewSyncProgressQueue creates a backlite queue for progress sync tasks.
func NewSyncProgressQueue(syncer ProgressSyncer, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(SyncProgressProcessor(syncer, log))
}
