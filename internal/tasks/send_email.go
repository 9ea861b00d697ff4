package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services/notifications"
)

// EmailSender delivers a single email of each kind to one user.
type EmailSender interface {
	SendWelcome(ctx context.Context, userID uint) (notifications.Outcome, error)
	SendReminder(ctx context.Context, userID uint) (notifications.Outcome, error)
	SendWeeklySummary(ctx context.Context, userID uint) (notifications.Outcome, error)
}

// SendEmailTask sends one email to one user. Delivery is idempotent per
// user, kind and day, so retries never duplicate a message.
type SendEmailTask struct {
	UserID uint               `json:"user_id"`
	Kind   entities.EmailKind `json:"kind"`
}

// Config returns the queue configuration for email tasks.
func (t SendEmailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "send_email",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     30 * time.Second,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// SendEmailProcessor creates a processor function for SendEmailTask.
func SendEmailProcessor(sender EmailSender, log *logger.Logger) backlite.QueueProcessor[SendEmailTask] {
	return func(ctx context.Context, task SendEmailTask) error {
		if sender == nil {
			return fmt.Errorf("email sender not configured")
		}
		if task.UserID == 0 {
			return fmt.Errorf("send email: missing user id")
		}

		var (
			outcome notifications.Outcome
			err     error
		)
		switch task.Kind {
		case entities.EmailKindWelcome:
			outcome, err = sender.SendWelcome(ctx, task.UserID)
		case entities.EmailKindReminder:
			outcome, err = sender.SendReminder(ctx, task.UserID)
		case entities.EmailKindWeeklySummary:
			outcome, err = sender.SendWeeklySummary(ctx, task.UserID)
		default:
			return fmt.Errorf("send email: unknown kind %q", task.Kind)
		}
		if err != nil {
			return fmt.Errorf("send %s to user %d: %w", task.Kind, task.UserID, err)
		}

		if log != nil {
			log.Info("email task finished", "user_id", task.UserID, "kind", task.Kind, "outcome", outcome)
		}
		return nil
	}
}

// NewSendEmailQueue creates a backlite queue for email tasks.
func NewSendEmailQueue(sender EmailSender, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(SendEmailProcessor(sender, log))
}
