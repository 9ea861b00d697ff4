package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/services/readings"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
)

// Each controller declares the narrow slice of a service it calls; this file
// collects them.

// ReadingLogger writes and removes reading entries.
type ReadingLogger interface {
	AllowedDates(user *entities.User) (today, yesterday string)
	LogReading(ctx context.Context, user *entities.User, in readings.LogReadingInput) (*readings.LogResult, error)
	DeleteLog(ctx context.Context, user *entities.User, id uint) error
}

// LogHistory pages through a user's entries.
type LogHistory interface {
	ForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.ReadingLog, int64, error)
	Recent(ctx context.Context, userID uint, n int) ([]entities.ReadingLog, error)
}

// StatsReader returns dashboard statistics.
type StatsReader interface {
	ForUser(ctx context.Context, user *entities.User) (*stats.Stats, error)
}

// StreakPresenter turns streak numbers into the dashboard card.
type StreakPresenter interface {
	Display(currentStreak, longestStreak int, hasReadToday bool, now time.Time, seed string) streak.Display
}

// ProgressLister lists per-book progress rows.
type ProgressLister interface {
	ForUser(ctx context.Context, userID uint) ([]entities.BookProgress, error)
}

// Preferences is the per-user key/value store.
type Preferences interface {
	GetOrDefault(ctx context.Context, userID uint, key, def string) (string, error)
	Set(ctx context.Context, userID uint, key, value string) error
}

// Unsubscriber handles one-click email opt-out.
type Unsubscriber interface {
	Unsubscribe(ctx context.Context, token string) (*entities.User, error)
}

// TaskQueue enqueues background work and reports its status.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks a dependency for the health endpoint.
type Pinger interface {
	Ping() error
}
