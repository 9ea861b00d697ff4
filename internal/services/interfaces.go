// Package services holds the business logic between HTTP/CLI and the
// repositories. Subpackages depend on the narrow interfaces declared here
// rather than on concrete gorm repositories.
package services

import (
	"context"
	"time"

	"github.com/biblehabit/tracker/internal/entities"
)

// ReadingLogReader provides read-only access to reading logs.
type ReadingLogReader interface {
	GetByID(ctx context.Context, id uint) (*entities.ReadingLog, error)
	ForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.ReadingLog, int64, error)
	AllForUser(ctx context.Context, userID uint) ([]entities.ReadingLog, error)
	InDateRange(ctx context.Context, userID uint, from, to string) ([]entities.ReadingLog, error)
	ForBook(ctx context.Context, userID uint, bookID int) ([]entities.ReadingLog, error)
	ChaptersForBook(ctx context.Context, userID uint, bookID int) ([]int, error)
	DistinctDates(ctx context.Context, userID uint) ([]string, error)
	CountForUser(ctx context.Context, userID uint) (int64, error)
	HasReadOn(ctx context.Context, userID uint, date string) (bool, error)
	Recent(ctx context.Context, userID uint, n int) ([]entities.ReadingLog, error)
}

// ReadingLogRepository adds writes to ReadingLogReader.
type ReadingLogRepository interface {
	ReadingLogReader
	Create(ctx context.Context, log *entities.ReadingLog) error
	Delete(ctx context.Context, id, userID uint) error
}

// ProgressRepository persists per-book progress aggregates.
type ProgressRepository interface {
	Get(ctx context.Context, userID uint, bookID int) (*entities.BookProgress, error)
	ForUser(ctx context.Context, userID uint) ([]entities.BookProgress, error)
	Upsert(ctx context.Context, p *entities.BookProgress) error
	Counts(ctx context.Context, userID uint) (started, completed int64, err error)
}

// UserReader looks up accounts.
type UserReader interface {
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	All(ctx context.Context) ([]entities.User, error)
	WithRemindersEnabled(ctx context.Context) ([]entities.User, error)
}

// UserRepository adds the writes notification flows need.
type UserRepository interface {
	UserReader
	SetEmailReminders(ctx context.Context, id uint, enabled bool) error
}

// PreferenceStore is a per-user key/value store.
type PreferenceStore interface {
	GetOrDefault(ctx context.Context, userID uint, key, def string) (string, error)
	Set(ctx context.Context, userID uint, key, value string) error
}

// DeliveryLog remembers which scheduled emails went out.
type DeliveryLog interface {
	Record(ctx context.Context, userID uint, kind entities.EmailKind, day string) (bool, error)
	Forget(ctx context.Context, userID uint, kind entities.EmailKind, day string) error
}

// ProgressUpdater recomputes a single book's progress after a write.
type ProgressUpdater interface {
	UpdateForBook(ctx context.Context, userID uint, bookID int) (*entities.BookProgress, error)
}

// StatsInvalidator drops cached statistics for a user.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

// LocalToday returns the calendar day in loc as "YYYY-MM-DD".
func LocalToday(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(entities.DateLayout)
}
