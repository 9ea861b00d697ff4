// Package readinglogs provides database operations for reading log entries.
//
// # Usage
//
//	repo := readinglogs.NewRepository(db)
//	logs, err := repo.InDateRange(userID, "2024-01-01", "2024-01-07")
package readinglogs

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/entities"
)

// ErrDuplicate is returned by Create when the (user, book, chapter, date) row exists.
var ErrDuplicate = errors.New("reading log already exists")

// Repository handles all reading log database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading logs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a single row in its own statement. A uniqueness failure is
// reported as ErrDuplicate (wrapping the driver error); other errors pass through.
func (r *Repository) Create(ctx context.Context, log *entities.ReadingLog) error {
	err := r.db.WithContext(ctx).Create(log).Error
	if err == nil {
		return nil
	}
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return fmt.Errorf("failed to create reading log: %w", err)
}

// GetByID retrieves a reading log by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.ReadingLog, error) {
	var log entities.ReadingLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// Delete removes a log only when it belongs to userID. Returns
// gorm.ErrRecordNotFound when nothing matched.
func (r *Repository) Delete(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.ReadingLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete reading log: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ForUser returns a page of the user's logs, newest day first.
func (r *Repository) ForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.ReadingLog, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&entities.ReadingLog{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []entities.ReadingLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_read DESC, book_id ASC, chapter ASC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error
	return logs, total, err
}

// AllForUser returns every log of the user in chronological order.
func (r *Repository) AllForUser(ctx context.Context, userID uint) ([]entities.ReadingLog, error) {
	var logs []entities.ReadingLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_read ASC, book_id ASC, chapter ASC").
		Find(&logs).Error
	return logs, err
}

// InDateRange returns logs with from <= date_read <= to (both "YYYY-MM-DD").
func (r *Repository) InDateRange(ctx context.Context, userID uint, from, to string) ([]entities.ReadingLog, error) {
	var logs []entities.ReadingLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND date_read >= ? AND date_read <= ?", userID, from, to).
		Order("date_read ASC, book_id ASC, chapter ASC").
		Find(&logs).Error
	return logs, err
}

// ForBook returns the user's logs for one book.
func (r *Repository) ForBook(ctx context.Context, userID uint, bookID int) ([]entities.ReadingLog, error) {
	var logs []entities.ReadingLog
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("chapter ASC, date_read ASC").
		Find(&logs).Error
	return logs, err
}

// ChaptersForBook returns the distinct chapters the user has logged for a book.
func (r *Repository) ChaptersForBook(ctx context.Context, userID uint, bookID int) ([]int, error) {
	var chapters []int
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingLog{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Distinct().
		Order("chapter ASC").
		Pluck("chapter", &chapters).Error
	return chapters, err
}

// DistinctDates returns every day the user logged something, ascending.
func (r *Repository) DistinctDates(ctx context.Context, userID uint) ([]string, error) {
	var dates []string
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingLog{}).
		Where("user_id = ?", userID).
		Distinct().
		Order("date_read ASC").
		Pluck("date_read", &dates).Error
	return dates, err
}

// CountForUser returns the number of chapter rows the user logged.
func (r *Repository) CountForUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.ReadingLog{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// HasReadOn reports whether the user logged anything on date.
func (r *Repository) HasReadOn(ctx context.Context, userID uint, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingLog{}).
		Where("user_id = ? AND date_read = ?", userID, date).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Recent returns the user's n most recently created logs.
func (r *Repository) Recent(ctx context.Context, userID uint, n int) ([]entities.ReadingLog, error) {
	var logs []entities.ReadingLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date_read DESC, created_at DESC, id DESC").
		Limit(n).
		Find(&logs).Error
	return logs, err
}

// UsersWithLogs returns the ids of users that have at least one log.
func (r *Repository) UsersWithLogs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&entities.ReadingLog{}).
		Distinct().
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
