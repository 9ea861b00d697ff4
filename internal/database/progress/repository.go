// Package progress provides database operations for per-book reading progress.
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	err := repo.Upsert(ctx, &entities.BookProgress{UserID: 1, BookID: 1, ...})
package progress

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biblehabit/tracker/internal/entities"
)

// Repository handles all book progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the progress row for (user, book), or nil when none exists yet.
func (r *Repository) Get(ctx context.Context, userID uint, bookID int) (*entities.BookProgress, error) {
	var p entities.BookProgress
	err := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ForUser returns every progress row of a user ordered by book.
func (r *Repository) ForUser(ctx context.Context, userID uint) ([]entities.BookProgress, error) {
	var rows []entities.BookProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("book_id ASC").Find(&rows).Error
	return rows, err
}

// Upsert writes the row in a single statement keyed on (user_id, book_id).
func (r *Repository) Upsert(ctx context.Context, p *entities.BookProgress) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"book_name",
			"total_chapters",
			"chapters_read",
			"completion_percent",
			"is_completed",
			"last_updated",
		}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("failed to upsert book progress: %w", err)
	}
	return nil
}

// DeleteForUser removes all progress rows of a user.
func (r *Repository) DeleteForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.BookProgress{}).Error
}

// Counts returns how many books the user has started and completed. A row
// left at 0% after its last log was deleted does not count as started.
func (r *Repository) Counts(ctx context.Context, userID uint) (started, completed int64, err error) {
	q := r.db.WithContext(ctx).Model(&entities.BookProgress{}).
		Where("user_id = ? AND completion_percent > ?", userID, 0)
	if err = q.Count(&started).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&entities.BookProgress{}).
		Where("user_id = ? AND is_completed = ?", userID, true).
		Count(&completed).Error
	return started, completed, err
}
