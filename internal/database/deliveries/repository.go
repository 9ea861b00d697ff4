// Package deliveries records which scheduled emails were sent, so a batch
// that is rerun on the same day does not email anyone twice.
package deliveries

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Record marks (user, kind, day) as sent. It returns false without error
// when the row already existed.
func (r *Repository) Record(ctx context.Context, userID uint, kind entities.EmailKind, day string) (bool, error) {
	row := entities.EmailDelivery{UserID: userID, Kind: kind, SentOn: day}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return true, nil
	}
	if database.IsUniqueViolation(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to record email delivery: %w", err)
}

// Exists reports whether (user, kind, day) was already recorded.
func (r *Repository) Exists(ctx context.Context, userID uint, kind entities.EmailKind, day string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.EmailDelivery{}).
		Where("user_id = ? AND kind = ? AND sent_on = ?", userID, kind, day).
		Count(&count).Error
	return count > 0, err
}

// Forget removes a record, used when the send itself failed after Record.
func (r *Repository) Forget(ctx context.Context, userID uint, kind entities.EmailKind, day string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND sent_on = ?", userID, kind, day).
		Delete(&entities.EmailDelivery{}).Error
}
