// Package preferences provides database operations for per-user settings.
//
// # Usage
//
//	repo := preferences.NewRepository(db)
//	value, err := repo.GetOrDefault(ctx, userID, entities.PreferenceKeyProgressTestament, "all")
package preferences

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biblehabit/tracker/internal/entities"
)

// Repository handles all preference database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new preferences repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a preference by key.
func (r *Repository) Get(ctx context.Context, userID uint, key string) (*entities.UserPreference, error) {
	var pref entities.UserPreference
	err := r.db.WithContext(ctx).Where("user_id = ? AND key = ?", userID, key).First(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetOrDefault returns the stored value, or def when the key was never set.
func (r *Repository) GetOrDefault(ctx context.Context, userID uint, key, def string) (string, error) {
	pref, err := r.Get(ctx, userID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return pref.Value, nil
}

// Set creates or updates a preference.
func (r *Repository) Set(ctx context.Context, userID uint, key, value string) error {
	pref := entities.UserPreference{UserID: userID, Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// Delete removes a preference by key.
func (r *Repository) Delete(ctx context.Context, userID uint, key string) error {
	return r.db.WithContext(ctx).Where("user_id = ? AND key = ?", userID, key).Delete(&entities.UserPreference{}).Error
}
