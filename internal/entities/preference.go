package entities

import (
	"time"
)

// UserPreference is a per-user key/value setting.
type UserPreference struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_preference_key,priority:1" json:"user_id"`
	Key       string    `gorm:"size:100;not null;uniqueIndex:idx_user_preference_key,priority:2" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPreference) TableName() string {
	return "user_preferences"
}

// Known preference keys
const (
	// Testament filter on the progress grid: all, old or new
	PreferenceKeyProgressTestament = "progress_testament"
)
