package entities

import (
	"time"
)

type User struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"size:100" json:"name"`
	Email          string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash   string     `gorm:"size:255" json:"-"`
	Timezone       string     `gorm:"size:64;default:UTC" json:"timezone"`
	WeeklyTarget   int        `gorm:"default:4" json:"weekly_target"`
	EmailReminders bool       `json:"email_reminders"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	ReadingLogs     []ReadingLog     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookProgress    []BookProgress   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Preferences     []UserPreference `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	EmailDeliveries []EmailDelivery  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// Location resolves the user's timezone, falling back to UTC for unknown zones.
func (u *User) Location() *time.Location {
	if u == nil || u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EffectiveWeeklyTarget returns the weekly reading-day goal, defaulting to 4.
func (u *User) EffectiveWeeklyTarget() int {
	if u == nil || u.WeeklyTarget <= 0 {
		return 4
	}
	if u.WeeklyTarget > 7 {
		return 7
	}
	return u.WeeklyTarget
}

// DisplayName is the name shown in greetings and emails.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
