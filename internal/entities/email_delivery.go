package entities

import (
	"time"
)

type EmailKind string

const (
	EmailKindWelcome       EmailKind = "welcome"
	EmailKindReminder      EmailKind = "daily_reminder"
	EmailKindWeeklySummary EmailKind = "weekly_summary"
)

// EmailDelivery records that a scheduled email went out, one per user, kind and day.
type EmailDelivery struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_email_delivery_unique,priority:1" json:"user_id"`
	Kind      EmailKind `gorm:"size:32;not null;uniqueIndex:idx_email_delivery_unique,priority:2" json:"kind"`
	SentOn    string    `gorm:"size:10;not null;uniqueIndex:idx_email_delivery_unique,priority:3" json:"sent_on"`
	CreatedAt time.Time `json:"created_at"`
}

func (EmailDelivery) TableName() string {
	return "email_deliveries"
}
