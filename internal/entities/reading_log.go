package entities

import (
	"time"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// MaxNotesLength caps the free-text note attached to a reading.
const MaxNotesLength = 500

// ReadingLog is one chapter read by a user on a calendar day. Rows are never
// updated; (user, book, chapter, date) is unique.
type ReadingLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_reading_log_unique,priority:1" json:"user_id"`
	BookID      int       `gorm:"not null;index;uniqueIndex:idx_reading_log_unique,priority:2" json:"book_id"`
	Chapter     int       `gorm:"not null;uniqueIndex:idx_reading_log_unique,priority:3" json:"chapter"`
	DateRead    string    `gorm:"size:10;not null;index;uniqueIndex:idx_reading_log_unique,priority:4" json:"date_read"`
	PassageText string    `gorm:"size:100" json:"passage_text"`
	NotesText   string    `gorm:"size:500" json:"notes_text,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ReadingLog) TableName() string {
	return "reading_logs"
}

// Date parses DateRead in UTC. Callers treat it as a civil date.
func (r ReadingLog) Date() (time.Time, error) {
	return time.Parse(DateLayout, r.DateRead)
}

// FormatDate renders a time as a civil date in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
