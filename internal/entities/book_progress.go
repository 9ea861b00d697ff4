package entities

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// BookProgress aggregates which chapters of one book a user has read.
type BookProgress struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UserID            uint           `gorm:"not null;uniqueIndex:idx_book_progress_user_book,priority:1" json:"user_id"`
	BookID            int            `gorm:"not null;uniqueIndex:idx_book_progress_user_book,priority:2" json:"book_id"`
	BookName          string         `gorm:"size:64" json:"book_name"`
	TotalChapters     int            `json:"total_chapters"`
	ChaptersRead      datatypes.JSON `json:"chapters_read"`
	CompletionPercent float64        `json:"completion_percent"`
	IsCompleted       bool           `gorm:"index" json:"is_completed"`
	LastUpdated       time.Time      `json:"last_updated"`
}

func (BookProgress) TableName() string {
	return "book_progress"
}

// Chapters decodes ChaptersRead. A missing or malformed value reads as empty.
func (p *BookProgress) Chapters() []int {
	if len(p.ChaptersRead) == 0 {
		return nil
	}
	var out []int
	if err := json.Unmarshal(p.ChaptersRead, &out); err != nil {
		return nil
	}
	return out
}

// SetChapters stores the distinct chapters in ascending order and recomputes
// CompletionPercent and IsCompleted from them.
func (p *BookProgress) SetChapters(chapters []int) {
	seen := make(map[int]struct{}, len(chapters))
	distinct := make([]int, 0, len(chapters))
	for _, c := range chapters {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		distinct = append(distinct, c)
	}
	sort.Ints(distinct)

	raw, _ := json.Marshal(distinct)
	p.ChaptersRead = datatypes.JSON(raw)
	p.CompletionPercent = CompletionPercent(len(distinct), p.TotalChapters)
	p.IsCompleted = p.CompletionPercent >= 100
}

// ChaptersReadCount is the number of distinct chapters recorded.
func (p *BookProgress) ChaptersReadCount() int {
	return len(p.Chapters())
}

// CompletionPercent is round(read/total*100, 2). A book with no chapters is 0%.
func CompletionPercent(read, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(read)/float64(total)*100*100) / 100
}
