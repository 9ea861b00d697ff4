package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompletionPercent(t *testing.T) {
	tests := []struct {
		read, total int
		want        float64
	}{
		{3, 50, 6.0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{50, 50, 100},
		{0, 50, 0},
		{1, 0, 0},
		{1, 150, 0.67},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CompletionPercent(tt.read, tt.total), "%d/%d", tt.read, tt.total)
	}
}

func TestBookProgress_SetChapters(t *testing.T) {
	p := BookProgress{TotalChapters: 4}

	p.SetChapters([]int{3, 1, 3, 2})
	assert.Equal(t, []int{1, 2, 3}, p.Chapters())
	assert.JSONEq(t, "[1,2,3]", string(p.ChaptersRead))
	assert.Equal(t, 75.0, p.CompletionPercent)
	assert.False(t, p.IsCompleted)
	assert.Equal(t, 3, p.ChaptersReadCount())

	p.SetChapters([]int{4, 1, 2, 3})
	assert.Equal(t, 100.0, p.CompletionPercent)
	assert.True(t, p.IsCompleted)
}

func TestBookProgress_ChaptersTolerantOfBadJSON(t *testing.T) {
	p := BookProgress{ChaptersRead: []byte("not json")}
	assert.Nil(t, p.Chapters())

	empty := BookProgress{}
	assert.Nil(t, empty.Chapters())
}

func TestUser_Location(t *testing.T) {
	u := &User{Timezone: "America/New_York"}
	assert.Equal(t, "America/New_York", u.Location().String())

	u.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, u.Location())

	var nilUser *User
	assert.Equal(t, time.UTC, nilUser.Location())
}

func TestUser_EffectiveWeeklyTarget(t *testing.T) {
	assert.Equal(t, 4, (&User{}).EffectiveWeeklyTarget())
	assert.Equal(t, 5, (&User{WeeklyTarget: 5}).EffectiveWeeklyTarget())
	assert.Equal(t, 7, (&User{WeeklyTarget: 12}).EffectiveWeeklyTarget())
}

func TestReadingLog_Date(t *testing.T) {
	log := ReadingLog{DateRead: "2024-03-09"}
	d, err := log.Date()
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-09", FormatDate(d))
}
