// Package stats aggregates the dashboard numbers for a reader: totals,
// streaks and progress towards the weekly reading goal.
package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services"
)

// Stats is the dashboard summary. Dates are "YYYY-MM-DD" in the reader's zone.
type Stats struct {
	Today                 string    `json:"today"`
	TotalChapters         int64     `json:"total_chapters"`
	UniqueDays            int       `json:"unique_days"`
	CurrentStreak         int       `json:"current_streak"`
	LongestStreak         int       `json:"longest_streak"`
	HasReadToday          bool      `json:"has_read_today"`
	WeekStart             string    `json:"week_start"`
	WeeklyDays            int       `json:"weekly_days"`
	WeeklyTarget          int       `json:"weekly_target"`
	WeeklyProgressPercent float64   `json:"weekly_progress_percent"`
	WeeklyGoalMet         bool      `json:"weekly_goal_met"`
	Week                  []WeekDay `json:"week"`
	AveragePerDay         float64   `json:"average_per_day"`
	BooksStarted          int64     `json:"books_started"`
	BooksCompleted        int64     `json:"books_completed"`
	LastReadOn            string    `json:"last_read_on,omitempty"`
}

// WeekDay is one cell of the Monday-to-Sunday strip on the dashboard.
type WeekDay struct {
	Date    string `json:"date"`
	Label   string `json:"label"`
	Read    bool   `json:"read"`
	IsToday bool   `json:"is_today"`
}

type Service struct {
	logs     services.ReadingLogReader
	progress services.ProgressRepository
	cache    cache.Cache
	ttl      time.Duration
	log      *logger.Logger
	now      services.Clock
}

func NewService(
	logs services.ReadingLogReader,
	progress services.ProgressRepository,
	c cache.Cache,
	ttl time.Duration,
	log *logger.Logger,
) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		logs:     logs,
		progress: progress,
		cache:    c,
		ttl:      ttl,
		log:      log.With("service", "Stats"),
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now services.Clock) *Service {
	s.now = now
	return s
}

// keyPrefix is shared by every stats entry.
const keyPrefix = "stats:"

func userPrefix(userID uint) string {
	return fmt.Sprintf("%suser:%d:", keyPrefix, userID)
}

// CacheKey is per user and per local day, so a new day never serves yesterday's numbers.
func CacheKey(userID uint, day string) string {
	return userPrefix(userID) + day
}

// ForUser returns cached stats when available, computing and storing them otherwise.
func (s *Service) ForUser(ctx context.Context, user *entities.User) (*Stats, error) {
	today := services.LocalToday(s.now(), user.Location())
	key := CacheKey(user.ID, today)

	var cached Stats
	if ok, err := cache.GetJSON(ctx, s.cache, key, &cached); err != nil {
		s.log.Warn("stats cache read failed", "user_id", user.ID, "error", err)
	} else if ok {
		return &cached, nil
	}

	st, err := s.Compute(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, st, s.ttl); err != nil {
		s.log.Warn("stats cache write failed", "user_id", user.ID, "error", err)
	}
	return st, nil
}

// Invalidate drops every cached day for the user.
func (s *Service) Invalidate(ctx context.Context, userID uint) error {
	_, err := s.cache.DeletePrefix(ctx, userPrefix(userID))
	return err
}

// Clear drops cached stats of every user.
func (s *Service) Clear(ctx context.Context) (int, error) {
	return s.cache.DeletePrefix(ctx, keyPrefix)
}

// Warm computes and caches stats for each user, returning how many succeeded.
func (s *Service) Warm(ctx context.Context, users []entities.User) (int, error) {
	warmed := 0
	for i := range users {
		if err := ctx.Err(); err != nil {
			return warmed, err
		}
		if err := s.Invalidate(ctx, users[i].ID); err != nil {
			return warmed, err
		}
		if _, err := s.ForUser(ctx, &users[i]); err != nil {
			s.log.Error("stats warm failed", "user_id", users[i].ID, "error", err)
			continue
		}
		warmed++
	}
	return warmed, nil
}

// Compute builds fresh stats without touching the cache.
func (s *Service) Compute(ctx context.Context, user *entities.User) (*Stats, error) {
	local := s.now().In(user.Location())
	today := local.Format(entities.DateLayout)

	dates, err := s.logs.DistinctDates(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load reading dates: %w", err)
	}
	total, err := s.logs.CountForUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count reading logs: %w", err)
	}
	started, completed, err := s.progress.Counts(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count book progress: %w", err)
	}

	read := make(map[string]bool, len(dates))
	for _, d := range dates {
		read[d] = true
	}

	st := &Stats{
		Today:          today,
		TotalChapters:  total,
		UniqueDays:     len(dates),
		CurrentStreak:  CurrentStreak(dates, today),
		LongestStreak:  LongestStreak(dates),
		HasReadToday:   read[today],
		WeeklyTarget:   user.EffectiveWeeklyTarget(),
		AveragePerDay:  AveragePerDay(total, len(dates)),
		BooksStarted:   started,
		BooksCompleted: completed,
	}
	if len(dates) > 0 {
		st.LastReadOn = dates[len(dates)-1]
	}

	monday := WeekStart(local)
	st.WeekStart = monday.Format(entities.DateLayout)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i)
		key := day.Format(entities.DateLayout)
		st.Week = append(st.Week, WeekDay{
			Date:    key,
			Label:   day.Weekday().String()[:3],
			Read:    read[key],
			IsToday: key == today,
		})
		if read[key] {
			st.WeeklyDays++
		}
	}
	st.WeeklyProgressPercent = WeeklyProgress(st.WeeklyDays, st.WeeklyTarget)
	st.WeeklyGoalMet = st.WeeklyDays >= st.WeeklyTarget
	return st, nil
}

// WeekStart returns local midnight of the Monday starting t's week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeeklyProgress is days/target as a percentage, capped at 100.
func WeeklyProgress(days, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(100, round2(float64(days)/float64(target)*100))
}

// AveragePerDay is chapters per reading day, rounded to 2 decimals.
func AveragePerDay(chapters int64, days int) float64 {
	if days == 0 {
		return 0
	}
	return round2(float64(chapters) / float64(days))
}

// CurrentStreak counts consecutive days ending today or yesterday. dates must
// be ascending and distinct. A streak whose last day is before yesterday is 0.
// Dates after today (the user moved to an earlier time zone) count as today.
func CurrentStreak(dates []string, today string) int {
	if len(dates) == 0 {
		return 0
	}
	t, err := time.Parse(entities.DateLayout, today)
	if err != nil {
		return 0
	}
	yesterday := t.AddDate(0, 0, -1).Format(entities.DateLayout)

	if dates[len(dates)-1] > today {
		end := len(dates)
		for end > 0 && dates[end-1] >= today {
			end--
		}
		dates = append(dates[:end:end], today)
	}

	last := dates[len(dates)-1]
	if last != today && last != yesterday {
		return 0
	}
	streak := 1
	for i := len(dates) - 1; i > 0; i-- {
		if !consecutive(dates[i-1], dates[i]) {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive days in dates.
func LongestStreak(dates []string) int {
	if len(dates) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if consecutive(dates[i-1], dates[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func consecutive(prev, next string) bool {
	p, err := time.Parse(entities.DateLayout, prev)
	if err != nil {
		return false
	}
	return p.AddDate(0, 0, 1).Format(entities.DateLayout) == next
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
