// Package streak classifies a reader's streak into a display state and picks
// the motivational message shown on the dashboard. Nothing here touches storage;
// every value is recomputed from its inputs.
package streak

import (
	"time"
)

type State string

const (
	Inactive State = "inactive" // No current streak
	Active   State = "active"   // Streak alive, either read today or still early
	Warning  State = "warning"  // Streak alive, not read today, evening has come
)

// DefaultWarningHour is the local hour from which an unread day is a warning.
const DefaultWarningHour = 18

// Compute classifies a streak using DefaultWarningHour. now must already be in
// the reader's local time zone.
func Compute(currentStreak int, hasReadToday bool, now time.Time) State {
	return ComputeAt(currentStreak, hasReadToday, now, DefaultWarningHour)
}

// ComputeAt is Compute with an explicit warning hour.
func ComputeAt(currentStreak int, hasReadToday bool, now time.Time, warningHour int) State {
	switch {
	case currentStreak <= 0:
		return Inactive
	case hasReadToday || now.Hour() < warningHour:
		return Active
	default:
		return Warning
	}
}

// StateClasses are the CSS utility classes the streak card uses per state.
type StateClasses struct {
	Background string `json:"background"`
	Icon       string `json:"icon"`
	Opacity    string `json:"opacity"`
	Border     string `json:"border"`
	ShowIcon   bool   `json:"show_icon"`
}

var stateClasses = map[State]StateClasses{
	Inactive: {
		Background: "bg-gray-50 dark:bg-gray-800",
		Icon:       "text-gray-400",
		Opacity:    "opacity-60",
		Border:     "border-gray-200 dark:border-gray-700",
		ShowIcon:   false,
	},
	Active: {
		Background: "bg-orange-50 dark:bg-orange-900/20",
		Icon:       "text-orange-500",
		Opacity:    "opacity-100",
		Border:     "border-orange-200 dark:border-orange-800",
		ShowIcon:   true,
	},
	Warning: {
		Background: "bg-amber-50 dark:bg-amber-900/20",
		Icon:       "text-amber-500 animate-pulse",
		Opacity:    "opacity-100",
		Border:     "border-amber-300 dark:border-amber-700",
		ShowIcon:   true,
	},
}

// Classes returns the style descriptor for state. Unknown states render as inactive.
func Classes(state State) StateClasses {
	if c, ok := stateClasses[state]; ok {
		return c
	}
	return stateClasses[Inactive]
}

// Display is everything the streak card template needs.
type Display struct {
	State         State        `json:"state"`
	Classes       StateClasses `json:"classes"`
	Message       string       `json:"message"`
	CurrentStreak int          `json:"current_streak"`
	LongestStreak int          `json:"longest_streak"`
	HasReadToday  bool         `json:"has_read_today"`
}

// Service carries the configurable parts of streak presentation.
type Service struct {
	WarningHour int
	Messages    *Messages
}

// NewService returns a service using the embedded message pools.
func NewService(warningHour int) *Service {
	if warningHour < 0 || warningHour > 23 {
		warningHour = DefaultWarningHour
	}
	return &Service{WarningHour: warningHour, Messages: DefaultMessages()}
}

// Display computes state, classes and message in one call. seed distinguishes
// readers so two users do not necessarily see the same line on the same day.
func (s *Service) Display(currentStreak, longestStreak int, hasReadToday bool, now time.Time, seed string) Display {
	state := ComputeAt(currentStreak, hasReadToday, now, s.WarningHour)
	msgs := s.Messages
	if msgs == nil {
		msgs = DefaultMessages()
	}
	return Display{
		State:   state,
		Classes: Classes(state),
		Message: msgs.Select(Context{
			CurrentStreak: currentStreak,
			LongestStreak: longestStreak,
			HasReadToday:  hasReadToday,
			State:         state,
			Now:           now,
			Seed:          seed,
		}),
		CurrentStreak: currentStreak,
		LongestStreak: longestStreak,
		HasReadToday:  hasReadToday,
	}
}
