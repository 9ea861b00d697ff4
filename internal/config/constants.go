package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./bible-tracker.db"

	// DefaultTimezone is assigned to users that never picked one
	DefaultTimezone = "UTC"

	// DefaultWeeklyTarget is the number of reading days per week a user aims for
	DefaultWeeklyTarget = 4

	// DefaultWarningHour is the local hour after which an unread day is flagged
	DefaultWarningHour = 18
)
