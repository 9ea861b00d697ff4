package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single default reader, no login (default)
	AuthModeLocal AuthMode = "local" // Local accounts with sessions
)

type DatabaseDriver string

const (
	DriverSQLite   DatabaseDriver = "sqlite"
	DriverPostgres DatabaseDriver = "postgres"
)

type (
	Config struct {
		HTTP
		Global
		App
		Database
		UI
		CORS
		Tasks
		Auth
		Mail
		Cache
		Reminders
		Log
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	App struct {
		Name                string
		BaseURL             string
		Timezone            string // Default IANA zone for new users
		WeeklyTargetDefault int    // Days per week a new user aims to read
		WarningHour         int    // Local hour from which an unread day turns into a warning
	}
	Database struct {
		Driver   DatabaseDriver
		Path     string // sqlite file
		DSN      string // postgres connection string
		LogLevel string // silent, error, warn, info
	}
	UI struct {
		TemplatesPath string // Optional override of the embedded templates
		StaticPath    string
	}
	CORS struct {
		AllowedOrigins []string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Login rate limiting
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}
	Mail struct {
		Driver        string // log or sendgrid
		SendGridKey   string
		SendGridURL   string
		FromEmail     string
		FromName      string
		SendDelay     time.Duration // Pause between messages in batch sends
		SigningSecret string        // Signs unsubscribe links
	}
	Cache struct {
		Driver        string // memory, redis or none
		RedisAddr     string
		RedisPassword string
		RedisDB       int
		TTL           time.Duration
	}
	Reminders struct {
		Enabled               bool
		Schedule              string // Cron format: "0 18 * * *" = daily at 18:00
		WeeklySummarySchedule string // Cron format: "0 8 * * 1" = Mondays at 08:00
	}
	Log struct {
		Mode string // dev or prod
	}
)

// LoadDotEnv loads a .env file into the process environment when one exists.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("app_name", "Daily Bread")
	v.SetDefault("app_base_url", "http://localhost:8080")
	v.SetDefault("app_timezone", DefaultTimezone)
	v.SetDefault("weekly_target_default", DefaultWeeklyTarget)
	v.SetDefault("warning_hour", DefaultWarningHour)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")
	v.SetDefault("database_log_level", "warn")

	v.SetDefault("templates_path", "")
	v.SetDefault("static_path", "")
	v.SetDefault("cors_allowed_origins", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "2m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "720h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Mail defaults
	v.SetDefault("mail_driver", "log")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("sendgrid_base_url", "https://api.sendgrid.com")
	v.SetDefault("mail_from_email", "reminders@localhost")
	v.SetDefault("mail_from_name", "Daily Bread")
	v.SetDefault("mail_send_delay", "1s")
	v.SetDefault("mail_signing_secret", "")

	// Cache defaults
	v.SetDefault("cache_driver", "memory")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("cache_ttl", "10m")

	v.SetDefault("reminders_enabled", false)
	v.SetDefault("reminder_schedule", "0 18 * * *")
	v.SetDefault("weekly_summary_schedule", "0 8 * * 1")

	v.SetDefault("log_mode", "dev")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		App: App{
			Name:                v.GetString("APP_NAME"),
			BaseURL:             strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
			Timezone:            v.GetString("APP_TIMEZONE"),
			WeeklyTargetDefault: v.GetInt("WEEKLY_TARGET_DEFAULT"),
			WarningHour:         v.GetInt("WARNING_HOUR"),
		},
		Database: Database{
			Driver:   DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Mail: Mail{
			Driver:        strings.ToLower(v.GetString("MAIL_DRIVER")),
			SendGridKey:   v.GetString("SENDGRID_API_KEY"),
			SendGridURL:   v.GetString("SENDGRID_BASE_URL"),
			FromEmail:     v.GetString("MAIL_FROM_EMAIL"),
			FromName:      v.GetString("MAIL_FROM_NAME"),
			SendDelay:     v.GetDuration("MAIL_SEND_DELAY"),
			SigningSecret: v.GetString("MAIL_SIGNING_SECRET"),
		},
		Cache: Cache{
			Driver:        strings.ToLower(v.GetString("CACHE_DRIVER")),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("CACHE_TTL"),
		},
		Reminders: Reminders{
			Enabled:               v.GetBool("REMINDERS_ENABLED"),
			Schedule:              v.GetString("REMINDER_SCHEDULE"),
			WeeklySummarySchedule: v.GetString("WEEKLY_SUMMARY_SCHEDULE"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
