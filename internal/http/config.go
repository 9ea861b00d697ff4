package http

import (
	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/logger"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Application info
	AppName string
	Version string
	Logger  *logger.Logger

	// Domain services
	Books       *bible.Table
	Readings    ReadingLogger
	History     LogHistory
	Stats       StatsReader
	Streaks     StreakPresenter
	Progress    ProgressLister
	Preferences Preferences
	Email       Unsubscriber

	// Task queue (optional)
	Tasks TaskQueue

	// Health checks
	Database Pinger
	Cache    cache.Cache

	// Authentication. AuthController is nil when auth is disabled.
	AuthConfig     config.Auth
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	SessionManager *auth.SessionManager
	CSRFSecret     []byte

	CORSOrigins []string

	// UI overrides; empty means the embedded assets
	TemplatesPath string
	StaticPath    string
}
