package entrypoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/database/deliveries"
	"github.com/biblehabit/tracker/internal/database/preferences"
	progressrepo "github.com/biblehabit/tracker/internal/database/progress"
	"github.com/biblehabit/tracker/internal/database/readinglogs"
	"github.com/biblehabit/tracker/internal/database/users"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/mail"
	"github.com/biblehabit/tracker/internal/services/notifications"
	progresssvc "github.com/biblehabit/tracker/internal/services/progress"
	"github.com/biblehabit/tracker/internal/services/readings"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
)

// unsubscribeLinkTTL bounds how long a link in an email keeps working.
const unsubscribeLinkTTL = 90 * 24 * time.Hour

// App holds every long-lived component. The server and the console commands
// build it the same way.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	DB    *database.Database
	Cache cache.Cache
	Books *bible.Table

	Users       *users.Repository
	Logs        *readinglogs.Repository
	Progress    *progressrepo.Repository
	Preferences *preferences.Repository
	Deliveries  *deliveries.Repository

	Streaks       *streak.Service
	Stats         *stats.Service
	ProgressSync  *progresssvc.Service
	Readings      *readings.Service
	Notifications *notifications.Service
	Auth          *auth.Service
}

// NewApp opens the database and cache and wires the services on top.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	c, err := cache.New(cfg.Cache, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	mailer, err := mail.New(cfg.Mail, log)
	if err != nil {
		_ = c.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	composer, err := mail.NewComposer()
	if err != nil {
		_ = c.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	app := &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		Cache:       c,
		Books:       bible.Default(),
		Users:       users.NewRepository(db.DB),
		Logs:        readinglogs.NewRepository(db.DB),
		Progress:    progressrepo.NewRepository(db.DB),
		Preferences: preferences.NewRepository(db.DB),
		Deliveries:  deliveries.NewRepository(db.DB),
		Streaks:     streak.NewService(cfg.App.WarningHour),
	}

	app.Stats = stats.NewService(app.Logs, app.Progress, c, cfg.Cache.TTL, log)
	app.ProgressSync = progresssvc.NewService(app.Logs, app.Progress, app.Users, app.Books, log)
	app.Readings = readings.NewService(app.Logs, app.ProgressSync, app.Stats, app.Books, log)
	app.Notifications = notifications.NewService(
		app.Users,
		app.Logs,
		app.Stats,
		app.Streaks,
		app.Deliveries,
		mailer,
		composer,
		newSigner(cfg, log),
		notifications.Options{AppName: cfg.App.Name, BaseURL: cfg.App.BaseURL},
		log,
	)
	app.Auth = auth.NewService(app.Users, cfg.Auth, auth.UserDefaults{
		Timezone:       cfg.App.Timezone,
		WeeklyTarget:   cfg.App.WeeklyTargetDefault,
		EmailReminders: cfg.Reminders.Enabled,
	}, log)

	return app, nil
}

// newSigner prefers the mail signing secret and falls back to the session
// secret. Without either, emails go out without an unsubscribe link.
func newSigner(cfg *config.Config, log *logger.Logger) *mail.Signer {
	secret := cfg.Mail.SigningSecret
	if secret == "" {
		secret = cfg.Auth.SessionSecret
	}
	if secret == "" {
		log.Warn("MAIL_SIGNING_SECRET is not set; emails will not carry unsubscribe links")
		return nil
	}
	signer, err := mail.NewSigner(secret, cfg.App.Name, unsubscribeLinkTTL)
	if err != nil {
		log.Warn("Unsubscribe links disabled", "error", err)
		return nil
	}
	return signer
}

// Close releases the cache and the database.
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), a.DB.Close())
}
