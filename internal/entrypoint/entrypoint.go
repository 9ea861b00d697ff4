package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/entities"
	http_controllers "github.com/biblehabit/tracker/internal/http"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/scheduler"
	"github.com/biblehabit/tracker/internal/tasks"
)

// Run serves HTTP until ctx is cancelled, running the task queue and the
// email scheduler alongside. All of them are stopped before it returns.
func Run(ctx context.Context, cfg *config.Config, version string, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	log.Info("Starting", "app", cfg.App.Name, "version", version)

	app, err := NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("Error closing application", "error", err)
		}
	}()

	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks), log)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error("Error closing task client", "error", err)
			}
		}()
		taskClient.Register(
			tasks.NewSendEmailQueue(app.Notifications, log),
			tasks.NewSyncProgressQueue(app.ProgressSync, log),
		)
	}

	// Sessions back flash messages in every mode, so they always exist.
	sessionManager, err := newSessionManager(app)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	routerCfg := http_controllers.RouterConfig{
		AppName:        cfg.App.Name,
		Version:        version,
		Logger:         log,
		Books:          app.Books,
		Readings:       app.Readings,
		History:        app.Logs,
		Stats:          app.Stats,
		Streaks:        app.Streaks,
		Progress:       app.Progress,
		Preferences:    app.Preferences,
		Email:          app.Notifications,
		Database:       app.DB,
		Cache:          app.Cache,
		AuthConfig:     cfg.Auth,
		SessionManager: sessionManager,
		CORSOrigins:    cfg.CORS.AllowedOrigins,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
	}
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Info("Authentication mode: local")

		secret, err := csrfSecret(cfg.Auth.SessionSecret)
		if err != nil {
			return err
		}
		if cfg.Auth.SessionSecret == "" {
			log.Info("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}
		routerCfg.CSRFSecret = secret
		routerCfg.AuthMiddleware = auth.NewMiddleware(app.Auth, sessionManager, cfg.Auth, nil)

		controller := auth.NewAuthController(app.Auth, sessionManager, http_controllers.RenderHTML, cfg.Auth)
		defer controller.Stop()
		routerCfg.AuthController = controller

		app.Auth.OnRegister(welcomeHook(app, taskClient, log))

		if hasUsers, _ := app.Auth.HasUsers(ctx); !hasUsers {
			log.Info("No users found. Visit /register to create the first account.")
		}
	} else {
		log.Info("Authentication mode: none (single reader, no login)")
		user, err := app.Auth.EnsureDefaultUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to ensure default user: %w", err)
		}
		routerCfg.AuthMiddleware = auth.NewMiddleware(app.Auth, sessionManager, cfg.Auth, user)
	}

	var reminders *scheduler.ReminderScheduler
	if cfg.Reminders.Enabled {
		var queue scheduler.Enqueuer
		if taskClient != nil {
			queue = taskClient
		}
		reminders = scheduler.NewReminderScheduler(scheduler.Options{
			ReminderSchedule:      cfg.Reminders.Schedule,
			WeeklySummarySchedule: cfg.Reminders.WeeklySummarySchedule,
			SendDelay:             cfg.Mail.SendDelay,
		}, app.Notifications, app.Users, queue, log)
	}

	router := http_controllers.NewRouter(routerCfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if reminders != nil {
		if err := reminders.Start(gctx); err != nil {
			return fmt.Errorf("failed to start reminder scheduler: %w", err)
		}
	}
	if taskClient != nil {
		taskClient.Start(gctx)
	}

	g.Go(func() error {
		log.Info("Starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
		log.Info("Shutting down", "timeout", timeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if reminders != nil {
			reminders.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Server exiting")
	return nil
}

// newSessionManager keeps sessions in the application database when it is
// SQLite and in memory otherwise.
func newSessionManager(app *App) (*auth.SessionManager, error) {
	if app.Config.Database.Driver == config.DriverPostgres {
		return auth.NewSessionManager(nil, app.Config.Auth)
	}
	sqlDB, err := app.DB.DB.DB()
	if err != nil {
		return nil, err
	}
	return auth.NewSessionManager(sqlDB, app.Config.Auth)
}

// csrfSecret decodes a hex secret, accepts any other string as raw bytes and
// generates a fresh one when empty.
func csrfSecret(configured string) ([]byte, error) {
	if configured == "" {
		generated, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
		}
		configured = generated
	}
	if secret, err := hex.DecodeString(configured); err == nil && len(secret) >= 32 {
		return secret[:32], nil
	}
	raw := []byte(configured)
	if len(raw) < 32 {
		return nil, fmt.Errorf("AUTH_SESSION_SECRET must be at least 32 bytes")
	}
	return raw[:32], nil
}

// welcomeHook sends the welcome email after sign-up, through the queue when
// one is running.
func welcomeHook(app *App, taskClient *tasks.Client, log *logger.Logger) func(context.Context, *entities.User) {
	return func(ctx context.Context, user *entities.User) {
		if taskClient != nil {
			if _, err := taskClient.Enqueue(ctx, tasks.SendEmailTask{UserID: user.ID, Kind: entities.EmailKindWelcome}); err != nil {
				log.Error("Failed to enqueue welcome email", "user_id", user.ID, "error", err)
			}
			return
		}
		go func() {
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := app.Notifications.SendWelcome(sendCtx, user.ID); err != nil {
				log.Error("Failed to send welcome email", "user_id", user.ID, "error", err)
			}
		}()
	}
}
