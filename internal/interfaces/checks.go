package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/cache"
	"github.com/biblehabit/tracker/internal/database"
	"github.com/biblehabit/tracker/internal/database/deliveries"
	"github.com/biblehabit/tracker/internal/database/preferences"
	progressrepo "github.com/biblehabit/tracker/internal/database/progress"
	"github.com/biblehabit/tracker/internal/database/readinglogs"
	"github.com/biblehabit/tracker/internal/database/users"
	httpctl "github.com/biblehabit/tracker/internal/http"
	"github.com/biblehabit/tracker/internal/mail"
	"github.com/biblehabit/tracker/internal/scheduler"
	"github.com/biblehabit/tracker/internal/services"
	"github.com/biblehabit/tracker/internal/services/notifications"
	progresssvc "github.com/biblehabit/tracker/internal/services/progress"
	"github.com/biblehabit/tracker/internal/services/readings"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
	"github.com/biblehabit/tracker/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

var _ services.ReadingLogRepository = (*readinglogs.Repository)(nil)
var _ services.ProgressRepository = (*progressrepo.Repository)(nil)
var _ services.UserRepository = (*users.Repository)(nil)
var _ services.PreferenceStore = (*preferences.Repository)(nil)
var _ services.DeliveryLog = (*deliveries.Repository)(nil)
var _ auth.UserStore = (*users.Repository)(nil)

// =============================================================================
// Services
// =============================================================================

var _ services.ProgressUpdater = (*progresssvc.Service)(nil)
var _ services.StatsInvalidator = (*stats.Service)(nil)
var _ notifications.StatsProvider = (*stats.Service)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ httpctl.ReadingLogger = (*readings.Service)(nil)
var _ httpctl.LogHistory = (*readinglogs.Repository)(nil)
var _ httpctl.StatsReader = (*stats.Service)(nil)
var _ httpctl.StreakPresenter = (*streak.Service)(nil)
var _ httpctl.ProgressLister = (*progressrepo.Repository)(nil)
var _ httpctl.Preferences = (*preferences.Repository)(nil)
var _ httpctl.Unsubscriber = (*notifications.Service)(nil)
var _ httpctl.TaskQueue = (*tasks.Client)(nil)
var _ httpctl.Pinger = (*database.Database)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.EmailSender = (*notifications.Service)(nil)
var _ tasks.ProgressSyncer = (*progresssvc.Service)(nil)
var _ scheduler.BatchSender = (*notifications.Service)(nil)
var _ scheduler.Recipients = (*users.Repository)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)

// =============================================================================
// Infrastructure
// =============================================================================

var _ cache.Cache = (*cache.Memory)(nil)
var _ cache.Cache = (*cache.Redis)(nil)
var _ cache.Cache = cache.Nop{}

var _ mail.Mailer = (*mail.LogMailer)(nil)
var _ mail.Mailer = (*mail.SendGrid)(nil)
var _ mail.Mailer = (*mail.RecordingMailer)(nil)
