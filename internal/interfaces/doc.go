// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ReadingLogRepository: Reading log rows (internal/services/interfaces.go)
//   - ProgressRepository: Per-book progress aggregates (internal/services/interfaces.go)
//   - UserRepository, PreferenceStore, DeliveryLog (internal/services/interfaces.go)
//   - UserStore: Accounts for sign-in (internal/auth/service.go)
//
// ## HTTP Interfaces
//
// Controllers depend on the narrow stores in internal/http/stores.go
// (ReadingLogger, LogHistory, StatsReader, StreakPresenter, ProgressLister,
// Preferences, Unsubscriber, TaskQueue, Pinger).
//
// ## Background Interfaces
//
//   - EmailSender, ProgressSyncer: Queue handlers (internal/tasks/)
//   - BatchSender, Recipients, Enqueuer: Cron jobs (internal/scheduler/reminders.go)
//
// ## Infrastructure Interfaces
//
//   - Cache: memory, Redis or no-op (internal/cache/cache.go)
//   - Mailer: log, SendGrid or recording (internal/mail/mail.go)
//
// # Adding a New Email Kind
//
//  1. Add the kind to internal/entities/email_delivery.go
//
//  2. Add a template and data struct to internal/mail/composer.go
//
//  3. Add a Send method to internal/services/notifications/service.go that
//     records the delivery before sending:
//
//     func (s *Service) SendMonthlyRecap(ctx context.Context, userID uint) (Outcome, error)
//
//  4. Route the kind in internal/tasks/send_email.go and, if it runs on a
//     schedule, add a job in internal/scheduler/reminders.go
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/plans/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Add the entity to the migration list in internal/database/database.go
//
//  4. Add compile-time check in checks.go:
//
//     var _ services.PlanStore = (*plans.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for the full list.
package interfaces
