// Package scheduler runs the periodic email jobs: the daily reading reminder
// and the weekly summary.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services/notifications"
	"github.com/biblehabit/tracker/internal/tasks"
)

// Job names a scheduled email run.
type Job string

const (
	JobReminders     Job = "daily_reminders"
	JobWeeklySummary Job = "weekly_summary"
)

// ErrJobRunning is returned by RunNow when the same job is already in progress.
var ErrJobRunning = errors.New("job already running")

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// NextRun returns the first activation of expr after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from), nil
}

// BatchSender sends an email kind to every eligible user.
type BatchSender interface {
	SendReminders(ctx context.Context, delay time.Duration) (notifications.BatchResult, error)
	SendWeeklySummaries(ctx context.Context, delay time.Duration) (notifications.BatchResult, error)
}

// Recipients lists users that accept scheduled email.
type Recipients interface {
	WithRemindersEnabled(ctx context.Context) ([]entities.User, error)
}

// Enqueuer saves a background task.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Options configure the scheduler. An empty schedule disables that job.
type Options struct {
	ReminderSchedule      string
	WeeklySummarySchedule string
	SendDelay             time.Duration
	JobTimeout            time.Duration
}

// RunResult reports what a job run did. Enqueued is set when the job fanned
// out to the task queue; Batch when it sent directly.
type RunResult struct {
	Job      Job
	Enqueued int
	Batch    notifications.BatchResult
}

// ReminderScheduler triggers the email jobs on their cron schedules. With a
// task queue it enqueues one send_email task per recipient; without one it
// sends the batch inline.
type ReminderScheduler struct {
	opts   Options
	sender BatchSender
	users  Recipients
	queue  Enqueuer
	log    *logger.Logger

	mu        sync.RWMutex
	cron      *cron.Cron
	entries   map[Job]cron.EntryID
	isRunning bool
	baseCtx   context.Context
	cancel    context.CancelFunc

	runMu   sync.Mutex
	running map[Job]bool
}

// NewReminderScheduler creates a scheduler. queue may be nil.
func NewReminderScheduler(opts Options, sender BatchSender, users Recipients, queue Enqueuer, log *logger.Logger) *ReminderScheduler {
	if log == nil {
		log = logger.Nop()
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 30 * time.Minute
	}
	return &ReminderScheduler{
		opts:    opts,
		sender:  sender,
		users:   users,
		queue:   queue,
		log:     log.With("component", "scheduler"),
		entries: map[Job]cron.EntryID{},
		running: map[Job]bool{},
	}
}

func (s *ReminderScheduler) schedules() map[Job]string {
	return map[Job]string{
		JobReminders:     s.opts.ReminderSchedule,
		JobWeeklySummary: s.opts.WeeklySummarySchedule,
	}
}

// Start registers the configured jobs and starts the cron loop. The scheduler
// stops by itself when ctx is cancelled.
func (s *ReminderScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	c := cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cron.PrintfLogger(s.log)),
	)
	entries := map[Job]cron.EntryID{}
	for job, expr := range s.schedules() {
		if expr == "" {
			s.log.Info("job disabled", "job", job)
			continue
		}
		if err := ValidateSchedule(expr); err != nil {
			return fmt.Errorf("invalid cron schedule %q for %s: %w", expr, job, err)
		}
		job := job
		id, err := c.AddFunc(expr, func() {
			if _, err := s.run(job); err != nil && !errors.Is(err, ErrJobRunning) {
				s.log.Error("scheduled job failed", "job", job, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job, err)
		}
		entries[job] = id
	}

	var runCtx context.Context
	runCtx, s.cancel = context.WithCancel(ctx)
	s.baseCtx = runCtx
	s.cron = c
	s.entries = entries

	c.Start()
	s.isRunning = true

	for job, id := range entries {
		s.log.Info("job scheduled", "job", job, "schedule", s.schedules()[job], "next_run", c.Entry(id).Next)
	}

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop, cancels in-flight jobs and waits for them.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	c := s.cron
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
}

// IsRunning returns whether the cron loop is active.
func (s *ReminderScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the next activation per registered job. Empty when stopped.
func (s *ReminderScheduler) NextRuns() map[Job]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[Job]time.Time{}
	if !s.isRunning {
		return out
	}
	for job, id := range s.entries {
		out[job] = s.cron.Entry(id).Next
	}
	return out
}

// Jobs lists the jobs with a schedule, sorted by name.
func (s *ReminderScheduler) Jobs() []Job {
	var jobs []Job
	for job, expr := range s.schedules() {
		if expr != "" {
			jobs = append(jobs, job)
		}
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i] < jobs[j] })
	return jobs
}

// RunNow executes a job immediately and waits for it.
func (s *ReminderScheduler) RunNow(ctx context.Context, job Job) (RunResult, error) {
	switch job {
	case JobReminders, JobWeeklySummary:
	default:
		return RunResult{}, fmt.Errorf("unknown job %q", job)
	}
	return s.runWith(ctx, job)
}

func (s *ReminderScheduler) run(job Job) (RunResult, error) {
	s.mu.RLock()
	base := s.baseCtx
	s.mu.RUnlock()
	if base == nil {
		base = context.Background()
	}
	return s.runWith(base, job)
}

func (s *ReminderScheduler) runWith(ctx context.Context, job Job) (RunResult, error) {
	s.runMu.Lock()
	if s.running[job] {
		s.runMu.Unlock()
		s.log.Warn("job skipped, already running", "job", job)
		return RunResult{Job: job}, ErrJobRunning
	}
	s.running[job] = true
	s.runMu.Unlock()

	defer func() {
		s.runMu.Lock()
		delete(s.running, job)
		s.runMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	start := time.Now()
	res := RunResult{Job: job}
	var err error
	if s.queue != nil {
		res.Enqueued, err = s.enqueue(ctx, job)
		s.log.Info("job enqueued emails", "job", job, "tasks", res.Enqueued, "duration", time.Since(start).Round(time.Millisecond))
	} else {
		res.Batch, err = s.sendBatch(ctx, job)
		s.log.Info("job sent batch",
			"job", job,
			"sent", res.Batch.Sent,
			"skipped", res.Batch.Skipped,
			"failed", res.Batch.Failed,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	}
	return res, err
}

func kindFor(job Job) entities.EmailKind {
	if job == JobWeeklySummary {
		return entities.EmailKindWeeklySummary
	}
	return entities.EmailKindReminder
}

func (s *ReminderScheduler) enqueue(ctx context.Context, job Job) (int, error) {
	if s.users == nil {
		return 0, fmt.Errorf("recipients not configured")
	}
	users, err := s.users.WithRemindersEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	kind := kindFor(job)
	var n int
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := s.queue.Enqueue(ctx, tasks.SendEmailTask{UserID: u.ID, Kind: kind}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *ReminderScheduler) sendBatch(ctx context.Context, job Job) (notifications.BatchResult, error) {
	if s.sender == nil {
		return notifications.BatchResult{}, fmt.Errorf("email sender not configured")
	}
	if job == JobWeeklySummary {
		return s.sender.SendWeeklySummaries(ctx, s.opts.SendDelay)
	}
	return s.sender.SendReminders(ctx, s.opts.SendDelay)
}
