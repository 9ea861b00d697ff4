// Package notifications decides who gets which email and sends it.
//
// Reminder and weekly summary sends are recorded per user and day (per week
// for summaries), so rerunning a batch never emails anyone twice.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/mail"
	"github.com/biblehabit/tracker/internal/services"
	"github.com/biblehabit/tracker/internal/services/stats"
	"github.com/biblehabit/tracker/internal/streak"
)

// Outcome of a single send attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// BatchResult summarises a batch run.
type BatchResult struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r *BatchResult) add(o Outcome) {
	switch o {
	case OutcomeSent:
		r.Sent++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// StatsProvider returns dashboard statistics for a user.
type StatsProvider interface {
	ForUser(ctx context.Context, user *entities.User) (*stats.Stats, error)
}

type Options struct {
	AppName string
	BaseURL string
}

type Service struct {
	users      services.UserRepository
	logs       services.ReadingLogReader
	stats      StatsProvider
	streaks    *streak.Service
	deliveries services.DeliveryLog
	mailer     mail.Mailer
	composer   *mail.Composer
	signer     *mail.Signer
	opts       Options
	log        *logger.Logger
	now        services.Clock
}

// NewService wires the notification flows. signer may be nil, in which case
// emails carry no unsubscribe link.
func NewService(
	users services.UserRepository,
	logs services.ReadingLogReader,
	statsProvider StatsProvider,
	streaks *streak.Service,
	deliveries services.DeliveryLog,
	mailer mail.Mailer,
	composer *mail.Composer,
	signer *mail.Signer,
	opts Options,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:      users,
		logs:       logs,
		stats:      statsProvider,
		streaks:    streaks,
		deliveries: deliveries,
		mailer:     mailer,
		composer:   composer,
		signer:     signer,
		opts:       opts,
		log:        log.With("service", "Notifications"),
		now:        time.Now,
	}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now services.Clock) *Service {
	s.now = now
	return s
}

// UnsubscribeURL returns the one-click opt-out link for userID, or "".
func (s *Service) UnsubscribeURL(userID uint) string {
	if s.signer == nil {
		return ""
	}
	token, err := s.signer.UnsubscribeToken(userID)
	if err != nil {
		s.log.Warn("unsubscribe token failed", "user_id", userID, "error", err)
		return ""
	}
	return s.opts.BaseURL + "/email/unsubscribe?token=" + url.QueryEscape(token)
}

// Unsubscribe turns off reminder emails for the user the token was issued to.
func (s *Service) Unsubscribe(ctx context.Context, token string) (*entities.User, error) {
	if s.signer == nil {
		return nil, apperr.NewInvalidArgument("token", "Unsubscribe links are not enabled.")
	}
	userID, err := s.signer.ParseUnsubscribe(token)
	if err != nil {
		return nil, apperr.NewInvalidArgument("token", "This unsubscribe link is invalid or has expired.")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetEmailReminders(ctx, userID, false); err != nil {
		return nil, fmt.Errorf("disable reminders: %w", err)
	}
	user.EmailReminders = false
	s.log.Info("user unsubscribed", "user_id", userID)
	return user, nil
}

func (s *Service) common(user *entities.User) mail.Common {
	return mail.Common{
		AppName:        s.opts.AppName,
		BaseURL:        s.opts.BaseURL,
		Name:           user.DisplayName(),
		UnsubscribeURL: s.UnsubscribeURL(user.ID),
	}
}

func (s *Service) loadUser(ctx context.Context, userID uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("user", userID)
	}
	return user, err
}

// SendWelcome emails a newly registered reader once.
func (s *Service) SendWelcome(ctx context.Context, userID uint) (Outcome, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return OutcomeFailed, err
	}
	if user.Email == "" {
		return OutcomeSkipped, nil
	}
	msg, err := s.composer.Welcome(s.to(user), mail.WelcomeData{
		Common:       s.common(user),
		WeeklyTarget: user.EffectiveWeeklyTarget(),
	})
	if err != nil {
		return OutcomeFailed, err
	}
	day := services.LocalToday(s.now(), user.Location())
	return s.deliver(ctx, user, entities.EmailKindWelcome, day, msg)
}

// SendReminder nudges a reader who has a streak at stake or has not read
// today. Opted-out readers, readers who already read today and readers
// already reminded today are skipped.
func (s *Service) SendReminder(ctx context.Context, userID uint) (Outcome, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return OutcomeFailed, err
	}
	if !user.EmailReminders || user.Email == "" {
		return OutcomeSkipped, nil
	}
	st, err := s.stats.ForUser(ctx, user)
	if err != nil {
		return OutcomeFailed, err
	}
	if st.HasReadToday {
		return OutcomeSkipped, nil
	}

	local := s.now().In(user.Location())
	display := s.streaks.Display(st.CurrentStreak, st.LongestStreak, st.HasReadToday, local, fmt.Sprint(user.ID))
	msg, err := s.composer.Reminder(s.to(user), mail.ReminderData{
		Common:        s.common(user),
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
		Message:       display.Message,
	})
	if err != nil {
		return OutcomeFailed, err
	}
	return s.deliver(ctx, user, entities.EmailKindReminder, st.Today, msg)
}

// SendWeeklySummary reports the current week's progress once per week.
func (s *Service) SendWeeklySummary(ctx context.Context, userID uint) (Outcome, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return OutcomeFailed, err
	}
	if !user.EmailReminders || user.Email == "" {
		return OutcomeSkipped, nil
	}
	st, err := s.stats.ForUser(ctx, user)
	if err != nil {
		return OutcomeFailed, err
	}
	week, err := s.logs.InDateRange(ctx, user.ID, st.WeekStart, st.Today)
	if err != nil {
		return OutcomeFailed, err
	}

	msg, err := s.composer.WeeklySummary(s.to(user), mail.WeeklySummaryData{
		Common:         s.common(user),
		WeekStart:      st.WeekStart,
		WeeklyDays:     st.WeeklyDays,
		WeeklyTarget:   st.WeeklyTarget,
		GoalMet:        st.WeeklyGoalMet,
		ChaptersRead:   len(week),
		CurrentStreak:  st.CurrentStreak,
		LongestStreak:  st.LongestStreak,
		BooksCompleted: st.BooksCompleted,
	})
	if err != nil {
		return OutcomeFailed, err
	}
	return s.deliver(ctx, user, entities.EmailKindWeeklySummary, st.WeekStart, msg)
}

// deliver claims the (user, kind, day) slot before sending and releases it
// again when the send fails, so a later run can retry.
func (s *Service) deliver(ctx context.Context, user *entities.User, kind entities.EmailKind, day string, msg mail.Message) (Outcome, error) {
	claimed, err := s.deliveries.Record(ctx, user.ID, kind, day)
	if err != nil {
		return OutcomeFailed, err
	}
	if !claimed {
		return OutcomeSkipped, nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		if ferr := s.deliveries.Forget(ctx, user.ID, kind, day); ferr != nil {
			s.log.Error("failed to release delivery slot", "user_id", user.ID, "kind", kind, "error", ferr)
		}
		return OutcomeFailed, fmt.Errorf("send %s to user %d: %w", kind, user.ID, err)
	}
	s.log.Info("email sent", "user_id", user.ID, "kind", kind, "day", day)
	return OutcomeSent, nil
}

func (s *Service) to(user *entities.User) mail.Address {
	return mail.Address{Email: user.Email, Name: user.Name}
}

// SendReminders runs SendReminder for every opted-in reader, pausing delay
// after each email actually sent.
func (s *Service) SendReminders(ctx context.Context, delay time.Duration) (BatchResult, error) {
	return s.batch(ctx, delay, s.SendReminder)
}

// SendWeeklySummaries runs SendWeeklySummary for every opted-in reader.
func (s *Service) SendWeeklySummaries(ctx context.Context, delay time.Duration) (BatchResult, error) {
	return s.batch(ctx, delay, s.SendWeeklySummary)
}

func (s *Service) batch(ctx context.Context, delay time.Duration, send func(context.Context, uint) (Outcome, error)) (BatchResult, error) {
	var result BatchResult
	recipients, err := s.users.WithRemindersEnabled(ctx)
	if err != nil {
		return result, fmt.Errorf("load recipients: %w", err)
	}

	for i, u := range recipients {
		outcome, err := send(ctx, u.ID)
		if err != nil {
			s.log.Error("email failed", "user_id", u.ID, "error", err)
		}
		result.add(outcome)

		if outcome == OutcomeSent && delay > 0 && i < len(recipients)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}
	s.log.Info("email batch finished", "sent", result.Sent, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}
