// Package mail composes and delivers the application's transactional email.
//
// # Drivers
//
//   - log: writes the message to the application log (default, for development)
//   - sendgrid: posts to the SendGrid v3 mail/send API
//
// Tests use RecordingMailer to inspect what would have been sent.
package mail

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/biblehabit/tracker/internal/config"
	"github.com/biblehabit/tracker/internal/logger"
)

const (
	DriverLog      = "log"
	DriverSendGrid = "sendgrid"
)

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Message is a single outgoing email.
type Message struct {
	From       Address
	To         Address
	Subject    string
	Text       string
	HTML       string
	Categories []string
	Headers    map[string]string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the mailer selected by cfg.Driver.
func New(cfg config.Mail, log *logger.Logger) (Mailer, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverLog, "":
		return NewLogMailer(log), nil
	case DriverSendGrid:
		return NewSendGrid(SendGridConfig{
			APIKey:           cfg.SendGridKey,
			BaseURL:          cfg.SendGridURL,
			DefaultFromEmail: cfg.FromEmail,
			DefaultFromName:  cfg.FromName,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported mail driver: %q", cfg.Driver)
	}
}

// LogMailer logs messages instead of sending them.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &LogMailer{log: log.With("mailer", "log")}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.To.Email == "" {
		return fmt.Errorf("mail: recipient required")
	}
	m.log.Info("email (not sent)",
		"to", msg.To.String(),
		"subject", msg.Subject,
		"categories", msg.Categories,
		"text", msg.Text)
	return nil
}

// RecordingMailer keeps every message in memory.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
	// Err, when set, is returned by Send and nothing is recorded.
	Err error
}

func (m *RecordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *RecordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
