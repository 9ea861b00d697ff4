package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/biblehabit/tracker/internal/logger"
)

type SendGridConfig struct {
	APIKey           string
	BaseURL          string
	DefaultFromEmail string
	DefaultFromName  string
	Timeout          time.Duration
	MaxRetries       int
}

// SendGrid talks to the v3 mail/send endpoint, retrying 429 and 5xx responses.
type SendGrid struct {
	log        *logger.Logger
	cfg        SendGridConfig
	httpClient *http.Client
	backoff    time.Duration
}

func NewSendGrid(cfg SendGridConfig, log *logger.Logger) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SendGrid{
		log:        log.With("mailer", "sendgrid"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		backoff:    time.Second,
	}, nil
}

// wire types for POST /v3/mail/send
type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             Address             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
	Categories       []string            `json:"categories,omitempty"`
	Headers          map[string]string   `json:"headers,omitempty"`
}

type sgPersonalization struct {
	To []Address `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgErrorResponse struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

// HTTPError is a non-2xx response from SendGrid.
type HTTPError struct {
	StatusCode int
	Message    string
	retryAfter time.Duration
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid http %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the request may succeed if repeated.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if msg.From.Email == "" {
		msg.From = Address{Email: s.cfg.DefaultFromEmail, Name: s.cfg.DefaultFromName}
	}
	if msg.From.Email == "" {
		return fmt.Errorf("sendgrid: from address required (set MAIL_FROM_EMAIL)")
	}
	if msg.To.Email == "" {
		return fmt.Errorf("sendgrid: recipient required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("sendgrid: subject required")
	}

	var content []sgContent
	if t := strings.TrimSpace(msg.Text); t != "" {
		content = append(content, sgContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		content = append(content, sgContent{Type: "text/html", Value: h})
	}
	if len(content) == 0 {
		return fmt.Errorf("sendgrid: text or html content required")
	}

	body, err := json.Marshal(sgRequest{
		Personalizations: []sgPersonalization{{To: []Address{msg.To}}},
		From:             msg.From,
		Subject:          msg.Subject,
		Content:          content,
		Categories:       msg.Categories,
		Headers:          msg.Headers,
	})
	if err != nil {
		return err
	}

	backoff := s.backoff
	for attempt := 0; ; attempt++ {
		err := s.doOnce(ctx, body)
		if err == nil {
			return nil
		}
		var he *HTTPError
		if !errors.As(err, &he) || !he.Retryable() || attempt >= s.cfg.MaxRetries {
			return err
		}

		wait := backoff
		if he.retryAfter > 0 {
			wait = he.retryAfter
		}
		s.log.Warn("sendgrid request retrying",
			"attempt", attempt+1,
			"max_retries", s.cfg.MaxRetries,
			"sleep", wait.String(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
}

func (s *SendGrid) doOnce(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	he := &HTTPError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var er sgErrorResponse
	if json.Unmarshal(raw, &er) == nil && len(er.Errors) > 0 && er.Errors[0].Message != "" {
		he.Message = er.Errors[0].Message
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		he.retryAfter = min(time.Duration(secs)*time.Second, 30*time.Second)
	}
	return he
}
