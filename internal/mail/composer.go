package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

const (
	CategoryWelcome       = "welcome"
	CategoryReminder      = "daily_reminder"
	CategoryWeeklySummary = "weekly_summary"
)

// Common is shared by every template.
type Common struct {
	AppName        string
	BaseURL        string
	Name           string
	UnsubscribeURL string
}

type WelcomeData struct {
	Common
	WeeklyTarget int
}

type ReminderData struct {
	Common
	CurrentStreak int
	LongestStreak int
	Message       string
}

type WeeklySummaryData struct {
	Common
	WeekStart      string
	WeeklyDays     int
	WeeklyTarget   int
	GoalMet        bool
	ChaptersRead   int
	CurrentStreak  int
	LongestStreak  int
	BooksCompleted int64
}

// Composer renders the embedded email templates into Messages.
type Composer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func NewComposer() (*Composer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse html mail templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("parse text mail templates: %w", err)
	}
	return &Composer{html: html, text: text}, nil
}

func (c *Composer) Welcome(to Address, d WelcomeData) (Message, error) {
	return c.render(to, fmt.Sprintf("Welcome to %s", d.AppName), "welcome", CategoryWelcome, d.UnsubscribeURL, d)
}

func (c *Composer) Reminder(to Address, d ReminderData) (Message, error) {
	subject := "Time for today's reading"
	if d.CurrentStreak > 0 {
		subject = fmt.Sprintf("Keep your %d-day streak going", d.CurrentStreak)
	}
	return c.render(to, subject, "reminder", CategoryReminder, d.UnsubscribeURL, d)
}

func (c *Composer) WeeklySummary(to Address, d WeeklySummaryData) (Message, error) {
	subject := fmt.Sprintf("Your week in the Word: %d of %d days", d.WeeklyDays, d.WeeklyTarget)
	return c.render(to, subject, "weekly_summary", CategoryWeeklySummary, d.UnsubscribeURL, d)
}

func (c *Composer) render(to Address, subject, name, category, unsubscribeURL string, data any) (Message, error) {
	var text, html bytes.Buffer
	if err := c.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Message{}, fmt.Errorf("render %s.txt: %w", name, err)
	}
	if err := c.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, fmt.Errorf("render %s.html: %w", name, err)
	}
	msg := Message{
		To:         to,
		Subject:    subject,
		Text:       text.String(),
		HTML:       html.String(),
		Categories: []string{category},
	}
	if unsubscribeURL != "" {
		msg.Headers = map[string]string{"List-Unsubscribe": "<" + unsubscribeURL + ">"}
	}
	return msg, nil
}
