// Package readings validates and records chapter reads.
//
// A submission names a book, a chapter or chapter range and a date. Each
// chapter becomes its own ReadingLog row inserted independently, so a range
// that overlaps earlier entries keeps the new chapters and reports the rest
// as already logged.
package readings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/database/readinglogs"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services"
	"github.com/biblehabit/tracker/internal/validation"
)

const (
	FieldBookID   = "book_id"
	FieldDateRead = "date_read"
	FieldNotes    = "notes_text"
)

// LogReadingInput is the submitted form or JSON body.
type LogReadingInput struct {
	BookID       int    `form:"book_id" json:"book_id" validate:"required,min=1,max=66"`
	ChapterInput string `form:"chapter_input" json:"chapter_input" validate:"required,max=20"`
	DateRead     string `form:"date_read" json:"date_read" validate:"required,datetime=2006-01-02"`
	NotesText    string `form:"notes_text" json:"notes_text" validate:"max=500"`
}

// LogResult describes what a submission created.
type LogResult struct {
	Book      bible.Book             `json:"book"`
	DateRead  string                 `json:"date_read"`
	Reference string                 `json:"reference"`
	Created   []entities.ReadingLog  `json:"created"`
	Skipped   []int                  `json:"skipped_chapters,omitempty"`
	Progress  *entities.BookProgress `json:"progress,omitempty"`
}

// Message is the flash text shown after a successful submission.
func (r *LogResult) Message() string {
	msg := fmt.Sprintf("Logged %s.", r.Reference)
	if n := len(r.Skipped); n > 0 {
		parts := make([]string, n)
		for i, c := range r.Skipped {
			parts[i] = strconv.Itoa(c)
		}
		noun, verb := "Chapters", "were"
		if n == 1 {
			noun, verb = "Chapter", "was"
		}
		msg += fmt.Sprintf(" %s %s %s already logged.", noun, strings.Join(parts, ", "), verb)
	}
	return msg
}

var validate = validation.New(func(field, tag, param string) string {
	switch {
	case field == FieldBookID:
		return "Please select a valid book."
	case field == bible.FieldChapterInput && tag == "required":
		return "Please enter a chapter or range, e.g. 3 or 1-5."
	case field == bible.FieldChapterInput && tag == "max":
		return "The chapter input is too long."
	case field == FieldDateRead:
		return "Please enter a valid date."
	case field == FieldNotes && tag == "max":
		return fmt.Sprintf("Notes may not be longer than %s characters.", param)
	}
	return ""
})

type Service struct {
	logs     services.ReadingLogRepository
	progress services.ProgressUpdater
	stats    services.StatsInvalidator
	books    *bible.Table
	log      *logger.Logger
	now      services.Clock
}

func NewService(
	logs services.ReadingLogRepository,
	progress services.ProgressUpdater,
	stats services.StatsInvalidator,
	books *bible.Table,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		logs:     logs,
		progress: progress,
		stats:    stats,
		books:    books,
		log:      log.With("service", "Readings"),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for the grace period.
func (s *Service) WithClock(now services.Clock) *Service {
	s.now = now
	return s
}

// AllowedDates returns the user's local today and yesterday.
func (s *Service) AllowedDates(user *entities.User) (today, yesterday string) {
	local := s.now().In(user.Location())
	return local.Format(entities.DateLayout), local.AddDate(0, 0, -1).Format(entities.DateLayout)
}

// Validate checks the input without writing anything and returns the parsed range.
func (s *Service) Validate(user *entities.User, in LogReadingInput) (bible.ChapterRange, error) {
	in.ChapterInput = strings.TrimSpace(in.ChapterInput)
	in.DateRead = strings.TrimSpace(in.DateRead)

	if err := validate.Struct(in); err != nil {
		return bible.ChapterRange{}, err
	}

	today, yesterday := s.AllowedDates(user)
	if in.DateRead != today && in.DateRead != yesterday {
		return bible.ChapterRange{}, apperr.NewValidation(FieldDateRead, "You can only log readings for today or yesterday.")
	}

	rng, err := bible.ParseChapterInput(in.ChapterInput)
	if err != nil {
		return bible.ChapterRange{}, err
	}
	if !s.books.ValidateChapterRange(in.BookID, rng.Start, rng.End) {
		book, _ := s.books.Book(in.BookID)
		return bible.ChapterRange{}, apperr.NewValidation(bible.FieldChapterInput,
			fmt.Sprintf("%s has %d chapters.", book.Name, book.Chapters))
	}
	return rng, nil
}

// LogReading validates the input and inserts one row per chapter. When every
// chapter was already logged for that date it returns a *apperr.ConflictError.
func (s *Service) LogReading(ctx context.Context, user *entities.User, in LogReadingInput) (*LogResult, error) {
	rng, err := s.Validate(user, in)
	if err != nil {
		return nil, err
	}
	book, err := s.books.Book(in.BookID)
	if err != nil {
		return nil, err
	}
	date := strings.TrimSpace(in.DateRead)
	notes := strings.TrimSpace(in.NotesText)

	result := &LogResult{
		Book:      book,
		DateRead:  date,
		Reference: s.books.FormatReferenceRange(book.ID, rng.Start, rng.End),
	}

	var lastDup error
	for _, chapter := range rng.Chapters() {
		row := entities.ReadingLog{
			UserID:      user.ID,
			BookID:      book.ID,
			Chapter:     chapter,
			PassageText: s.books.FormatReferenceRange(book.ID, chapter, chapter),
			DateRead:    date,
			NotesText:   notes,
		}
		err := s.logs.Create(ctx, &row)
		switch {
		case err == nil:
			result.Created = append(result.Created, row)
		case errors.Is(err, readinglogs.ErrDuplicate):
			result.Skipped = append(result.Skipped, chapter)
			lastDup = err
		default:
			err = fmt.Errorf("log %s: %w", row.PassageText, err)
			if len(result.Created) > 0 {
				// Earlier chapters are stored; keep progress and stats in step with them.
				if progress, werr := s.afterWrite(ctx, user.ID, book.ID); werr != nil {
					s.log.Error("progress update after failed insert", "user_id", user.ID, "book_id", book.ID, "error", werr)
				} else {
					result.Progress = progress
				}
			}
			return result, err
		}
	}

	if len(result.Created) == 0 {
		return nil, apperr.NewConflict(bible.FieldChapterInput,
			fmt.Sprintf("You have already logged %s for %s.", result.Reference, date), lastDup)
	}

	s.log.Info("reading logged",
		"user_id", user.ID,
		"reference", result.Reference,
		"date", date,
		"created", len(result.Created),
		"skipped", len(result.Skipped))

	progress, err := s.afterWrite(ctx, user.ID, book.ID)
	if err != nil {
		return result, err
	}
	result.Progress = progress
	return result, nil
}

// DeleteLog removes one of the user's own entries.
func (s *Service) DeleteLog(ctx context.Context, user *entities.User, id uint) error {
	entry, err := s.logs.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && entry.UserID != user.ID) {
		return apperr.NewNotFound("reading log", id)
	}
	if err != nil {
		return err
	}
	if err := s.logs.Delete(ctx, id, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("reading log", id)
		}
		return err
	}
	s.log.Info("reading log deleted", "user_id", user.ID, "log_id", id, "book_id", entry.BookID)

	_, err = s.afterWrite(ctx, user.ID, entry.BookID)
	return err
}

func (s *Service) afterWrite(ctx context.Context, userID uint, bookID int) (*entities.BookProgress, error) {
	progress, err := s.progress.UpdateForBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}
	if s.stats != nil {
		if err := s.stats.Invalidate(ctx, userID); err != nil {
			s.log.Warn("stats cache invalidation failed", "user_id", userID, "error", err)
		}
	}
	return progress, nil
}
