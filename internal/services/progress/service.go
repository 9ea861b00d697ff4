// Package progress keeps BookProgress rows in line with the reading logs.
//
// UpdateForBook is the incremental path run after every write. SyncForUser and
// SyncForAllUsers rebuild everything from the logs and are used for backfill
// and repair. All three are idempotent.
package progress

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/logger"
	"github.com/biblehabit/tracker/internal/services"
)

// UserSyncResult reports what SyncForUser touched.
type UserSyncResult struct {
	ProcessedLogs int `json:"processed_logs"`
	UpdatedBooks  int `json:"updated_books"`
}

// AllSyncResult aggregates SyncForAllUsers.
type AllSyncResult struct {
	UsersProcessed     int `json:"users_processed"`
	TotalLogsProcessed int `json:"total_logs_processed"`
	TotalBooksUpdated  int `json:"total_books_updated"`
}

type Service struct {
	logs     services.ReadingLogReader
	progress services.ProgressRepository
	users    services.UserReader
	books    *bible.Table
	log      *logger.Logger
	now      services.Clock
}

func NewService(
	logs services.ReadingLogReader,
	progress services.ProgressRepository,
	users services.UserReader,
	books *bible.Table,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		logs:     logs,
		progress: progress,
		users:    users,
		books:    books,
		log:      log.With("service", "ProgressSync"),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for LastUpdated.
func (s *Service) WithClock(now services.Clock) *Service {
	s.now = now
	return s
}

// Calculate builds the progress row for a book from the chapters read.
// Chapters outside the book are ignored.
func Calculate(book bible.Book, userID uint, chapters []int, at time.Time) *entities.BookProgress {
	valid := make([]int, 0, len(chapters))
	for _, c := range chapters {
		if c >= 1 && c <= book.Chapters {
			valid = append(valid, c)
		}
	}
	p := &entities.BookProgress{
		UserID:        userID,
		BookID:        book.ID,
		BookName:      book.Name,
		TotalChapters: book.Chapters,
		LastUpdated:   at,
	}
	p.SetChapters(valid)
	return p
}

// UpdateForBook recomputes one book from the user's logs for it.
func (s *Service) UpdateForBook(ctx context.Context, userID uint, bookID int) (*entities.BookProgress, error) {
	book, err := s.books.Book(bookID)
	if err != nil {
		return nil, err
	}
	chapters, err := s.logs.ChaptersForBook(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("load chapters for book %d: %w", bookID, err)
	}
	p := Calculate(book, userID, chapters, s.now())
	if err := s.progress.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SyncForUser rebuilds every progress row of a user from all of their logs.
// Rows for books without logs are reset to zero. A row whose chapters did not
// change keeps its LastUpdated, so repeated runs leave identical state.
func (s *Service) SyncForUser(ctx context.Context, userID uint) (UserSyncResult, error) {
	logs, err := s.logs.AllForUser(ctx, userID)
	if err != nil {
		return UserSyncResult{}, fmt.Errorf("load logs for user %d: %w", userID, err)
	}
	existing, err := s.progress.ForUser(ctx, userID)
	if err != nil {
		return UserSyncResult{}, fmt.Errorf("load progress for user %d: %w", userID, err)
	}

	byBook := make(map[int][]int)
	for _, l := range logs {
		byBook[l.BookID] = append(byBook[l.BookID], l.Chapter)
	}
	current := make(map[int]*entities.BookProgress, len(existing))
	for i := range existing {
		current[existing[i].BookID] = &existing[i]
		if _, ok := byBook[existing[i].BookID]; !ok {
			byBook[existing[i].BookID] = nil
		}
	}
	bookIDs := make([]int, 0, len(byBook))
	for id := range byBook {
		bookIDs = append(bookIDs, id)
	}
	sort.Ints(bookIDs)

	result := UserSyncResult{ProcessedLogs: len(logs)}
	at := s.now()
	for _, bookID := range bookIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		book, err := s.books.Book(bookID)
		if err != nil {
			s.log.Warn("skipping progress for unknown book", "user_id", userID, "book_id", bookID)
			continue
		}
		p := Calculate(book, userID, byBook[bookID], at)
		if prev, ok := current[bookID]; ok && sameProgress(prev, p) {
			p.LastUpdated = prev.LastUpdated
		}
		if err := s.progress.Upsert(ctx, p); err != nil {
			return result, err
		}
		result.UpdatedBooks++
	}

	s.log.Info("progress synced", "user_id", userID, "processed_logs", result.ProcessedLogs, "updated_books", result.UpdatedBooks)
	return result, nil
}

func sameProgress(a, b *entities.BookProgress) bool {
	return a.BookName == b.BookName &&
		a.TotalChapters == b.TotalChapters &&
		a.CompletionPercent == b.CompletionPercent &&
		a.IsCompleted == b.IsCompleted &&
		slices.Equal(a.Chapters(), b.Chapters())
}

// SyncForAllUsers runs SyncForUser for every account. A failing user is
// logged and skipped; the first such error is returned after the loop.
func (s *Service) SyncForAllUsers(ctx context.Context) (AllSyncResult, error) {
	users, err := s.users.All(ctx)
	if err != nil {
		return AllSyncResult{}, fmt.Errorf("load users: %w", err)
	}

	var (
		total    AllSyncResult
		firstErr error
	)
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		r, err := s.SyncForUser(ctx, u.ID)
		if err != nil {
			s.log.Error("progress sync failed", "user_id", u.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total.UsersProcessed++
		total.TotalLogsProcessed += r.ProcessedLogs
		total.TotalBooksUpdated += r.UpdatedBooks
	}
	return total, firstErr
}
