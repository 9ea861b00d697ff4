package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/apperr"
	"github.com/biblehabit/tracker/internal/auth"
	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/entities"
	"github.com/biblehabit/tracker/internal/services/readings"
)

const (
	logsPerPage = 50

	// fieldBody carries errors that cannot be pinned to one input.
	fieldBody = "body"

	// EventReadingLogged is the HX-Trigger fired after a write so the
	// dashboard cards refresh themselves.
	EventReadingLogged = "reading-logged"
)

// LogsController handles recording, listing and removing readings.
type LogsController struct {
	readings ReadingLogger
	history  LogHistory
	books    *bible.Table
	sessions *auth.SessionManager
}

func NewLogsController(readingLogger ReadingLogger, history LogHistory, books *bible.Table, sessions *auth.SessionManager) *LogsController {
	return &LogsController{
		readings: readingLogger,
		history:  history,
		books:    books,
		sessions: sessions,
	}
}

type logDay struct {
	Date string
	Logs []entities.ReadingLog
}

// groupByDate keeps the incoming order, which is newest day first.
func groupByDate(logs []entities.ReadingLog) []logDay {
	var days []logDay
	for _, l := range logs {
		if n := len(days); n > 0 && days[n-1].Date == l.DateRead {
			days[n-1].Logs = append(days[n-1].Logs, l)
			continue
		}
		days = append(days, logDay{Date: l.DateRead, Logs: []entities.ReadingLog{l}})
	}
	return days
}

func totalPages(total int64, perPage int) int {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	if pages < 1 {
		return 1
	}
	return pages
}

// Index lists the reader's history, paginated and grouped by day.
func (lc *LogsController) Index(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	page := parsePage(c)
	logs, total, err := lc.history.ForUser(c.Request.Context(), user.ID, logsPerPage, (page-1)*logsPerPage)
	if err != nil {
		respondInternalError(c, err, "list reading logs")
		return
	}
	pages := totalPages(total, logsPerPage)

	if wantsJSON(c) {
		c.JSON(http.StatusOK, PaginatedResponse{
			Data:       logs,
			Total:      total,
			Page:       page,
			PerPage:    logsPerPage,
			HasMore:    page < pages,
			TotalPages: pages,
		})
		return
	}

	c.HTML(http.StatusOK, "logs_index", pageData(c, "History", gin.H{
		"Days":       groupByDate(logs),
		"Total":      total,
		"Page":       page,
		"TotalPages": pages,
		"Notice":     lc.popNotice(c),
	}))
}

// Create shows the log form, refilled from a failed submission if any.
func (lc *LogsController) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	today, yesterday := lc.readings.AllowedDates(user)
	data := gin.H{
		"Books":     lc.books.ListBooks(),
		"Today":     today,
		"Yesterday": yesterday,
		"Input":     map[string]string(nil),
		"Errors":    map[string]string(nil),
	}
	if lc.sessions != nil {
		flash := lc.sessions.PopFlash(c.Request.Context())
		data["Input"] = flash.Input
		data["Errors"] = flash.Errors
		data["Notice"] = flash.Notice
	}
	c.HTML(http.StatusOK, "logs_create", pageData(c, "Log reading", data))
}

// Store records a submission. It answers in the shape the client asked for:
// an HTMX fragment, JSON, or a redirect for a plain form post.
func (lc *LogsController) Store(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var in readings.LogReadingInput
	if err := c.ShouldBind(&in); err != nil {
		lc.storeFailed(c, in, bindError(err))
		return
	}

	result, err := lc.readings.LogReading(c.Request.Context(), user, in)
	if err != nil {
		lc.storeFailed(c, in, err)
		return
	}

	switch {
	case isHTMXRequest(c):
		c.Header("HX-Trigger", EventReadingLogged)
		c.HTML(http.StatusOK, "log_success", gin.H{"Result": result})
	case wantsJSON(c):
		c.JSON(http.StatusCreated, gin.H{
			"message":          result.Message(),
			"reference":        result.Reference,
			"date_read":        result.DateRead,
			"created":          result.Created,
			"skipped_chapters": result.Skipped,
			"progress":         result.Progress,
		})
	default:
		lc.putFlash(c, auth.Flash{Notice: result.Message()})
		c.Redirect(http.StatusFound, "/logs")
	}
}

// bindError reports a decoding failure against the field that caused it.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case readings.FieldBookID:
			return apperr.NewValidation(readings.FieldBookID, "Please select a valid book.")
		case bible.FieldChapterInput:
			return apperr.NewValidation(bible.FieldChapterInput, "Enter chapters as text, such as 3 or 1-5.")
		case readings.FieldDateRead:
			return apperr.NewValidation(readings.FieldDateRead, "Enter the date as YYYY-MM-DD.")
		case readings.FieldNotes:
			return apperr.NewValidation(readings.FieldNotes, "Notes must be text.")
		}
	}
	// book_id is the only numeric form field.
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return apperr.NewValidation(readings.FieldBookID, "Please select a valid book.")
	}
	return apperr.NewValidation(fieldBody, "The request body could not be read.")
}

func (lc *LogsController) storeFailed(c *gin.Context, in readings.LogReadingInput, err error) {
	if !apperr.IsClientError(err) {
		respondInternalError(c, err, "log reading")
		return
	}
	errs := firstErrors(apperr.FieldErrors(err))

	switch {
	case isHTMXRequest(c):
		c.HTML(http.StatusUnprocessableEntity, "log_errors", gin.H{"Errors": errs})
	case wantsJSON(c):
		respondAppError(c, err, "log reading")
	default:
		bookID := ""
		if in.BookID > 0 {
			bookID = strconv.Itoa(in.BookID)
		}
		lc.putFlash(c, auth.Flash{
			Errors: errs,
			Input: map[string]string{
				readings.FieldBookID:    bookID,
				bible.FieldChapterInput: in.ChapterInput,
				readings.FieldDateRead:  in.DateRead,
				readings.FieldNotes:     in.NotesText,
			},
		})
		c.Redirect(http.StatusFound, "/logs/create")
	}
}

// Delete removes one of the reader's entries. Serves both DELETE /logs/:id
// and the POST fallback used by plain forms.
func (lc *LogsController) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := lc.readings.DeleteLog(c.Request.Context(), user, id); err != nil {
		if apperr.IsNotFound(err) {
			respondNotFound(c, "reading log")
			return
		}
		respondInternalError(c, err, "delete reading log")
		return
	}

	switch {
	case isHTMXRequest(c):
		c.Header("HX-Trigger", EventReadingLogged)
		c.Status(http.StatusOK)
	case wantsJSON(c) || c.Request.Method == http.MethodDelete:
		c.JSON(http.StatusOK, gin.H{"message": "Reading removed."})
	default:
		lc.putFlash(c, auth.Flash{Notice: "Reading removed."})
		c.Redirect(http.StatusFound, "/logs")
	}
}

// ChaptersResponse describes a book for the chapter picker.
type ChaptersResponse struct {
	BookID       int    `json:"book_id"`
	BookName     string `json:"book_name"`
	ChapterCount int    `json:"chapter_count"`
	Chapters     []int  `json:"chapters"`
}

// Chapters lists the chapter numbers of a book.
func (lc *LogsController) Chapters(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bookId"))
	if err != nil || !lc.books.ValidateBookID(id) {
		respondBadRequest(c, "invalid book id")
		return
	}
	book, err := lc.books.Book(id)
	if err != nil {
		respondBadRequest(c, "invalid book id")
		return
	}

	chapters := make([]int, book.Chapters)
	for i := range chapters {
		chapters[i] = i + 1
	}

	if isHTMXRequest(c) {
		c.HTML(http.StatusOK, "chapter_options", gin.H{"Chapters": chapters})
		return
	}
	c.JSON(http.StatusOK, ChaptersResponse{
		BookID:       book.ID,
		BookName:     book.Name,
		ChapterCount: book.Chapters,
		Chapters:     chapters,
	})
}

func (lc *LogsController) putFlash(c *gin.Context, f auth.Flash) {
	if lc.sessions != nil {
		lc.sessions.PutFlash(c.Request.Context(), f)
	}
}

func (lc *LogsController) popNotice(c *gin.Context) string {
	if lc.sessions == nil {
		return ""
	}
	return lc.sessions.PopFlash(c.Request.Context()).Notice
}
