package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biblehabit/tracker/internal/bible"
	"github.com/biblehabit/tracker/internal/entities"
)

const testamentAll = "all"

// ProgressController renders the per-book completion grid.
type ProgressController struct {
	progress ProgressLister
	prefs    Preferences
	books    *bible.Table
}

func NewProgressController(progress ProgressLister, prefs Preferences, books *bible.Table) *ProgressController {
	return &ProgressController{progress: progress, prefs: prefs, books: books}
}

// BookRow is one cell of the progress grid.
type BookRow struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Testament    bible.Testament `json:"testament"`
	Chapters     int             `json:"chapters"`
	ChaptersRead int             `json:"chapters_read"`
	Percent      float64         `json:"completion_percent"`
	Completed    bool            `json:"is_completed"`
}

type testamentOption struct {
	Value string
	Label string
}

var testamentOptions = []testamentOption{
	{Value: testamentAll, Label: "All books"},
	{Value: string(bible.TestamentOld), Label: "Old Testament"},
	{Value: string(bible.TestamentNew), Label: "New Testament"},
}

// normalizeTestament maps anything unknown to "all".
func normalizeTestament(s string) string {
	if t, ok := bible.ParseTestament(s); ok {
		return string(t)
	}
	return testamentAll
}

func (pc *ProgressController) booksFor(testament string) []bible.Book {
	if t, ok := bible.ParseTestament(testament); ok {
		return pc.books.BooksByTestament(t)
	}
	return pc.books.ListBooks()
}

// rows joins the static book list with the reader's progress rows. Books the
// reader never opened show as 0%.
func (pc *ProgressController) rows(c *gin.Context, user *entities.User, testament string) ([]BookRow, int, error) {
	stored, err := pc.progress.ForUser(c.Request.Context(), user.ID)
	if err != nil {
		return nil, 0, err
	}
	byBook := make(map[int]entities.BookProgress, len(stored))
	for _, p := range stored {
		byBook[p.BookID] = p
	}

	books := pc.booksFor(testament)
	rows := make([]BookRow, 0, len(books))
	completed := 0
	for _, b := range books {
		row := BookRow{ID: b.ID, Name: b.Name, Testament: b.Testament, Chapters: b.Chapters}
		if p, ok := byBook[b.ID]; ok {
			row.ChaptersRead = p.ChaptersReadCount()
			row.Percent = p.CompletionPercent
			row.Completed = p.IsCompleted
		}
		if row.Completed {
			completed++
		}
		rows = append(rows, row)
	}
	return rows, completed, nil
}

func (pc *ProgressController) gridData(c *gin.Context, user *entities.User, testament string) (gin.H, error) {
	rows, completed, err := pc.rows(c, user, testament)
	if err != nil {
		return nil, err
	}
	return pageData(c, "Progress", gin.H{
		"Books":      rows,
		"Completed":  completed,
		"Testament":  testament,
		"Testaments": testamentOptions,
	}), nil
}

func (pc *ProgressController) Index(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	testament, err := pc.prefs.GetOrDefault(c.Request.Context(), user.ID, entities.PreferenceKeyProgressTestament, testamentAll)
	if err != nil {
		respondInternalError(c, err, "load testament preference")
		return
	}
	data, err := pc.gridData(c, user, normalizeTestament(testament))
	if err != nil {
		respondInternalError(c, err, "progress grid")
		return
	}
	c.HTML(http.StatusOK, "progress", data)
}

// SetTestament stores the grid filter and re-renders it.
func (pc *ProgressController) SetTestament(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	testament := normalizeTestament(c.PostForm("testament"))
	if err := pc.prefs.Set(c.Request.Context(), user.ID, entities.PreferenceKeyProgressTestament, testament); err != nil {
		respondInternalError(c, err, "save testament preference")
		return
	}

	switch {
	case isHTMXRequest(c):
		data, err := pc.gridData(c, user, testament)
		if err != nil {
			respondInternalError(c, err, "progress grid")
			return
		}
		c.HTML(http.StatusOK, "progress_grid", data)
	case wantsJSON(c):
		c.JSON(http.StatusOK, gin.H{"testament": testament})
	default:
		c.Redirect(http.StatusFound, "/progress")
	}
}

// APIBooks lists the reference table, optionally filtered by ?testament=.
func (pc *ProgressController) APIBooks(c *gin.Context) {
	books := pc.booksFor(c.Query("testament"))
	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// APIProgress returns every book with the reader's completion.
func (pc *ProgressController) APIProgress(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	testament := normalizeTestament(c.Query("testament"))
	rows, completed, err := pc.rows(c, user, testament)
	if err != nil {
		respondInternalError(c, err, "api progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"testament": testament,
		"books":     rows,
		"completed": completed,
	})
}
