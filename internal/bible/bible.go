// Package bible provides the static reference table of the 66 Bible books and
// the chapter-expression parsing used when logging readings.
//
// The table is immutable once loaded. Default returns the process-wide table built
// from the embedded books.yaml; Load builds an independent one from any YAML source.
package bible

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/biblehabit/tracker/internal/apperr"
)

// BookCount is the number of books in the canon served by this table.
const BookCount = 66

// FieldChapterInput is the form field chapter expressions are reported against.
const FieldChapterInput = "chapter_input"

type Testament string

const (
	TestamentOld Testament = "old"
	TestamentNew Testament = "new"
)

// ParseTestament maps a filter value onto a testament. Anything other than
// "old" or "new" means no filter and returns ok=false.
func ParseTestament(s string) (Testament, bool) {
	switch Testament(strings.ToLower(strings.TrimSpace(s))) {
	case TestamentOld:
		return TestamentOld, true
	case TestamentNew:
		return TestamentNew, true
	}
	return "", false
}

type Book struct {
	ID           int       `yaml:"id" json:"id"`
	Name         string    `yaml:"name" json:"name"`
	Abbreviation string    `yaml:"abbreviation" json:"abbreviation"`
	Chapters     int       `yaml:"chapters" json:"chapters"`
	Testament    Testament `yaml:"testament" json:"testament"`
}

// Table is a read-only lookup indexed by book id.
type Table struct {
	books [BookCount + 1]Book // index 0 unused
}

//go:embed books.yaml
var booksYAML []byte

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the table built from the embedded book list.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(booksYAML))
		if err != nil {
			panic(fmt.Sprintf("bible: embedded book table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Load parses a YAML book list and checks that ids run 1..66 without gaps.
func Load(r io.Reader) (*Table, error) {
	var doc struct {
		Books []Book `yaml:"books"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode book table: %w", err)
	}
	if len(doc.Books) != BookCount {
		return nil, fmt.Errorf("expected %d books, got %d", BookCount, len(doc.Books))
	}

	t := &Table{}
	for i, b := range doc.Books {
		if b.ID != i+1 {
			return nil, fmt.Errorf("book at position %d has id %d", i+1, b.ID)
		}
		if b.Chapters < 1 {
			return nil, fmt.Errorf("book %d (%s) has no chapters", b.ID, b.Name)
		}
		if b.Testament != TestamentOld && b.Testament != TestamentNew {
			return nil, fmt.Errorf("book %d (%s) has unknown testament %q", b.ID, b.Name, b.Testament)
		}
		t.books[b.ID] = b
	}
	return t, nil
}

// ListBooks returns all books in canonical order.
func (t *Table) ListBooks() []Book {
	out := make([]Book, BookCount)
	copy(out, t.books[1:])
	return out
}

// BooksByTestament returns the books of one testament in canonical order.
func (t *Table) BooksByTestament(testament Testament) []Book {
	var out []Book
	for _, b := range t.books[1:] {
		if b.Testament == testament {
			out = append(out, b)
		}
	}
	return out
}

func (t *Table) ValidateBookID(id int) bool {
	return id >= 1 && id <= BookCount
}

func (t *Table) Book(id int) (Book, error) {
	if !t.ValidateBookID(id) {
		return Book{}, apperr.NewNotFound("book", id)
	}
	return t.books[id], nil
}

func (t *Table) ChapterCount(bookID int) (int, error) {
	b, err := t.Book(bookID)
	if err != nil {
		return 0, err
	}
	return b.Chapters, nil
}

// ValidateChapterRange reports whether 1 <= start <= end <= chapter count of the book.
func (t *Table) ValidateChapterRange(bookID, start, end int) bool {
	count, err := t.ChapterCount(bookID)
	if err != nil {
		return false
	}
	return start >= 1 && start <= end && end <= count
}

// FormatReferenceRange renders "Genesis 1-3", or "Genesis 1" for a single chapter.
func (t *Table) FormatReferenceRange(bookID, start, end int) string {
	b, err := t.Book(bookID)
	if err != nil {
		return ""
	}
	if start == end {
		return fmt.Sprintf("%s %d", b.Name, start)
	}
	return fmt.Sprintf("%s %d-%d", b.Name, start, end)
}

// ChapterRange is an inclusive range of chapters within one book.
type ChapterRange struct {
	Start int
	End   int
}

// Chapters expands the range into its chapter numbers.
func (r ChapterRange) Chapters() []int {
	if r.End < r.Start {
		return nil
	}
	out := make([]int, 0, r.End-r.Start+1)
	for c := r.Start; c <= r.End; c++ {
		out = append(out, c)
	}
	return out
}

func (r ChapterRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

var chapterInputPattern = regexp.MustCompile(`^(\d+|\d+-\d+)$`)

// ParseChapterInput accepts "N" or "N-M". Malformed and inverted expressions
// fail with an InvalidArgumentError on the chapter_input field. Bounds against a
// particular book are checked separately by ValidateChapterRange.
func ParseChapterInput(text string) (ChapterRange, error) {
	s := strings.TrimSpace(text)
	if !chapterInputPattern.MatchString(s) {
		return ChapterRange{}, apperr.NewInvalidArgument(FieldChapterInput,
			"Enter a chapter number (e.g. 3) or a range (e.g. 1-5).")
	}

	startText, endText, isRange := strings.Cut(s, "-")
	start, err := strconv.Atoi(startText)
	if err != nil {
		return ChapterRange{}, apperr.NewInvalidArgument(FieldChapterInput, "Chapter number is too large.")
	}
	if !isRange {
		return ChapterRange{Start: start, End: start}, nil
	}

	end, err := strconv.Atoi(endText)
	if err != nil {
		return ChapterRange{}, apperr.NewInvalidArgument(FieldChapterInput, "Chapter number is too large.")
	}
	if start > end {
		return ChapterRange{}, apperr.NewInvalidArgument(FieldChapterInput,
			fmt.Sprintf("Range %d-%d is inverted; the first chapter must not exceed the last.", start, end))
	}
	return ChapterRange{Start: start, End: end}, nil
}
