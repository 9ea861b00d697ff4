package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	e := NewValidation("date_read", "must be today or yesterday")
	e.Add("notes_text", "too long")
	e.Add("date_read", "is required")

	assert.True(t, e.HasErrors())
	assert.Equal(t, []string{"must be today or yesterday", "is required"}, e.Fields["date_read"])
	assert.Equal(t,
		"validation failed: date_read: must be today or yesterday, is required; notes_text: too long",
		e.Error())

	var empty *ValidationError
	assert.False(t, empty.HasErrors())
}

func TestClassification(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	tests := []struct {
		name     string
		err      error
		client   bool
		conflict bool
		notFound bool
		fields   map[string][]string
	}{
		{
			name:   "validation",
			err:    NewValidation("book_id", "invalid"),
			client: true,
			fields: map[string][]string{"book_id": {"invalid"}},
		},
		{
			name:   "invalid argument wrapped",
			err:    fmt.Errorf("parse: %w", NewInvalidArgument("chapter_input", "range is inverted")),
			client: true,
			fields: map[string][]string{"chapter_input": {"range is inverted"}},
		},
		{
			name:     "conflict",
			err:      NewConflict("chapter_input", "already logged", cause),
			client:   true,
			conflict: true,
			fields:   map[string][]string{"chapter_input": {"already logged"}},
		},
		{
			name:     "not found",
			err:      NewNotFound("book", 99),
			notFound: true,
		},
		{
			name: "unclassified",
			err:  errors.New("disk full"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.client, IsClientError(tt.err))
			assert.Equal(t, tt.conflict, IsConflict(tt.err))
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.fields, FieldErrors(tt.err))
		})
	}
}

func TestConflictUnwrap(t *testing.T) {
	cause := errors.New("duplicate key")
	err := NewConflict("chapter_input", "already logged", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "already logged", err.Error())
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "book 67 not found", NewNotFound("book", 67).Error())
}
