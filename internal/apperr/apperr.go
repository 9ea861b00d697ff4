// Package apperr defines the error taxonomy shared by services and HTTP controllers.
//
// Services return these types; controllers map them onto status codes and
// field-level messages. Anything that is not one of these types is treated as an
// unclassified internal failure.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError carries field-level messages for malformed or out-of-range input.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidation(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InvalidArgumentError reports a single malformed expression, e.g. an inverted chapter range.
type InvalidArgumentError struct {
	Field   string
	Message string
}

func NewInvalidArgument(field, message string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Message: message}
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError is a unique-constraint violation with a user-facing message.
type ConflictError struct {
	Field   string
	Message string
	Err     error
}

func NewConflict(field, message string, cause error) *ConflictError {
	return &ConflictError{Field: field, Message: message, Err: cause}
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return e.Err }

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       any
}

func NewNotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInvalidArgument(err error) bool {
	var target *InvalidArgumentError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsClientError reports whether err is something the user can fix by changing input.
func IsClientError(err error) bool {
	return IsValidation(err) || IsInvalidArgument(err) || IsConflict(err)
}

// FieldErrors flattens any client error into a field -> messages map for rendering.
// Returns nil for errors outside the taxonomy.
func FieldErrors(err error) map[string][]string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Fields
	}
	var ia *InvalidArgumentError
	if errors.As(err, &ia) {
		return map[string][]string{ia.Field: {ia.Message}}
	}
	var c *ConflictError
	if errors.As(err, &c) {
		return map[string][]string{c.Field: {c.Message}}
	}
	return nil
}
