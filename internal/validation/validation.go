// Package validation wraps go-playground/validator so struct tag failures come
// back as apperr.ValidationError keyed by the JSON/form field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/biblehabit/tracker/internal/apperr"
)

// MessageFunc turns one failed rule into a user-facing sentence. Returning ""
// falls back to DefaultMessage.
type MessageFunc func(field, tag, param string) string

type Validator struct {
	v        *validator.Validate
	messages MessageFunc
}

// New builds a validator that reports fields by their json tag name.
func New(messages MessageFunc) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v, messages: messages}
}

// Struct validates s. Rule failures become *apperr.ValidationError; anything
// else (a non-struct argument) is returned unchanged.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &apperr.ValidationError{}
	for _, fe := range fieldErrs {
		field := fe.Field()
		msg := ""
		if val.messages != nil {
			msg = val.messages(field, fe.Tag(), fe.Param())
		}
		if msg == "" {
			msg = DefaultMessage(field, fe.Tag(), fe.Param())
		}
		out.Add(field, msg)
	}
	return out
}

// DefaultMessage covers the tags used across the application.
func DefaultMessage(field, tag, param string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "min":
		return fmt.Sprintf("The %s must be at least %s.", label, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s.", label, param)
	case "datetime":
		return fmt.Sprintf("The %s is not a valid date.", label)
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", label, param)
	case "timezone":
		return fmt.Sprintf("The %s must be a valid time zone.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
