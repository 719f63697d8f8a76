// Package errors provides structured errors for statica's CLI surface:
// a category, a message, and an optional fix suggestion rendered under it.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Category classifies an error for display.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryBuild  Category = "build"
	CategoryServe  Category = "serve"
	CategoryCLI    Category = "cli"
)

// Error is a structured CLI error.
type Error struct {
	// Category is the error class.
	Category Category

	// Message is a short description.
	Message string

	// Suggestion is a hint on how to fix the problem.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// New creates an Error.
func New(category Category, message string) *Error {
	return &Error{Category: category, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{Category: category, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestion attaches a fix suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// Wrap attaches an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Format renders the error for terminal output, suggestion included.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Suggestion != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

// AsError extracts a structured *Error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
