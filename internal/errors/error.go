package errors

import (
	"errors"
	"fmt"

	"github.com/vango-dev/carbon/pkg/pattern"
	"github.com/vango-dev/carbon/pkg/router"
)

// Category represents the type of error.
type Category string

const (
	CategoryRouter   Category = "router"
	CategoryPattern  Category = "pattern"
	CategoryConfig   Category = "config"
	CategoryManifest Category = "manifest"
	CategoryTemplate Category = "template"
	CategoryCLI      Category = "cli"
)

// Location points at a line in a configuration or manifest file.
type Location struct {
	File string
	Line int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Line > 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return l.File
}

// CarbonError is a structured error with a code, a hint and a documentation
// link, rendered by the CLI.
type CarbonError struct {
	// Code is a unique error identifier (e.g., "C001").
	Code string

	// Category is the error type (router, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file the error was found in, if any.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example shows the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CarbonError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CarbonError) Unwrap() error {
	return e.Wrapped
}

// WithLocation records the file (and optionally line) the error refers to.
func (e *CarbonError) WithLocation(file string, line int) *CarbonError {
	e.Location = &Location{File: file, Line: line}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CarbonError) WithSuggestion(s string) *CarbonError {
	e.Suggestion = s
	return e
}

// WithExample adds an example to the error.
func (e *CarbonError) WithExample(ex string) *CarbonError {
	e.Example = ex
	return e
}

// WithDetail replaces the detailed explanation.
func (e *CarbonError) WithDetail(d string) *CarbonError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *CarbonError) Wrap(err error) *CarbonError {
	e.Wrapped = err
	return e
}

// New creates a CarbonError from a registered error code.
func New(code string) *CarbonError {
	template, ok := registry[code]
	if !ok {
		return &CarbonError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CarbonError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new CarbonError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CarbonError {
	return &CarbonError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CarbonError.
func FromError(err error, code string) *CarbonError {
	if err == nil {
		return nil
	}
	var ce *CarbonError
	if errors.As(err, &ce) {
		return ce
	}
	return New(code).Wrap(err)
}

// FromRouterError maps errors returned by the router and pattern packages to
// their registered codes. Other errors are wrapped under fallback.
func FromRouterError(err error, fallback string) *CarbonError {
	if err == nil {
		return nil
	}
	var ce *CarbonError
	if errors.As(err, &ce) {
		return ce
	}

	var notFound *router.RouteNotFoundError
	var missing *router.MissingParameterError
	var ambiguous *router.AmbiguousRegionError
	var bad *pattern.PatternError

	switch {
	case errors.As(err, &notFound):
		return New("C001").Wrap(err).
			WithSuggestion(fmt.Sprintf("Add a route named %q or fix the name passed to URL/Go.", notFound.Name))
	case errors.As(err, &missing):
		return New("C002").Wrap(err).
			WithSuggestion(fmt.Sprintf("Pass %q or give route %q a default for it.", missing.Param, missing.Route))
	case errors.As(err, &ambiguous):
		return New("C003").Wrap(err).
			WithSuggestion("Declare the template and data inside regions instead of at the top level.")
	case errors.As(err, &bad):
		return New("C004").Wrap(err).
			WithExample("/users/{id}/posts/{post}")
	case errors.Is(err, pattern.ErrPattern):
		return New("C004").Wrap(err)
	}
	return New(fallback).Wrap(err)
}
