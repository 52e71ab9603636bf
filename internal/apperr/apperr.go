// Package apperr provides structured errors for the HTTP boundary:
// each error carries a category that maps to a status code and a
// client-safe JSON shape.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an error for status mapping and metrics.
type Kind string

const (
	// KindValidation indicates invalid input (HTTP 400)
	KindValidation Kind = "validation"
	// KindNotFound indicates a missing resource (HTTP 404)
	KindNotFound Kind = "not_found"
	// KindInternal indicates a server-side failure (HTTP 500)
	KindInternal Kind = "internal"
)

// Error is a categorized error with optional cause and context fields.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// With attaches a context field and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// Validation creates a validation error (HTTP 400).
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// NotFound creates a not-found error (HTTP 404).
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal creates an internal error (HTTP 500) wrapping its cause.
func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// Response is the JSON error shape sent to clients.
type Response struct {
	Error  string         `json:"error"`
	Kind   Kind           `json:"kind"`
	Fields map[string]any `json:"fields,omitempty"`
}

// Response converts the error to its client shape. Causes are never
// exposed to clients.
func (e *Error) Response() Response {
	return Response{Error: e.Message, Kind: e.Kind, Fields: e.Fields}
}

// From normalizes any error into an *Error. Structured errors pass
// through, even when wrapped; everything else becomes an opaque
// internal error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return Internal("internal server error", err)
}
