// Package apperror defines the error taxonomy shared by the store clients,
// the services and the HTTP handlers.
//
// Lower layers return an *AppError wrapping one of the sentinels below.
// Callers add context with fmt.Errorf("...: %w", err) and the HTTP layer
// maps the sentinel back to a status code with errors.Is.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConfig       = errors.New("configuration error")
	ErrUpstream     = errors.New("upstream error")
	ErrDecode       = errors.New("decode error")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error

	// Upstream failures carry the remote status and response body so the
	// admin UI can show what GitHub actually said.
	Status int
	Body   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when the admin secret or session marker is wrong.
// The message is deliberately generic.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// MissingConfig reports required environment variables that are unset.
func MissingConfig(names ...string) *AppError {
	return &AppError{
		Err:     ErrConfig,
		Message: "missing required configuration: " + strings.Join(names, ", "),
		Field:   strings.Join(names, ","),
	}
}

// Upstream wraps a non-2xx response from the remote content store.
func Upstream(status int, body string) *AppError {
	body = strings.TrimSpace(body)
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("upstream returned %d: %s", status, body),
		Status:  status,
		Body:    body,
	}
}

// DecodeFailed reports content at path that is not valid UTF-8 JSON
// (or, for the store clients, a payload they could not decode).
func DecodeFailed(path string, err error) *AppError {
	return &AppError{
		Err:     ErrDecode,
		Message: fmt.Sprintf("decoding %s: %v", path, err),
		Field:   path,
	}
}
