package handler

// RESPONSE HELPERS:
// Every JSON endpoint answers through writeJSON / writeError so the admin
// UI always sees the same envelope:
//
//	{"ok": true, ...}
//	{"ok": false, "error": "conflict", "message": "file conflict with id data/content/site.json"}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/portfolio/internal/apperror"
)

// ErrorResponse is the error envelope returned by all JSON endpoints.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`   // machine-readable error type, e.g. "not_found"
	Message string `json:"message"` // human-readable description
}

// writeJSON sends a JSON response with the given status code. Headers must
// be set before WriteHeader; the body follows.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// classify maps a domain error to an HTTP status and error type.
//
//	ErrValidation   → 400 validation_error
//	ErrUnauthorized → 401 unauthorized
//	ErrForbidden    → 403 forbidden
//	ErrNotFound     → 404 not_found
//	ErrConflict     → 409 conflict
//	ErrConfig       → 500 config_error
//	ErrDecode       → 500 decode_error
//	ErrUpstream     → 502 upstream_error
//
// Anything else is a 500 internal_error whose text is not exposed.
func classify(err error) (status int, errorType, message string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error", "An internal error occurred"
	}

	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error", appErr.Message
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", appErr.Message
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden", appErr.Message
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found", appErr.Message
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict", appErr.Message + "; reload and try again"
	case errors.Is(err, apperror.ErrConfig):
		return http.StatusInternalServerError, "config_error", appErr.Message
	case errors.Is(err, apperror.ErrDecode):
		return http.StatusInternalServerError, "decode_error", appErr.Message
	case errors.Is(err, apperror.ErrUpstream):
		return http.StatusBadGateway, "upstream_error", appErr.Message
	}
	return http.StatusInternalServerError, "internal_error", "An internal error occurred"
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends the error envelope. Server-side failures are logged.
func writeError(w http.ResponseWriter, err error) {
	status, errorType, message := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("error_type", errorType),
			slog.String("error", err.Error()),
		)
	}
	writeJSON(w, status, ErrorResponse{
		OK:      false,
		Error:   errorType,
		Message: message,
	})
}

// writePlainError is writeError for endpoints that serve bytes rather than
// JSON (asset proxies, resume viewer).
func writePlainError(w http.ResponseWriter, err error) {
	status, errorType, message := classify(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed",
			slog.String("error_type", errorType),
			slog.String("error", err.Error()),
		)
	}
	http.Error(w, message, status)
}
