// Package apperr holds the error taxonomy shared by the content, upload and
// editor code paths, and its mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound means the content document row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means a write payload was malformed.
	ErrValidation = errors.New("validation failed")
	// ErrBackend means the document store or object store failed.
	ErrBackend = errors.New("backend failure")
	// ErrBadRequest means upload input was missing or invalid.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized means the admin credential was missing or wrong.
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFound wraps ErrNotFound with a message.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Validation wraps ErrValidation with a message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// BadRequest wraps ErrBadRequest with a message.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Backend wraps a transport or query failure so that both ErrBackend and
// the original cause stay matchable with errors.Is.
func Backend(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBackend, err)
}

// HTTPStatus maps an error from this taxonomy to a response status.
// Anything unrecognised is a 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
