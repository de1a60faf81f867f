package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal server error")
	ErrRateLimitExceeded  = errors.New("rate limit exceeded")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// AppError carries a client-facing message on top of one of the sentinel
// errors above.
type AppError struct {
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ErrInternal.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New wraps kind (usually a sentinel) with a message.
func New(kind error, message string) *AppError {
	return &AppError{Message: message, Err: kind}
}

// Wrap is New with the underlying cause kept for errors.Is and logging.
func Wrap(kind error, message string, cause error) *AppError {
	return &AppError{Message: message, Err: fmt.Errorf("%w: %w", kind, cause)}
}

func BadRequest(message string) *AppError { return New(ErrBadRequest, message) }
func NotFound(message string) *AppError   { return New(ErrNotFound, message) }
func Conflict(message string) *AppError   { return New(ErrConflict, message) }
func Forbidden(message string) *AppError  { return New(ErrForbidden, message) }

// MapErrorToStatus maps common errors to HTTP status codes
func MapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
