package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies the class of an application error.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUnavailable  Code = "UNAVAILABLE"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// AppError carries the HTTP status and the client-safe message for an error.
// Cause is for server-side logging only.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Cause      error
	Details    any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause attaches the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// WithDetails attaches client-visible details, e.g. per-field validation messages.
func (e *AppError) WithDetails(d any) *AppError {
	e.Details = d
	return e
}

func New(code Code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Validation(message string) *AppError {
	return New(CodeValidation, message, http.StatusBadRequest)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found", http.StatusNotFound)
}

// Conflict maps to 400: duplicate registrations are reported like bad input.
func Conflict(message string) *AppError {
	return New(CodeConflict, message, http.StatusBadRequest)
}

func RateLimited(message string) *AppError {
	return New(CodeRateLimited, message, http.StatusTooManyRequests)
}

func Unavailable(message string) *AppError {
	return New(CodeUnavailable, message, http.StatusServiceUnavailable)
}

func Internal(cause error) *AppError {
	return New(CodeInternal, "internal server error", http.StatusInternalServerError).WithCause(cause)
}

// From returns the AppError in err's chain, or nil.
func From(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HTTPStatus returns the status for err; anything unclassified is a 500.
func HTTPStatus(err error) int {
	if ae := From(err); ae != nil {
		return ae.HTTPStatus
	}
	return http.StatusInternalServerError
}
