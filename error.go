package veld

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
)

// Machine-readable error codes used in JSON error responses.
const (
	CodeBadRequest       = "bad_request"
	CodeUnauthorized     = "unauthorized"
	CodeForbidden        = "forbidden"
	CodeNotFound         = "not_found"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeConflict         = "conflict"
	CodeValidation       = "validation_failed"
	CodeEntityTooLarge   = "entity_too_large"
	CodeTimeout          = "timeout"
	CodeTooManyRequests  = "too_many_requests"
	CodeInternal         = "internal"
)

// Error describes an http error with a status code and a machine-readable
// code. It is the only error shape the responder renders; everything else
// is normalized into it first.
type Error struct {
	Message string
	Status  int
	Code    string
	Details any

	cause error
}

// NewTypedError inits a new error given the status code and machine code.
func NewTypedError(status int, code, message string) *Error {
	return &Error{Message: message, Status: status, Code: code}
}

func (e *Error) Error() string {
	status := http.StatusText(e.Status)
	if status == "" {
		status = "Unknown"
	}

	return fmt.Sprintf("%s: %s", status, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// WithDetails attaches a structured payload to the error.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// BadRequest returns a 400 error.
func BadRequest(message string) *Error {
	return NewTypedError(http.StatusBadRequest, CodeBadRequest, message)
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) *Error {
	return NewTypedError(http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden returns a 403 error.
func Forbidden(message string) *Error {
	return NewTypedError(http.StatusForbidden, CodeForbidden, message)
}

// NotFound returns a 404 error.
func NotFound(message string) *Error {
	return NewTypedError(http.StatusNotFound, CodeNotFound, message)
}

// MethodNotAllowed returns a 405 error.
func MethodNotAllowed(message string) *Error {
	return NewTypedError(http.StatusMethodNotAllowed, CodeMethodNotAllowed, message)
}

// Conflict returns a 409 error.
func Conflict(message string) *Error {
	return NewTypedError(http.StatusConflict, CodeConflict, message)
}

// EntityTooLarge returns a 413 error.
func EntityTooLarge(message string) *Error {
	return NewTypedError(http.StatusRequestEntityTooLarge, CodeEntityTooLarge, message)
}

// Timeout returns a 408 error.
func Timeout(message string) *Error {
	return NewTypedError(http.StatusRequestTimeout, CodeTimeout, message)
}

// TooManyRequests returns a 429 error carrying a retry hint in its details.
func TooManyRequests(message string, retryAfter time.Duration) *Error {
	err := NewTypedError(http.StatusTooManyRequests, CodeTooManyRequests, message)
	err.Details = map[string]any{"retryAfter": retryAfter.String()}

	return err
}

// Internal returns a 500 error wrapping the underlying cause. The cause's
// message is carried so development responses can surface it.
func Internal(cause error) *Error {
	err := NewTypedError(http.StatusInternalServerError, CodeInternal, cause.Error())
	err.cause = cause

	return err
}

// FieldError describes a single failed parameter validation.
type FieldError struct {
	Param   string `json:"param"`
	Message string `json:"message"`
}

// Validation returns a 400 error listing every failed parameter.
func Validation(fields []FieldError) *Error {
	err := NewTypedError(http.StatusBadRequest, CodeValidation, "validation failed")
	err.Details = fields

	return err
}

// Normalize converts any value caught from the pipeline into a typed error.
// Already-typed errors pass through unchanged, generic errors are wrapped
// as internal errors carrying the original message, and non-error values
// (recovered panics) become internal errors with an unknown-error message.
func Normalize(v any) *Error {
	switch err := v.(type) {
	case *Error:
		return err
	case error:
		if typed, ok := asTypedError(err); ok {
			return typed
		}
		return Internal(err)
	default:
		return Internal(errors.Newf("unknown error: %v", v))
	}
}

// asTypedError uses errors.As to unwrap any error and look for an *Error.
func asTypedError(err error) (*Error, bool) {
	var typed *Error
	ok := errors.As(err, &typed)
	return typed, ok
}

// StatusOf returns the error's status code if it is or wraps an [*Error]
// and 500 otherwise.
func StatusOf(err error) int {
	if typed, ok := asTypedError(err); ok {
		return typed.Status
	}
	return http.StatusInternalServerError
}
