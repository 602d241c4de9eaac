// Package apperror defines the error taxonomy shared by the lifecycle
// manager, the chat broker and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

// Error codes.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeCapacity     = "capacity"
	CodeForbidden    = "forbidden"
	CodeInvariant    = "invariant"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal_error"
)

// Error is a classified application error carrying a user-facing message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so callers can write
// errors.Is(err, apperror.ErrCapacity).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrValidation   = &Error{Code: CodeValidation, Message: "Invalid request"}
	ErrNotFound     = &Error{Code: CodeNotFound, Message: "Not found"}
	ErrConflict     = &Error{Code: CodeConflict, Message: "Conflict"}
	ErrCapacity     = &Error{Code: CodeCapacity, Message: "Session full"}
	ErrForbidden    = &Error{Code: CodeForbidden, Message: "Forbidden"}
	ErrInvariant    = &Error{Code: CodeInvariant, Message: "Operation would break a session invariant"}
	ErrUnauthorized = &Error{Code: CodeUnauthorized, Message: "Authentication required"}
)

func Validation(message string) *Error { return &Error{Code: CodeValidation, Message: message} }
func NotFound(message string) *Error   { return &Error{Code: CodeNotFound, Message: message} }
func Conflict(message string) *Error   { return &Error{Code: CodeConflict, Message: message} }
func Capacity(message string) *Error   { return &Error{Code: CodeCapacity, Message: message} }
func Forbidden(message string) *Error  { return &Error{Code: CodeForbidden, Message: message} }
func Invariant(message string) *Error  { return &Error{Code: CodeInvariant, Message: message} }

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Wrap attaches a cause to a classified error without changing its message.
func Wrap(e *Error, cause error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: cause}
}

// StatusCode maps an error to the HTTP status returned by the API.
// Unclassified errors are internal.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Code {
	case CodeValidation, CodeConflict, CodeCapacity, CodeInvariant:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a client. Internal errors
// never leak their detail.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		return e.Message
	}
	return "Server error"
}

// CodeOf returns the error code, or CodeInternal for unclassified errors.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
