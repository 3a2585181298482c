package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Match with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrStore        = errors.New("store failure")
)

// Error carries a kind, a caller-facing message and an optional cause that
// is only ever logged.
type Error struct {
	Kind    error
	Message string
	Op      string
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Cause != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Is lets errors.Is(err, ErrNotFound) and friends match on the kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func InvalidInput(message string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// InvalidInputWithCause keeps the validator error for logs.
func InvalidInputWithCause(message string, cause error) *Error {
	return &Error{Kind: ErrInvalidInput, Message: message, Cause: cause}
}

func NotFound(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: ErrUnauthorized, Message: message}
}

// Store wraps an unexpected persistence error raised while running op.
func Store(op string, cause error) *Error {
	return &Error{Kind: ErrStore, Message: "Server error", Op: op, Cause: cause}
}

// StatusCode maps an error to the HTTP status it is surfaced with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-facing message for err. Anything that is not an
// *Error gets the generic server message.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != ErrStore {
		return e.Message
	}
	return "Server error"
}
