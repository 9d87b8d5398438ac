// Package apperr defines the error kinds shared by every layer of the service.
package apperr

import "errors"

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
)

// Error pairs an error kind with a short message that is safe to show to callers.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes the kind so errors.Is(err, ErrNotFound) works on coded errors.
func (e *Error) Unwrap() error { return e.Kind }

// New returns a coded error of the given kind.
func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Validation returns an ErrValidation-kind error.
func Validation(message string) error { return New(ErrValidation, message) }

// NotFound returns an ErrNotFound-kind error.
func NotFound(message string) error { return New(ErrNotFound, message) }

// Forbidden returns an ErrForbidden-kind error.
func Forbidden(message string) error { return New(ErrForbidden, message) }

// Conflict returns an ErrConflict-kind error.
func Conflict(message string) error { return New(ErrConflict, message) }

// MessageOf returns the caller-facing message for err. Errors that carry no
// code (store and driver failures) collapse to "internal error".
func MessageOf(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Error()
	}
	for _, kind := range []error{ErrValidation, ErrNotFound, ErrForbidden, ErrUnauthenticated, ErrConflict, ErrAlreadyExists} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal error"
}
