// Package apperror defines the error taxonomy shared by services and handlers.
package apperror

import "errors"

// Kind classifies a failure. Kinds are comparable with errors.Is:
//
//	errors.Is(err, apperror.NotFound)
type Kind string

const (
	InvalidInput Kind = "invalid_input"
	Unauthorized Kind = "unauthorized"
	Conflict     Kind = "conflict"
	NotFound     Kind = "not_found"
	DataError    Kind = "data_error"
)

func (k Kind) Error() string { return string(k) }

// Error is a classified, human-readable failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func NewInvalidInput(message string) *Error { return New(InvalidInput, message) }
func NewUnauthorized(message string) *Error { return New(Unauthorized, message) }
func NewConflict(message string) *Error     { return New(Conflict, message) }
func NewNotFound(message string) *Error     { return New(NotFound, message) }
func NewDataError(message string) *Error    { return New(DataError, message) }

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
