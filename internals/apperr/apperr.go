// Package apperr carries the typed errors returned by the admissions and
// enrollment services. Callers branch on Kind; the web layer maps kinds to
// HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindInvalidState Kind = "INVALID_STATE"
	KindValidation   Kind = "VALIDATION_ERROR"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// Error is the domain error type.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for KindValidation.
	Fields map[string][]string
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrInvalidState = &Error{Kind: KindInvalidState}
	ErrValidation   = &Error{Kind: KindValidation}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

func InvalidState(format string, args ...any) *Error {
	return New(KindInvalidState, format, args...)
}

// Validation builds a validation error; fields may be nil.
func Validation(fields map[string][]string, format string, args ...any) *Error {
	e := New(KindValidation, format, args...)
	e.Fields = fields
	return e
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool     { return errors.Is(err, ErrConflict) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
