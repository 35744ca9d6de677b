package registry

import (
	"errors"
	"fmt"
)

// ErrorKind classifies registry failures so callers can tell "fix your
// input" apart from "system or data problem".
type ErrorKind string

const (
	KindAuthorization       ErrorKind = "Authorization"
	KindNotFound            ErrorKind = "NotFound"
	KindAlreadyExists       ErrorKind = "AlreadyExists"
	KindInvalidArgument     ErrorKind = "InvalidArgument"
	KindArithmeticUnderflow ErrorKind = "ArithmeticUnderflow"
	KindStaleData           ErrorKind = "StaleData"
)

// Error is the kind-tagged error type returned by every registry operation.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	str := fmt.Sprintf("[%s] %s", e.Kind, e.Message)
	if e.cause != nil {
		str += fmt.Sprintf(" (%s)", e.cause)
	}
	return str
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrAuthorization       = &Error{Kind: KindAuthorization}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrAlreadyExists       = &Error{Kind: KindAlreadyExists}
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrArithmeticUnderflow = &Error{Kind: KindArithmeticUnderflow}
	ErrStaleData           = &Error{Kind: KindStaleData}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the error kind, or empty string for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
