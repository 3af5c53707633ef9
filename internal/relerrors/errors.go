// Package relerrors provides the structured error taxonomy the rest of the
// system reports through: ParamError, NotFound, UpstreamError, StoreError,
// ParseError, Cancelled, Timeout, Internal.
package relerrors

import (
	"fmt"
)

// Kind is the category of a relerrors.Error.
type Kind int

const (
	KindParamError Kind = iota
	KindNotFound
	KindUpstreamError
	KindStoreError
	KindParseError
	KindCancelled
	KindTimeout
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindParamError:
		return "ParamError"
	case KindNotFound:
		return "NotFound"
	case KindUpstreamError:
		return "UpstreamError"
	case KindStoreError:
		return "StoreError"
	case KindParseError:
		return "ParseError"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a structured error carrying a Kind, an optional cause, and
// free-form context (e.g. "target", "fetcher", "upstream") for aggregation
// by the traversal driver and facade.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by Kind, ignoring message/context/cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithContext attaches a key/value pair and returns e for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a Kind and message. Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, format string, args ...any) *Error {
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// Convenience constructors, one per Kind.

func ParamError(format string, args ...any) *Error {
	return Newf(KindParamError, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

func UpstreamError(err error, format string, args ...any) *Error {
	return Wrapf(err, KindUpstreamError, format, args...)
}

func StoreError(err error, format string, args ...any) *Error {
	return Wrapf(err, KindStoreError, format, args...)
}

func ParseError(err error, format string, args ...any) *Error {
	return Wrapf(err, KindParseError, format, args...)
}

func Cancelled(format string, args ...any) *Error {
	return Newf(KindCancelled, format, args...)
}

func Timeout(format string, args ...any) *Error {
	return Newf(KindTimeout, format, args...)
}

func Internal(format string, args ...any) *Error {
	return Newf(KindInternal, format, args...)
}

// GetKind returns the Kind of err, or KindInternal if err is not a *Error.
func GetKind(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
