// Package apperr defines the error taxonomy shared by the auth, service and
// handler layers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	RateLimited
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case RateLimited:
		return "rate_limited"
	}
	return "internal"
}

// Error is a classified failure. Message is safe to show to clients; Err is
// the underlying cause and is only ever logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Invalid(msg string) *Error         { return New(InvalidInput, msg) }
func Unauthorized(msg string) *Error    { return New(Unauthenticated, msg) }
func Denied(msg string) *Error          { return New(Forbidden, msg) }
func Missing(msg string) *Error         { return New(NotFound, msg) }
func Duplicate(msg string) *Error       { return New(Conflict, msg) }
func TooManyAttempts(msg string) *Error { return New(RateLimited, msg) }

// Wrap classifies an unexpected failure as Internal, keeping err for logging.
func Wrap(err error, msg string) *Error {
	return &Error{Kind: Internal, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the client-safe message of err. Unclassified errors get a
// fixed message so that no internal detail leaks.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
