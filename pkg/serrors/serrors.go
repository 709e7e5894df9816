// Package serrors defines the semantic error kinds used across bucketscan and
// a wrapper error type that carries a kind next to an optional cause.
//
// Kinds form a closed set. Probe failures are always mapped to exactly one of
// the probe kinds below; anything the classifier does not recognise becomes
// ErrGeneric, which is terminal.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a marker interface implemented by all semantic error kinds created
// with NewKind or NewRetryableKind.
type Kind interface {
	error
	// Retryable reports whether a failure of this kind is transient and should
	// be handed to the retry policy.
	Retryable() bool
	isKind()
}

// kind is an unexported implementation of Kind used as a sentinel value for a
// semantic error category.
type kind struct {
	s         string
	retryable bool
}

func (k kind) Error() string   { return k.s }
func (k kind) Retryable() bool { return k.retryable }
func (k kind) isKind()         {}

// NewKind creates a new terminal error kind. The name is what ends up in the
// errors output, so it should be a single token.
func NewKind(name string) Kind { return kind{s: name} }

// NewRetryableKind creates a new transient error kind.
func NewRetryableKind(name string) Kind { return kind{s: name, retryable: true} }

// Probe failure kinds. The five retryable kinds are network level failures;
// ErrGeneric is the catch-all.
var (
	// ErrConnect indicates the connection could not be established (dial or
	// host lookup failure).
	ErrConnect = NewRetryableKind("ClientConnectorError")
	// ErrTimeout indicates the request did not complete within its timeout.
	ErrTimeout = NewRetryableKind("TimeoutError")
	// ErrSocket indicates an OS level socket failure on an established connection.
	ErrSocket = NewRetryableKind("ClientOSError")
	// ErrTooManyRedirects indicates the redirect limit was exceeded.
	ErrTooManyRedirects = NewRetryableKind("TooManyRedirects")
	// ErrServerDisconnected indicates the server closed the connection before
	// the response was fully received.
	ErrServerDisconnected = NewRetryableKind("ServerDisconnectedError")
	// ErrGeneric is the terminal catch-all for anything not classified above.
	ErrGeneric = NewKind("Error")
)

// Kinds used outside of probing.
var (
	// ErrNotFound indicates a required input (e.g. the domain list) does not exist.
	ErrNotFound = NewKind("NOT_FOUND")
	// ErrBadRequest indicates invalid input or configuration.
	ErrBadRequest = NewKind("BAD_REQUEST")
)

// ProbeKinds lists every kind a probe failure can be classified as.
var ProbeKinds = []Kind{ //nolint: gochecknoglobals
	ErrConnect,
	ErrTimeout,
	ErrSocket,
	ErrTooManyRedirects,
	ErrServerDisconnected,
	ErrGeneric,
}

// Error represents a semantic error carrying a kind, an optional wrapped
// error and an optional message. errors.Is matches both the kind and the
// wrapped cause; errors.As extracts either.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With constructs a new semantic error with the given kind and message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap constructs a new semantic error with the given kind wrapping err.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// Error implements the error interface. The format is "<msg>: <err>", falling
// back to whichever part is set and finally to the kind name.
func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	default:
		return "unknown error"
	}
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// Is matches either the kind sentinel or the wrapped error chain.
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}
	if e.kind != nil && errors.Is(e.kind, target) {
		return true
	}

	return e.err != nil && errors.Is(e.err, target)
}

// As extracts either the kind sentinel or a value from the wrapped chain.
func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}
	if e.kind != nil && errors.As(e.kind, target) {
		return true
	}

	return e.err != nil && errors.As(e.err, target)
}

// Kind returns the kind associated with this error, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Cause returns the wrapped cause (may be nil).
func (e *Error) Cause() error { return e.err }

// KindOf returns the kind carried by err. Errors without a kind, including
// nil, map to ErrGeneric.
func KindOf(err error) Kind {
	var k Kind
	if err != nil && errors.As(err, &k) && k != nil {
		return k
	}

	return ErrGeneric
}
