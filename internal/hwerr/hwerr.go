package hwerr

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors so callers can map them to behavior
// (reject, degrade, surface) without string matching.
type Kind string

const (
	// KindValidation marks bad input, rejected before any I/O happens.
	KindValidation Kind = "validation"
	// KindRemoteUnreachable marks network or auth failures talking to the controller.
	KindRemoteUnreachable Kind = "remote_unreachable"
	// KindCommandTimeout marks a command channel that did not respond in time.
	KindCommandTimeout Kind = "command_timeout"
	// KindCommandRejected marks a device-reported error for a syntactically valid command.
	KindCommandRejected Kind = "command_rejected"
	// KindCacheNotReady marks a domain with no successful poll yet. This is a
	// state, not a failure.
	KindCacheNotReady Kind = "cache_not_ready"
)

type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Kind() Kind {
	return e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(kind Kind, format string, a ...interface{}) *Error {
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, a...),
	}
}

func Wrap(kind Kind, cause error, format string, a ...interface{}) *Error {
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, a...),
		cause:   cause,
	}
}

// KindOf returns the kind of err, or the empty Kind for errors that did not
// originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
