package tracker

import (
	"errors"
	"fmt"
)

// Kind discriminates the failure classes of an aircraft query.
type Kind int

const (
	// TransportFailure: network unreachable, timeout or non-2xx status.
	// Recovered inside Query.Aircraft (warning + empty result).
	TransportFailure Kind = iota + 1

	// MalformedResponse: a 2xx body that is not the expected JSON object.
	// Returned to the caller.
	MalformedResponse

	// MalformedRecord: a single state vector that cannot be decoded.
	// The record is dropped and the batch continues.
	MalformedRecord
)

func (k Kind) String() string {
	switch k {
	case TransportFailure:
		return "transport failure"
	case MalformedResponse:
		return "malformed response"
	case MalformedRecord:
		return "malformed record"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type produced by this package.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

func recordError(format string, args ...any) error {
	return &Error{Kind: MalformedRecord, Err: fmt.Errorf(format, args...)}
}
