package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures
type ErrorKind string

const (
	// DeviceUnavailable means audio capture could not start.
	DeviceUnavailable ErrorKind = "DeviceUnavailable"
	// IOError covers file and audio access failures, including missing files.
	IOError ErrorKind = "IOError"
	// ModelError is an inference failure; it may be retried.
	ModelError ErrorKind = "ModelError"
	// ServiceUnavailable means the summarization backend is unreachable.
	ServiceUnavailable ErrorKind = "ServiceUnavailable"
	// Internal is a bug in this process, e.g. a recovered panic.
	Internal ErrorKind = "Internal"
)

// Error is a classified collaborator failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the operation that failed
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string
func Errorf(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal
// when err carries no classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Retryable reports whether a failed collaborator call may be retried
func Retryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ModelError
}
