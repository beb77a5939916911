package trix

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	Unknown ErrorCode = iota
	// InvalidArgument flags a caller fault, e.g. a nil value, a nil or
	// nil-returning value supplier, a tree order below 3 or an inverted range.
	// The tree is left unchanged.
	InvalidArgument
	// InternalConsistency flags an engine bug, e.g. an index entry referencing
	// a node that no longer holds the value. The enclosing operation is aborted
	// and the tree should be considered poisoned.
	InternalConsistency
)

// Error is the trix custom error.
type Error struct {
	Code     ErrorCode
	Err      error
	UserData any
}

func (e Error) Error() string {
	if e.UserData != nil {
		return fmt.Sprintf("error code: %d, user data: %v, details: %v", e.Code, e.UserData, e.Err)
	}
	return fmt.Sprintf("error code: %d, details: %v", e.Code, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// NewInvalidArgument wraps a caller fault description in an Error.
func NewInvalidArgument(msg string) error {
	return Error{Code: InvalidArgument, Err: errors.New(msg)}
}

// NewInternalConsistency wraps an engine consistency fault in an Error.
// userData carries the identity of the offending node, if known.
func NewInternalConsistency(msg string, userData any) error {
	return Error{Code: InternalConsistency, Err: errors.New(msg), UserData: userData}
}

// IsInvalidArgument reports whether err carries the InvalidArgument code.
func IsInvalidArgument(err error) bool {
	var e Error
	return errors.As(err, &e) && e.Code == InvalidArgument
}

// IsInternalConsistency reports whether err carries the InternalConsistency code.
func IsInternalConsistency(err error) bool {
	var e Error
	return errors.As(err, &e) && e.Code == InternalConsistency
}
