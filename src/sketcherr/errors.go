// Package sketcherr defines the error kinds every engine in this
// module returns (spec §7). It is built on the standard library's
// errors/fmt rather than a third-party error-kind package: nothing in
// the teacher repo or the rest of the retrieved pack reaches for one
// (Go's own ecosystem convention for typed errors is a small concrete
// error type plus errors.As/errors.Is, not a dedicated library), so
// there is no grounded third-party choice to make here.
package sketcherr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// InvalidArgument covers negative increments/values, shape
	// mismatches on merge, width < 4 for the hash table, a NUL byte
	// in a hash-table key, or an unparseable key.
	InvalidArgument Kind = iota
	// TypeMismatch is returned when merging two CMS engines of
	// different cell variants.
	TypeMismatch
	// Overflow is returned when a hash-table cell's count would
	// exceed math.MaxInt64.
	Overflow
	// OutOfMemory covers allocation failure on construction, key
	// copy, or prune buffers.
	OutOfMemory
	// IterationExhausted is the normal end-of-iteration signal, not
	// a failure.
	IterationExhausted
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case TypeMismatch:
		return "type_mismatch"
	case Overflow:
		return "overflow"
	case OutOfMemory:
		return "out_of_memory"
	case IterationExhausted:
		return "iteration_exhausted"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every operation in
// this module that can fail.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is makes errors.Is(err, sketcherr.New(sketcherr.InvalidArgument, ""))
// etc. work by comparing Kind, so callers can match on kind without a
// type assertion or caring about Msg.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf is shorthand for New(InvalidArgument, ...).
func InvalidArgumentf(format string, args ...any) *Error {
	return New(InvalidArgument, format, args...)
}

// TypeMismatchf is shorthand for New(TypeMismatch, ...).
func TypeMismatchf(format string, args ...any) *Error {
	return New(TypeMismatch, format, args...)
}

// Overflowf is shorthand for New(Overflow, ...).
func Overflowf(format string, args ...any) *Error {
	return New(Overflow, format, args...)
}

// OutOfMemoryf is shorthand for New(OutOfMemory, ...).
func OutOfMemoryf(format string, args ...any) *Error {
	return New(OutOfMemory, format, args...)
}

// ErrIterationExhausted is the sentinel returned by cursors once
// every live cell has been yielded.
var ErrIterationExhausted = New(IterationExhausted, "iteration exhausted")

// Of reports the Kind of err, if err is (or wraps) an *Error.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
