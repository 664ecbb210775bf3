package record

import (
	"errors"
	"fmt"
)

// ErrNotAnObject reports a value that was required to be a JSON object.
// Wrapped in a DecodingError it marks malformed input; wrapped in an
// EncodingError it marks a payload type whose serialization is broken.
var ErrNotAnObject = errors.New("value is not a JSON object")

// EncodingError wraps failures converting a record into its JSON form.
// Shape violations on this side should never occur for well-formed payload
// types, so callers may treat them as bug-class rather than user errors.
type EncodingError struct {
	err error
}

// NewEncodingError wraps err as an encoding failure.
func NewEncodingError(err error) *EncodingError { return &EncodingError{err: err} }

func (e *EncodingError) Error() string { return "encode record: " + e.err.Error() }

func (e *EncodingError) Unwrap() error { return e.err }

// DecodingError wraps failures converting JSON input into a record. These are
// routine: malformed or mistyped input from clients lands here.
type DecodingError struct {
	err error
}

// NewDecodingError wraps err as a decoding failure.
func NewDecodingError(err error) *DecodingError { return &DecodingError{err: err} }

func (e *DecodingError) Error() string { return "decode record: " + e.err.Error() }

func (e *DecodingError) Unwrap() error { return e.err }

// TypeMismatchError reports an upgrade attempted against the wrong payload
// type. It carries both tags so boundaries can report them to clients.
type TypeMismatchError struct {
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}
