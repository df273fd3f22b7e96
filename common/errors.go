package common

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the storage core reports. Callers should test for them with errors.Is.
//
// ErrNoSpace and ErrInvalidArgument are recoverable: try another page or fix the argument. ErrCorruption and
// ErrOutOfBounds mean the buffer must not be trusted anymore.
var (
	ErrIo              = errors.New("io error")
	ErrOutOfBounds     = errors.New("out of bounds")
	ErrCorruption      = errors.New("corruption")
	ErrNoSpace         = errors.New("no space")
	ErrInvalidArgument = errors.New("invalid args")
)

// DbError attaches a reason and an optional underlying error to one of the sentinel kinds.
type DbError struct {
	Kind   error
	Reason string
	Err    error
}

func (e *DbError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Reason)
}

func (e *DbError) Is(target error) bool {
	return target == e.Kind
}

func (e *DbError) Unwrap() error {
	return e.Err
}

// OutOfBoundsError is returned by the byte codec when an access would exceed the buffer.
type OutOfBoundsError struct {
	Off  int
	Size int
	Len  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out of bounds: off=%d size=%d len=%d", e.Off, e.Size, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

func Corruption(reason string) error {
	return &DbError{Kind: ErrCorruption, Reason: reason}
}

func NoSpace(reason string) error {
	return &DbError{Kind: ErrNoSpace, Reason: reason}
}

func InvalidArgument(reason string) error {
	return &DbError{Kind: ErrInvalidArgument, Reason: reason}
}

// IoError classifies err as ErrIo. err is kept as the wrapped cause.
func IoError(err error, reason string) error {
	return &DbError{Kind: ErrIo, Reason: reason, Err: err}
}
