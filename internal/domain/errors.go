package domain

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable reports that the environmental dataset could not be
// opened or queried: unknown identifier, rejected credentials, an unreachable
// store, or a connection lost mid-run. Test with errors.Is.
var ErrDataUnavailable = errors.New("data unavailable")

// DataUnavailableError carries the failing operation alongside the cause.
// It matches ErrDataUnavailable and the wrapped cause under errors.Is.
type DataUnavailableError struct {
	Op  string
	Err error
}

// Unavailable wraps err as a DataUnavailableError for op.
func Unavailable(op string, err error) error {
	return &DataUnavailableError{Op: op, Err: err}
}

func (e *DataUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, ErrDataUnavailable)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrDataUnavailable, e.Err)
}

func (e *DataUnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDataUnavailable}
	}
	return []error{ErrDataUnavailable, e.Err}
}
