// Package fxerr defines the error taxonomy shared by the particle core.
//
// Configuration errors are fatal to the call that raised them and are
// always surfaced to the caller. Out-of-range errors signal a programmer
// error in the caller.
package fxerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrOutOfRange matches every *OutOfRangeError via errors.Is.
	ErrOutOfRange = errors.New("index out of range")
)

// ConfigurationError reports an invalid column layout or definition.
type ConfigurationError struct {
	Op     string // operation that failed, e.g. "register"
	Name   string // column, parameter or declaration name
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Op, e.Name, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configuration builds a *ConfigurationError.
func Configuration(op, name, reason string) error {
	return &ConfigurationError{Op: op, Name: name, Reason: reason}
}

// OutOfRangeError reports an index outside the live rows [0, Active).
type OutOfRangeError struct {
	Op     string
	Index  int
	Active int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d outside [0, %d)", e.Op, e.Index, e.Active)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}
