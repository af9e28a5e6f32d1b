package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every validation failure via errors.Is
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes a rejected dataset or parameter
type ValidationError struct {
	Field  string // Parameter name, series name, "dates" or "dataset"
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput as a match
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func invalidf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
