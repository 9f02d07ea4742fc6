package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Structural assumptions about the source extract were violated
	ErrMalformedInput = errors.New("malformed input")

	// A stage needs more non-missing rows or columns than are available
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// A value expected to be numeric could not be parsed
	ErrTypeCoercion = errors.New("type coercion failed")

	ErrUnknownChart = errors.New("unknown chart")
)

// Error constructors with context
func NewMalformedInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: expected column %q is absent", ErrMalformedInput, column)
}

func NewInsufficientDataError(stage string, need, have int) error {
	return fmt.Errorf("%w: %s needs %d rows, %d available", ErrInsufficientData, stage, need, have)
}

func NewMissingIndicatorError(indicator string) error {
	return fmt.Errorf("%w: indicator %q has no rows", ErrInsufficientData, indicator)
}

func NewTypeCoercionError(column string, row int, value string) error {
	return fmt.Errorf("%w: column %s row %d value %q is not numeric", ErrTypeCoercion, column, row, value)
}

// Error checking helpers
func IsMalformedInput(err error) bool {
	return errors.Is(err, ErrMalformedInput)
}

func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsTypeCoercion(err error) bool {
	return errors.Is(err, ErrTypeCoercion)
}

// IsInputError reports whether err comes from the source file itself rather than a later stage
func IsInputError(err error) bool {
	return IsMalformedInput(err) || IsTypeCoercion(err)
}
