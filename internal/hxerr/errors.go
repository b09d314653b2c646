// Package hxerr holds the error taxonomy shared by the property engine,
// the heat-exchanger formulas and the hosts that render them.
package hxerr

import (
	"errors"
	"fmt"
)

var (
	ErrResourceNotFound = errors.New("resource not found")
	ErrSchema           = errors.New("schema error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrOutOfRange       = errors.New("out of range")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUninitialized    = errors.New("uninitialized state")
)

// SchemaError reports a malformed table resource.
// Line is 1-based; zero means the problem is not tied to a line.
type SchemaError struct {
	Fluid  string
	Line   int
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	msg := "schema error"
	if e.Fluid != "" {
		msg += " in " + e.Fluid
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" (column %q)", e.Column)
	}
	return msg + ": " + e.Reason
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// OutOfRangeError is returned when a query key falls outside the table bounds.
type OutOfRangeError struct {
	Query float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("query %g outside table bounds [%g, %g]", e.Query, e.Min, e.Max)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// InsufficientDataError is returned when a table has too few rows to interpolate.
type InsufficientDataError struct {
	Rows int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("table has %d row(s), need at least 2 to interpolate", e.Rows)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// InvalidInputError names the offending argument.
type InvalidInputError struct {
	Arg    string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s = %g: %s", e.Arg, e.Value, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// Invalid is shorthand for building an *InvalidInputError.
func Invalid(arg string, value float64, reason string) error {
	return &InvalidInputError{Arg: arg, Value: value, Reason: reason}
}

// NotFound wraps ErrResourceNotFound with the identity that failed to resolve.
func NotFound(fluid string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: fluid %q", ErrResourceNotFound, fluid)
	}
	return fmt.Errorf("%w: fluid %q: %v", ErrResourceNotFound, fluid, cause)
}
