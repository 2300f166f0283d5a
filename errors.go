// Package blockbench structured error types for better error handling
package blockbench

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Configuration errors (unknown action, flag or config value)
	ErrTypeConfig ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Memory errors (operand pool cannot be allocated)
	ErrTypeMemory
	// Clock speed did not stabilise within the backoff budget
	ErrTypeUnstable
	// Adaptive timing could not reach the minimum accurate duration
	ErrTypeInfeasible
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blockbench %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("blockbench %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfig:
		return "Config"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeUnstable:
		return "UnstableEnvironment"
	case ErrTypeInfeasible:
		return "MeasurementInfeasible"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewConfigError creates a configuration error
func NewConfigError(op string, message string) error {
	return &Error{Type: ErrTypeConfig, Op: op, Message: message}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &Error{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &Error{Type: ErrTypeMemory, Op: op, Message: message, Err: err}
}

// NewUnstableError reports that clock speed never recovered
func NewUnstableError(op string, message string) error {
	return &Error{Type: ErrTypeUnstable, Op: op, Message: message}
}

// NewInfeasibleError reports a trial that never reached the accuracy threshold
func NewInfeasibleError(op string, message string) error {
	return &Error{Type: ErrTypeInfeasible, Op: op, Message: message}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool { return isType(err, ErrTypeConfig) }

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool { return isType(err, ErrTypeInvalidArg) }

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool { return isType(err, ErrTypeMemory) }

// IsUnstableError checks if an error is the fatal environment-instability error
func IsUnstableError(err error) bool { return isType(err, ErrTypeUnstable) }

// IsInfeasibleError checks if an error is a measurement-infeasible error
func IsInfeasibleError(err error) bool { return isType(err, ErrTypeInfeasible) }
