package utils

import "fmt"

// InvalidAssumptionError represents malformed or out-of-domain calculation
// inputs detected before or at calculation start. It is always surfaced to
// the caller synchronously and never silently corrected.
type InvalidAssumptionError struct {
	Message string
}

// Error returns the error message string.
func (e *InvalidAssumptionError) Error() string {
	return e.Message
}

// NewInvalidAssumptionError creates a new InvalidAssumptionError with a specific message.
func NewInvalidAssumptionError(message string) error {
	return &InvalidAssumptionError{
		Message: message,
	}
}

// NewInvalidAssumptionErrorf creates a new InvalidAssumptionError with a formatted message.
func NewInvalidAssumptionErrorf(format string, args ...interface{}) error {
	return &InvalidAssumptionError{
		Message: fmt.Sprintf(format, args...),
	}
}

// NonConvergenceError indicates the IRR root finder failed to converge
// within its iteration cap or hit a near-zero derivative.
type NonConvergenceError struct {
	Message    string
	Iterations int
	LastRate   float64
}

// Error returns the error message string.
func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%s (iterations=%d, last_rate=%.6f)", e.Message, e.Iterations, e.LastRate)
}

// NewNonConvergenceError creates a new NonConvergenceError describing a failed solve.
func NewNonConvergenceError(message string, iterations int, lastRate float64) error {
	return &NonConvergenceError{
		Message:    message,
		Iterations: iterations,
		LastRate:   lastRate,
	}
}

// LBOCalculationError wraps any failure raised during an LBO point estimate,
// including root-finder non-convergence and division guard violations.
type LBOCalculationError struct {
	Message string
	Cause   error
}

// Error returns the error message string, including the cause when present.
func (e *LBOCalculationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *LBOCalculationError) Unwrap() error {
	return e.Cause
}

// NewLBOCalculationError creates a new LBOCalculationError wrapping an optional cause.
func NewLBOCalculationError(message string, cause error) error {
	return &LBOCalculationError{
		Message: message,
		Cause:   cause,
	}
}

// NewLBOCalculationErrorf creates a new LBOCalculationError with a formatted message and no cause.
func NewLBOCalculationErrorf(format string, args ...interface{}) error {
	return &LBOCalculationError{
		Message: fmt.Sprintf(format, args...),
	}
}
