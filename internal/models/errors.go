package models

import (
	"errors"
	"fmt"
)

// StatusCode classifies the outcome of an estimation call. Every failure in
// the pipeline maps to exactly one code; callers must check Status before
// trusting volume fields.
type StatusCode int

const (
	StatusOK StatusCode = iota
	StatusUnknownJurisdiction
	StatusNoEquationAvailable
	StatusInsufficientMeasurement
	StatusDiameterNotReached
	StatusConvergenceFailure
	StatusInvalidRules
)

// String returns the wire name of the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "OK"
	case StatusUnknownJurisdiction:
		return "UNKNOWN_JURISDICTION"
	case StatusNoEquationAvailable:
		return "NO_EQUATION_AVAILABLE"
	case StatusInsufficientMeasurement:
		return "INSUFFICIENT_MEASUREMENT"
	case StatusDiameterNotReached:
		return "DIAMETER_NOT_REACHED"
	case StatusConvergenceFailure:
		return "CONVERGENCE_FAILURE"
	case StatusInvalidRules:
		return "INVALID_RULES"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status by name in JSON responses.
func (c StatusCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// EstimationError is the typed failure returned from any stage of the
// engine. It is always terminal for the call that produced it.
type EstimationError struct {
	Code    StatusCode
	Message string
}

// NewError builds an EstimationError.
func NewError(code StatusCode, format string, args ...interface{}) *EstimationError {
	return &EstimationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsTransient returns false: estimation failures are a property of the
// inputs, retrying the same call cannot succeed.
func (e *EstimationError) IsTransient() bool {
	return false
}

// CodeOf extracts the status code from an error chain. The second return is
// false for errors that did not originate in the engine.
func CodeOf(err error) (StatusCode, bool) {
	if err == nil {
		return StatusOK, true
	}
	var ee *EstimationError
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return StatusOK, false
}
