// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors (InputError family: rejected synchronously, never retried)
	ErrValidation       = errors.New("validation error")
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyValue       = errors.New("value cannot be empty")
	ErrValueOutOfRange  = errors.New("value out of range")
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrFutureTimestamp  = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrSubjectUnknown   = errors.New("unknown subject reference")

	// Statistical outcome errors. These are expected results, not failures:
	// callers surface them as typed states, dashboards render them as
	// "insufficient data" / "not enough peers", never as error banners.
	ErrInsufficientData    = errors.New("insufficient data for statistical method")
	ErrInsufficientHistory = errors.New("insufficient history for prediction")
	ErrCohortTooSmall      = errors.New("cohort too small for comparison")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Execution errors (recorded on the execution row, re-triggerable)
	ErrExecutionFailed = errors.New("execution failed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrTickAlreadyClaimed     = errors.New("schedule tick already claimed")

	// Storage / external errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "metric", "report", "comparison"
	Op      string // Operation that failed, e.g., "Record", "Compare"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Metric store errors
var (
	ErrMetricNotFound     = NewDomainError("metric", "Find", ErrNotFound, "metric not found")
	ErrEventNotFound      = NewDomainError("event", "Find", ErrNotFound, "event not found")
	ErrMalformedTimeRange = NewDomainError("metric", "Query", ErrInvalidTimeRange, "time range start must be before end")
)

// Subject registry errors
var (
	ErrSubjectNotFound      = NewDomainError("subject", "Find", ErrNotFound, "subject not found")
	ErrSubjectAlreadyExists = NewDomainError("subject", "Register", ErrAlreadyExists, "subject already registered")
	ErrOrphanedReference    = NewDomainError("subject", "Check", ErrSubjectUnknown, "write references unknown subject")
)

// Prediction errors
var (
	ErrModelNotFound         = NewDomainError("prediction", "Find", ErrNotFound, "predictive model not found")
	ErrModelAlreadyValidated = NewDomainError("prediction", "Validate", ErrAlreadyProcessed, "model already validated")
	ErrNotEnoughHistory      = NewDomainError("prediction", "Forecast", ErrInsufficientHistory, "too few points to forecast")
)

// Report engine errors
var (
	ErrReportNotFound      = NewDomainError("report", "Find", ErrNotFound, "report definition not found")
	ErrExecutionNotFound   = NewDomainError("report", "FindExecution", ErrNotFound, "report execution not found")
	ErrExecutionNotPending = NewDomainError("report", "Cancel", ErrInvalidState, "only pending executions can be cancelled")
	ErrInvalidSchedule     = NewDomainError("report", "Validate", ErrInvalidFormat, "invalid cron schedule expression")
	ErrDuplicateTick       = NewDomainError("report", "Claim", ErrTickAlreadyClaimed, "execution for this schedule tick already exists")
)

// Export errors
var (
	ErrExportNotFound = NewDomainError("export", "Find", ErrNotFound, "data export not found")
	ErrInvalidScope   = NewDomainError("export", "Validate", ErrInvalidInput, "invalid export scope")
)

// Dashboard errors
var (
	ErrDashboardNotFound = NewDomainError("dashboard", "Find", ErrNotFound, "dashboard configuration not found")
	ErrInvalidWidget     = NewDomainError("dashboard", "Validate", ErrInvalidInput, "invalid widget configuration")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error belongs to the InputError family.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidTimeRange) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrSubjectUnknown)
}

// IsInsufficientData checks if the error is one of the expected statistical
// outcomes (insufficient data, insufficient history, cohort too small).
func IsInsufficientData(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrInsufficientHistory) ||
		errors.Is(err, ErrCohortTooSmall)
}

// IsRetryable checks if the operation can be retried. Only transient storage
// conditions qualify; validation and statistical outcomes never do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
