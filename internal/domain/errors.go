package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrSync              = errors.New("calendar sync failed")
	ErrPersistence       = errors.New("persistence failure")

	// ErrStatusConflict is returned by the store when a conditional status
	// update matched no row because the job moved on since it was read
	ErrStatusConflict = errors.New("job status changed concurrently")
)

// FieldViolation names one offending input field
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in one input
type ValidationError struct {
	Violations []FieldViolation
}

// Add records a violation
func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// Err returns e when at least one violation was recorded, nil otherwise
func (e *ValidationError) Err() error {
	if e == nil || len(e.Violations) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a single-field ValidationError
func NewValidationError(field, message string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, message)
	return e
}

// NotFoundError reports a referenced id that does not exist
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidStateError is returned when a job in a terminal status is asked to move
type InvalidStateError struct {
	Current JobStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("Cannot change status of a %s job", e.Current)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// InvalidTransitionError is returned for a move the state machine does not allow
type InvalidTransitionError struct {
	From JobStatus
	To   JobStatus
	// Allowed are the legal targets from From
	Allowed []JobStatus
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("Invalid status transition from %s to %s", e.From, e.To)
	if len(e.Allowed) > 0 {
		msg += " (allowed: " + joinStatuses(e.Allowed) + ")"
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// StaleStatusError means the job left the status the caller based its
// request on. It matches ErrInvalidTransition.
type StaleStatusError struct {
	Expected JobStatus
	Current  JobStatus
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("Job is no longer %s, it is now %s", e.Expected, e.Current)
}

func (e *StaleStatusError) Is(target error) bool { return target == ErrInvalidTransition }

// ConflictError reports a uniqueness or reference violation in the store
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// SyncError wraps a calendar adapter failure
type SyncError struct {
	JobID     int64
	Retryable bool
	Err       error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar sync of job %d failed: %v", e.JobID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool { return target == ErrSync }

// PersistenceError wraps a storage failure during a mutation
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
