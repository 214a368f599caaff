// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTitle is returned when a task title is missing or blank.
	ErrInvalidTitle = fmt.Errorf("%w: title is required", ErrValidation)

	// ErrInvalidStatus is returned when a task status is not one of
	// pending, running, completed or error.
	ErrInvalidStatus = fmt.Errorf("%w: invalid status", ErrValidation)

	// ErrRunningNotSettable is returned when an update asks for the running
	// status. Only a run moves a task into running.
	ErrRunningNotSettable = fmt.Errorf("%w: status running is set only by a run", ErrValidation)

	// ErrNoValidFields is returned when a partial update carries no fields.
	ErrNoValidFields = fmt.Errorf("%w: no valid fields to update", ErrValidation)

	// ErrInvalidProgress is returned when progress falls outside 0-100.
	ErrInvalidProgress = fmt.Errorf("%w: progress must be between 0 and 100", ErrValidation)

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped sentinel so callers can use errors.Is.
func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
