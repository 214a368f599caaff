package store

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by the postgres and memory adapters. Callers classify
// with errors.Is against the family sentinels.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrConflict      = errors.New("entity state conflict")
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed covers begin and commit failures in RunInTransaction.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrUserNotFound    = fmt.Errorf("%w: user", ErrNotFound)
	ErrProfileNotFound = fmt.Errorf("%w: profile", ErrNotFound)
	// ErrTaskNotFound also covers tasks owned by another user.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrTaskAlreadyRunning is returned by MarkRunning when another run holds the task.
	ErrTaskAlreadyRunning = fmt.Errorf("%w: task is already running", ErrConflict)
	// ErrTaskNotRunning is returned by MarkCompleted and MarkFailed once the
	// task has left the running state.
	ErrTaskNotRunning = fmt.Errorf("%w: task is not running", ErrConflict)
)

// IsNotFoundError reports whether err belongs to the not-found family.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError reports whether err belongs to the duplicate family.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError records which adapter operation failed on which entity.
type StoreError struct {
	Entity    string
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
