package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
)

// TaskStore defines the interface for task persistence. Every lookup and
// mutation is scoped to a (task ID, owning user ID) pair; a task ID alone
// never matches.
type TaskStore interface {
	// Create persists a task built by domain.NewTask.
	Create(ctx context.Context, task *domain.Task) error

	// Get returns the task, or ErrTaskNotFound when it does not exist or
	// belongs to another user.
	Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// ListByUser returns every task owned by userID, newest first.
	// Returns an empty slice when the user has no tasks.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// Update writes only the supplied fields of a normalized update.
	// Returns ErrTaskNotFound when no owned task matched; a match that changes
	// nothing is still a success. Returns domain.ErrNoValidFields for an empty
	// update without writing. A status change on a running task is rejected
	// with ErrTaskAlreadyRunning.
	Update(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) error

	// Delete removes the task. Returns ErrTaskNotFound when nothing was deleted.
	Delete(ctx context.Context, taskID, userID uuid.UUID) error

	// MarkRunning atomically moves the task to running, stamping last_run and
	// resetting progress, unless it is already running.
	// Returns ErrTaskNotFound or ErrTaskAlreadyRunning.
	MarkRunning(ctx context.Context, taskID, userID uuid.UUID, now time.Time) (*domain.Task, error)

	// MarkCompleted moves a running task to completed with progress 100 and
	// the given result. Returns ErrTaskNotRunning if the task left running.
	MarkCompleted(ctx context.Context, taskID, userID uuid.UUID, result string, now time.Time) error

	// MarkFailed moves a running task to error.
	// Returns ErrTaskNotRunning if the task left running.
	MarkFailed(ctx context.Context, taskID, userID uuid.UUID, now time.Time) error

	// FailStaleRuns moves every task that has been running since before
	// cutoff to error and returns the affected tasks.
	FailStaleRuns(ctx context.Context, cutoff time.Time) ([]*domain.Task, error)
}
