package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// MockTaskStore implements store.TaskStore. Unset function fields forward to
// Delegate; with no Delegate they return zero values.
type MockTaskStore struct {
	Delegate store.TaskStore

	CreateFn        func(ctx context.Context, task *domain.Task) error
	GetFn           func(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)
	ListByUserFn    func(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
	UpdateFn        func(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) error
	DeleteFn        func(ctx context.Context, taskID, userID uuid.UUID) error
	MarkRunningFn   func(ctx context.Context, taskID, userID uuid.UUID, now time.Time) (*domain.Task, error)
	MarkCompletedFn func(ctx context.Context, taskID, userID uuid.UUID, result string, now time.Time) error
	MarkFailedFn    func(ctx context.Context, taskID, userID uuid.UUID, now time.Time) error
	FailStaleRunsFn func(ctx context.Context, cutoff time.Time) ([]*domain.Task, error)
}

var _ store.TaskStore = (*MockTaskStore)(nil)

func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if m.Delegate != nil {
		return m.Delegate.Create(ctx, task)
	}
	return nil
}

func (m *MockTaskStore) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, taskID, userID)
	}
	if m.Delegate != nil {
		return m.Delegate.Get(ctx, taskID, userID)
	}
	return nil, store.ErrTaskNotFound
}

func (m *MockTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	if m.Delegate != nil {
		return m.Delegate.ListByUser(ctx, userID)
	}
	return []*domain.Task{}, nil
}

func (m *MockTaskStore) Update(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, taskID, userID, update)
	}
	if m.Delegate != nil {
		return m.Delegate.Update(ctx, taskID, userID, update)
	}
	return nil
}

func (m *MockTaskStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, taskID, userID)
	}
	if m.Delegate != nil {
		return m.Delegate.Delete(ctx, taskID, userID)
	}
	return nil
}

func (m *MockTaskStore) MarkRunning(ctx context.Context, taskID, userID uuid.UUID, now time.Time) (*domain.Task, error) {
	if m.MarkRunningFn != nil {
		return m.MarkRunningFn(ctx, taskID, userID, now)
	}
	if m.Delegate != nil {
		return m.Delegate.MarkRunning(ctx, taskID, userID, now)
	}
	return nil, store.ErrTaskNotFound
}

func (m *MockTaskStore) MarkCompleted(
	ctx context.Context,
	taskID, userID uuid.UUID,
	result string,
	now time.Time,
) error {
	if m.MarkCompletedFn != nil {
		return m.MarkCompletedFn(ctx, taskID, userID, result, now)
	}
	if m.Delegate != nil {
		return m.Delegate.MarkCompleted(ctx, taskID, userID, result, now)
	}
	return nil
}

func (m *MockTaskStore) MarkFailed(ctx context.Context, taskID, userID uuid.UUID, now time.Time) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, taskID, userID, now)
	}
	if m.Delegate != nil {
		return m.Delegate.MarkFailed(ctx, taskID, userID, now)
	}
	return nil
}

func (m *MockTaskStore) FailStaleRuns(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	if m.FailStaleRunsFn != nil {
		return m.FailStaleRunsFn(ctx, cutoff)
	}
	if m.Delegate != nil {
		return m.Delegate.FailStaleRuns(ctx, cutoff)
	}
	return []*domain.Task{}, nil
}
