package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

type taskRecord struct {
	task domain.Task
	seq  uint64
}

// TaskStore implements store.TaskStore. MarkRunning is a check-and-set
// under a single mutex, so at most one caller wins per task.
type TaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*taskRecord
	seq   uint64
}

var _ store.TaskStore = (*TaskStore)(nil)

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[uuid.UUID]*taskRecord)}
}

// clone copies t including its pointer fields so callers cannot mutate
// stored state.
func clone(t domain.Task) *domain.Task {
	out := t
	if t.LastRun != nil {
		lr := *t.LastRun
		out.LastRun = &lr
	}
	if t.Result != nil {
		r := *t.Result
		out.Result = &r
	}
	return &out
}

// owned returns the record for taskID when it belongs to userID. Caller
// holds s.mu.
func (s *TaskStore) owned(taskID, userID uuid.UUID) (*taskRecord, bool) {
	rec, ok := s.tasks[taskID]
	if !ok || rec.task.UserID != userID {
		return nil, false
	}
	return rec, true
}

func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	s.seq++
	s.tasks[task.ID] = &taskRecord{task: *clone(*task), seq: s.seq}
	return nil
}

func (s *TaskStore) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(taskID, userID)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return clone(rec.task), nil
}

func (s *TaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	recs := make([]*taskRecord, 0)
	for _, rec := range s.tasks {
		if rec.task.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.task.CreatedAt.Equal(b.task.CreatedAt) {
			return a.task.CreatedAt.After(b.task.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]*domain.Task, 0, len(recs))
	for _, rec := range recs {
		out = append(out, clone(rec.task))
	}
	s.mu.Unlock()
	return out, nil
}

func (s *TaskStore) Update(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) error {
	normalized, err := update.Normalize()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(taskID, userID)
	if !ok {
		return store.ErrTaskNotFound
	}
	if normalized.Status != nil && rec.task.Status == domain.TaskStatusRunning {
		return store.ErrTaskAlreadyRunning
	}
	normalized.Apply(&rec.task, time.Now().UTC())
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(taskID, userID); !ok {
		return store.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func (s *TaskStore) MarkRunning(ctx context.Context, taskID, userID uuid.UUID, now time.Time) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(taskID, userID)
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	if rec.task.Status == domain.TaskStatusRunning {
		return nil, store.ErrTaskAlreadyRunning
	}

	now = now.UTC()
	rec.task.Status = domain.TaskStatusRunning
	rec.task.Progress = 0
	rec.task.LastRun = &now
	rec.task.UpdatedAt = now
	return clone(rec.task), nil
}

func (s *TaskStore) MarkCompleted(
	ctx context.Context,
	taskID, userID uuid.UUID,
	result string,
	now time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(taskID, userID)
	if !ok {
		return store.ErrTaskNotFound
	}
	if rec.task.Status != domain.TaskStatusRunning {
		return store.ErrTaskNotRunning
	}

	now = now.UTC()
	rec.task.Status = domain.TaskStatusCompleted
	rec.task.Progress = 100
	rec.task.Result = &result
	rec.task.LastRun = &now
	rec.task.UpdatedAt = now
	return nil
}

func (s *TaskStore) MarkFailed(ctx context.Context, taskID, userID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.owned(taskID, userID)
	if !ok {
		return store.ErrTaskNotFound
	}
	if rec.task.Status != domain.TaskStatusRunning {
		return store.ErrTaskNotRunning
	}

	rec.task.Status = domain.TaskStatusError
	rec.task.UpdatedAt = now.UTC()
	return nil
}

func (s *TaskStore) FailStaleRuns(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	failed := make([]*domain.Task, 0)
	for _, rec := range s.tasks {
		if rec.task.Status != domain.TaskStatusRunning {
			continue
		}
		if rec.task.LastRun != nil && !rec.task.LastRun.Before(cutoff) {
			continue
		}
		rec.task.Status = domain.TaskStatusError
		rec.task.UpdatedAt = now
		failed = append(failed, clone(rec.task))
	}
	return failed, nil
}
