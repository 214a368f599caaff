package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/agent"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/mocks"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/platform/memory"
	"github.com/phrazzld/agentdesk/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// runHarness wires the lifecycle controller to in-memory stores and a real
// pipeline in front of a mock completion service.
type runHarness struct {
	tasks      store.TaskStore
	memTasks   *memory.TaskStore
	logStore   *memory.LogStore
	users      *memory.UserStore
	completion *mocks.MockCompletionService
	logs       LogService
	svc        TaskService
	logBuf     *logger.Buffer
}

type harnessOption func(h *runHarness)

func withTaskStore(wrap func(*memory.TaskStore) store.TaskStore) harnessOption {
	return func(h *runHarness) { h.tasks = wrap(h.memTasks) }
}

func newRunHarness(t *testing.T, timeout time.Duration, opts ...harnessOption) *runHarness {
	t.Helper()

	l, buf := logger.NewBufferLogger()
	h := &runHarness{
		memTasks:   memory.NewTaskStore(),
		logStore:   memory.NewLogStore(),
		users:      memory.NewUserStore(),
		completion: &mocks.MockCompletionService{Response: "Here is the answer."},
		logBuf:     buf,
	}
	h.tasks = h.memTasks
	for _, opt := range opts {
		opt(h)
	}

	h.logs = NewLogService(h.logStore, h.users, l)
	pipeline, err := agent.NewPipeline(h.completion, h.tasks, h.logs, timeout, l)
	require.NoError(t, err)

	h.svc, err = NewTaskService(h.tasks, pipeline, h.logs, l)
	require.NoError(t, err)
	return h
}

func (h *runHarness) createTask(t *testing.T, userID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := h.svc.Create(context.Background(), userID, domain.NewTaskParams{Title: title, Description: "desc"})
	require.NoError(t, err)
	return task
}

func (h *runHarness) entries(t *testing.T, userID uuid.UUID) []*domain.LogEntry {
	t.Helper()
	list, err := h.logStore.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

// MockRunner is a testify mock of Runner.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, in agent.Input) (agent.Result, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(agent.Result), args.Error(1)
}

func quietLogger() *slog.Logger {
	l, _ := logger.NewBufferLogger()
	return l
}
