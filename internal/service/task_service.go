package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/agent"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/redact"
	"github.com/phrazzld/agentdesk/internal/store"
)

// StatusFilterAll disables status filtering in List.
const StatusFilterAll = "all"

// TaskService manages a user's tasks and drives runs through their lifecycle.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, params domain.NewTaskParams) (*domain.Task, error)
	Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)

	// List returns the user's tasks newest first. statusFilter "" or "all"
	// returns every task.
	List(ctx context.Context, userID uuid.UUID, statusFilter string) ([]*domain.Task, error)

	Update(ctx context.Context, taskID, userID uuid.UUID, update domain.TaskUpdate) error
	Delete(ctx context.Context, taskID, userID uuid.UUID) error

	// Run executes the agent pipeline for one task. A task already running
	// is rejected with store.ErrTaskAlreadyRunning. A run that reached the
	// pipeline and failed returns *RunError.
	Run(ctx context.Context, taskID, userID uuid.UUID, input string) (*RunResult, error)
}

// Runner executes the agent pipeline.
type Runner interface {
	Run(ctx context.Context, in agent.Input) (agent.Result, error)
}

// RunResult is the outcome of a successful run.
type RunResult struct {
	Response       string
	Analysis       string
	StepsCompleted []string
}

type taskServiceImpl struct {
	tasks  store.TaskStore
	runner Runner
	logs   LogService
	logger *slog.Logger
	now    func() time.Time
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService wires the lifecycle controller.
func NewTaskService(
	tasks store.TaskStore,
	runner Runner,
	logs LogService,
	logger *slog.Logger,
) (TaskService, error) {
	if tasks == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logs == nil {
		return nil, errors.New("log service cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &taskServiceImpl{
		tasks:  tasks,
		runner: runner,
		logs:   logs,
		logger: logger.With("component", "task_service"),
		now:    time.Now,
	}, nil
}

func (s *taskServiceImpl) Create(
	ctx context.Context,
	userID uuid.UUID,
	params domain.NewTaskParams,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, params)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create task",
			"user_id", userID,
			"error", redact.Error(err))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *taskServiceImpl) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	return s.tasks.Get(ctx, taskID, userID)
}

func (s *taskServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	statusFilter string,
) ([]*domain.Task, error) {
	var want domain.TaskStatus
	if f := strings.TrimSpace(statusFilter); f != "" && !strings.EqualFold(f, StatusFilterAll) {
		parsed, err := domain.ParseTaskStatus(f)
		if err != nil {
			return nil, err
		}
		want = parsed
	}

	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if want == "" {
		return tasks, nil
	}

	filtered := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == want {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (s *taskServiceImpl) Update(
	ctx context.Context,
	taskID, userID uuid.UUID,
	update domain.TaskUpdate,
) error {
	normalized, err := update.Normalize()
	if err != nil {
		return err
	}
	return s.tasks.Update(ctx, taskID, userID, normalized)
}

func (s *taskServiceImpl) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	return s.tasks.Delete(ctx, taskID, userID)
}

func (s *taskServiceImpl) Run(
	ctx context.Context,
	taskID, userID uuid.UUID,
	input string,
) (*RunResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("task_id", taskID, "user_id", userID)

	if _, err := s.tasks.Get(ctx, taskID, userID); err != nil {
		return nil, err
	}

	started := s.now()
	task, err := s.tasks.MarkRunning(ctx, taskID, userID, started)
	if err != nil {
		if errors.Is(err, store.ErrTaskAlreadyRunning) {
			log.Info("run rejected: task already running")
		}
		return nil, err
	}

	// From here on the task is running and must reach a terminal state even
	// if the client goes away.
	runCtx := context.WithoutCancel(ctx)

	res, runErr := s.runner.Run(runCtx, agent.Input{
		Task:      task,
		UserInput: input,
		StartedAt: started,
	})
	if runErr == nil {
		return &RunResult{
			Response:       res.Response,
			Analysis:       res.Analysis,
			StepsCompleted: res.StepsCompleted,
		}, nil
	}

	details := redact.Error(runErr)
	if err := s.tasks.MarkFailed(runCtx, taskID, userID, s.now()); err != nil {
		log.Error("failed to mark task as errored",
			"error", redact.Error(err),
			"run_error", details)
	}
	s.logs.Record(runCtx, userID, taskID, domain.LogStatusError, details, s.now().Sub(started))

	log.Warn("task run failed",
		"steps_completed", res.StepsCompleted,
		"error", details)

	steps := res.StepsCompleted
	if steps == nil {
		steps = []string{}
	}
	return nil, &RunError{StepsCompleted: steps, Err: runErr}
}
