package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/service"
)

// TaskHandler serves task CRUD and runs.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, req.toDomain())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", "task_id", task.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, CreateTaskResponse{
		Message: "Task created",
		TaskID:  task.ID,
	})
}

// ListTasks handles GET /tasks?status=. An absent filter or "all" lists
// every task.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(t))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// UpdateTask handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := requireUserAndTask(w, r, log)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	update := domain.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}
	if err := h.tasks.Update(r.Context(), taskID, userID, update); err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Task updated"})
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := requireUserAndTask(w, r, log)
	if !ok {
		return
	}

	if err := h.tasks.Delete(r.Context(), taskID, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{Message: "Task deleted"})
}

// RunTask handles POST /tasks/{id}/run. The body, when present, is
// {"input": "..."} or, for a non-JSON content type, the input as plain text.
func (h *TaskHandler) RunTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, taskID, ok := requireUserAndTask(w, r, log)
	if !ok {
		return
	}

	input, err := runInput(w, r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	res, err := h.tasks.Run(r.Context(), taskID, userID, input)
	if err != nil {
		var runErr *service.RunError
		if errors.As(err, &runErr) {
			log.Error("task run failed",
				"task_id", taskID,
				"steps_completed", runErr.StepsCompleted,
				"error", runErr.Details())
			shared.RespondWithJSON(w, r, http.StatusInternalServerError, RunErrorResponse{
				Error:          service.ErrRunFailed.Error(),
				Details:        runErr.Details(),
				StepsCompleted: runErr.StepsCompleted,
				TraceID:        shared.GetTraceID(r.Context()),
			})
			return
		}
		HandleAPIError(w, r, err, "Failed to run task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RunTaskResponse{
		Message:        "AI task run completed",
		AIResponse:     res.Response,
		StepsCompleted: res.StepsCompleted,
	})
}

func runInput(w http.ResponseWriter, r *http.Request) (string, error) {
	if !shared.HasJSONBody(r) {
		return shared.ReadOptionalText(w, r)
	}
	var req RunTaskRequest
	if err := shared.DecodeOptionalJSON(w, r, &req); err != nil {
		return "", err
	}
	return req.Input, nil
}
