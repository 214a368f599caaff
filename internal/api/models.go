package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
)

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
	Name     string `json:"name"     validate:"required"`
}

// SignupResponse is returned by POST /signup.
type SignupResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	UserID  uuid.UUID `json:"user_id"`
	Name    string    `json:"name"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// UpdateProfileRequest is the body of PUT /profile. Omitted fields are left
// unchanged.
type UpdateProfileRequest struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Email      *string `json:"email"      validate:"omitnil,email"`
	Phone      *string `json:"phone"`
	Location   *string `json:"location"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	Timezone   *string `json:"timezone"`
}

func (req UpdateProfileRequest) toDomain() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Email:      req.Email,
		Phone:      req.Phone,
		Location:   req.Location,
		Role:       req.Role,
		Department: req.Department,
		Timezone:   req.Timezone,
	}
}

// CreateTaskRequest is the body of POST /tasks. Title emptiness is checked
// by the domain so whitespace-only titles are rejected too.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Schedule    string `json:"schedule"`
	Notify      bool   `json:"notify"`
	AutoRetry   bool   `json:"auto_retry"`
}

func (req CreateTaskRequest) toDomain() domain.NewTaskParams {
	return domain.NewTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Type:        req.Type,
		Priority:    req.Priority,
		Schedule:    req.Schedule,
		Notify:      req.Notify,
		AutoRetry:   req.AutoRetry,
	}
}

// CreateTaskResponse is returned by POST /tasks.
type CreateTaskResponse struct {
	Message string    `json:"message"`
	TaskID  uuid.UUID `json:"task_id"`
}

// UpdateTaskRequest is the body of PUT /tasks/{id}.
type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// TaskResponse is one task as returned by GET /tasks.
type TaskResponse struct {
	TaskID      uuid.UUID  `json:"task_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Schedule    string     `json:"schedule"`
	Notify      bool       `json:"notify"`
	AutoRetry   bool       `json:"auto_retry"`
	Result      *string    `json:"result,omitempty"`
	LastRun     *time.Time `json:"last_run"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskListResponse is returned by GET /tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// RunTaskRequest is the optional body of POST /tasks/{id}/run.
type RunTaskRequest struct {
	Input string `json:"input"`
}

// RunTaskResponse is returned by a successful run.
type RunTaskResponse struct {
	Message        string   `json:"message"`
	AIResponse     string   `json:"ai_response"`
	StepsCompleted []string `json:"steps_completed"`
}

// RunErrorResponse is returned when a run reached the pipeline and failed.
type RunErrorResponse struct {
	Error          string   `json:"error"`
	Details        string   `json:"details"`
	StepsCompleted []string `json:"steps_completed"`
	TraceID        string   `json:"trace_id,omitempty"`
}

// MessageResponse carries a single human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		TaskID:      t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Progress:    t.Progress,
		Type:        t.Type,
		Priority:    t.Priority,
		Schedule:    t.Schedule,
		Notify:      t.Notify,
		AutoRetry:   t.AutoRetry,
		Result:      t.Result,
		LastRun:     t.LastRun,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
