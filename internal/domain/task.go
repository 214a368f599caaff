package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// Defaults applied to classification fields that were not supplied.
const (
	DefaultTaskType     = "General"
	DefaultTaskPriority = "Medium"
	DefaultTaskSchedule = "None"
)

// ParseTaskStatus normalizes s (case-insensitive, surrounding space ignored)
// and returns ErrInvalidStatus for anything outside the four known values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusError:
		return true
	default:
		return false
	}
}

// Runnable reports whether a run may start from this status.
func (s TaskStatus) Runnable() bool {
	return s.Valid() && s != TaskStatusRunning
}

// Task is a unit of work owned by a user and processed by the agent pipeline.
type Task struct {
	ID          uuid.UUID  `json:"task_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Schedule    string     `json:"schedule"`
	Notify      bool       `json:"notify"`
	AutoRetry   bool       `json:"auto_retry"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastRun     *time.Time `json:"last_run"`
	Result      *string    `json:"result"`
}

// NewTaskParams carries the caller-supplied values for a new task. Empty
// strings fall back to the documented defaults.
type NewTaskParams struct {
	Title       string
	Description string
	Status      string
	Type        string
	Priority    string
	Schedule    string
	Notify      bool
	AutoRetry   bool
}

// NewTask validates params and builds a pending task with a fresh ID.
// Returns ErrInvalidTitle or ErrInvalidStatus without allocating an ID when
// the input is rejected.
func NewTask(userID uuid.UUID, params NewTaskParams) (*Task, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrInvalidTitle
	}

	status := TaskStatusPending
	if strings.TrimSpace(params.Status) != "" {
		parsed, err := ParseTaskStatus(params.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: params.Description,
		Status:      status,
		Progress:    0,
		Type:        orDefault(params.Type, DefaultTaskType),
		Priority:    orDefault(params.Priority, DefaultTaskPriority),
		Schedule:    orDefault(params.Schedule, DefaultTaskSchedule),
		Notify:      params.Notify,
		AutoRetry:   params.AutoRetry,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks the invariants every persisted task must satisfy.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("task_id", "cannot be empty", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrInvalidTitle
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if t.Progress < 0 || t.Progress > 100 {
		return ErrInvalidProgress
	}
	return nil
}

// TaskUpdate lists the task fields that may be changed after creation.
// A nil pointer leaves the stored value unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
}

// IsEmpty reports whether the update carries no fields.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil
}

// Normalize trims the title, lowercases the status and validates both.
// Running is rejected; it is entered only through a run. The returned copy is
// safe to hand to a store.
func (u TaskUpdate) Normalize() (TaskUpdate, error) {
	if u.IsEmpty() {
		return u, ErrNoValidFields
	}

	out := u
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return u, ErrInvalidTitle
		}
		out.Title = &title
	}
	if u.Status != nil {
		status, err := ParseTaskStatus(*u.Status)
		if err != nil {
			return u, err
		}
		if status == TaskStatusRunning {
			return u, ErrRunningNotSettable
		}
		s := string(status)
		out.Status = &s
	}
	return out, nil
}

// Apply merges a normalized update into t.
func (u TaskUpdate) Apply(t *Task, now time.Time) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = TaskStatus(*u.Status)
	}
	t.UpdatedAt = now
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
