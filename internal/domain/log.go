package domain

import (
	"time"

	"github.com/google/uuid"
)

// LogStatus tags the outcome of one run attempt.
type LogStatus string

// Possible log status values
const (
	LogStatusSuccess LogStatus = "success"
	LogStatusError   LogStatus = "error"
)

// LogTypeAIRun is the type recorded for entries produced by the agent pipeline.
const LogTypeAIRun = "AI_RUN"

// LogTimestampLayout is the display format used by LogView.
const LogTimestampLayout = "2006-01-02 15:04:05"

// Fallbacks used by LogView for fields an entry does not carry.
const (
	UnknownLogTask   = "Unknown Task"
	DefaultLogType   = "SYSTEM"
	DefaultLogStatus = "SUCCESS"
	DefaultLogUser   = "System"
	UnknownDuration  = "N/A"
)

// LogEntry is an immutable audit record of one run attempt.
type LogEntry struct {
	ID        uuid.UUID     `json:"id"`
	TaskID    uuid.UUID     `json:"task_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Type      string        `json:"type"`
	Status    LogStatus     `json:"status"`
	Details   string        `json:"details"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewLogEntry builds an AI_RUN entry stamped with ts.
func NewLogEntry(
	userID, taskID uuid.UUID,
	status LogStatus,
	details string,
	duration time.Duration,
	ts time.Time,
) *LogEntry {
	return &LogEntry{
		ID:        uuid.New(),
		TaskID:    taskID,
		UserID:    userID,
		Type:      LogTypeAIRun,
		Status:    status,
		Details:   details,
		Duration:  duration,
		Timestamp: ts.UTC(),
	}
}

// LogView is the display-ready projection returned by GET /logs.
type LogView struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Task      string `json:"task"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Duration  string `json:"duration"`
	Details   string `json:"details"`
	User      string `json:"user"`
}

// View projects e for display, substituting fallbacks for missing fields.
// userName is the owner's display name; empty means unknown.
func (e *LogEntry) View(userName string) LogView {
	v := LogView{
		ID:       e.ID.String(),
		Task:     UnknownLogTask,
		Type:     DefaultLogType,
		Status:   DefaultLogStatus,
		Duration: UnknownDuration,
		Details:  e.Details,
		User:     DefaultLogUser,
	}

	if e.Timestamp.IsZero() {
		v.Timestamp = time.Now().UTC().Format(LogTimestampLayout)
	} else {
		v.Timestamp = e.Timestamp.UTC().Format(LogTimestampLayout)
	}
	if e.TaskID != uuid.Nil {
		v.Task = e.TaskID.String()
	}
	if e.Type != "" {
		v.Type = e.Type
	}
	if e.Status != "" {
		v.Status = string(e.Status)
	}
	if e.Duration > 0 {
		v.Duration = e.Duration.Round(time.Millisecond).String()
	}
	if userName != "" {
		v.User = userName
	}
	return v
}
