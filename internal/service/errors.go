package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/agentdesk/internal/redact"
)

// ErrRunFailed is wrapped by every RunError.
var ErrRunFailed = errors.New("AI processing failed")

// RunError reports a run that reached the pipeline and failed. The task has
// been moved to the error state and an error log entry recorded.
type RunError struct {
	StepsCompleted []string
	Err            error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRunFailed, e.Err)
}

// Unwrap exposes both ErrRunFailed and the underlying cause to errors.Is.
func (e *RunError) Unwrap() []error {
	return []error{ErrRunFailed, e.Err}
}

// Details is the client-facing description of the failure, with secrets
// redacted.
func (e *RunError) Details() string {
	return redact.Error(e.Err)
}
