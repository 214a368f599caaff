package completion

import (
	"errors"
	"fmt"
)

// ErrCompletionService is the umbrella error for every failed completion
// call. All other errors in this package wrap it.
var ErrCompletionService = errors.New("completion service failed")

var (
	// ErrTimeout means the call did not finish before its deadline.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrCompletionService)

	// ErrEmptyResponse means the backend answered with no usable text.
	ErrEmptyResponse = fmt.Errorf("%w: empty response", ErrCompletionService)

	// ErrContentBlocked means the backend refused the prompt or the answer.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by safety filters", ErrCompletionService)

	// ErrInvalidConfig is returned by backend constructors.
	ErrInvalidConfig = errors.New("invalid completion backend configuration")
)
