package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service produces a text completion for a prompt. Implementations make at
// most one upstream request per call and honor ctx cancellation.
type Service interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, prompt string) (string, error)

func (f ServiceFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Call invokes svc once under a timeout and classifies the outcome. Any
// failure, deadline expiry, or blank output is returned as an error wrapping
// ErrCompletionService. A non-positive timeout leaves ctx unchanged.
func Call(ctx context.Context, svc Service, prompt string, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := svc.Complete(ctx, prompt)
	if err != nil {
		return "", classify(ctx, err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", classify(ctx, ctxErr)
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, ErrCompletionService) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrCompletionService, err)
}
