package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/agentdesk/internal/completion"
)

// MockCompletionService implements completion.Service and records every call.
type MockCompletionService struct {
	CompleteFn func(ctx context.Context, prompt string) (string, error)

	// Response and Err are returned when CompleteFn is nil.
	Response string
	Err      error

	mu      sync.Mutex
	prompts []string
}

var _ completion.Service = (*MockCompletionService)(nil)

func (m *MockCompletionService) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFn != nil {
		return m.CompleteFn(ctx, prompt)
	}
	return m.Response, m.Err
}

// Calls returns how many times Complete was invoked.
func (m *MockCompletionService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt received, in call order.
func (m *MockCompletionService) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
