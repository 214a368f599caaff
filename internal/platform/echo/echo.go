// Package echo provides an offline completion.Service for local development.
// It answers deterministically from the prompt and never leaves the process.
package echo

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/agentdesk/internal/completion"
)

// Service is a completion backend that summarizes the prompt it was given.
type Service struct{}

var _ completion.Service = Service{}

func New() Service {
	return Service{}
}

// Complete returns a canned response derived from prompt. It honors ctx
// cancellation so timeout handling can be exercised without a network.
func (Service) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	words := strings.Fields(prompt)
	return fmt.Sprintf("Acknowledged. Received a %d-word request and prepared a response.", len(words)), nil
}
