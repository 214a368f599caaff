package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/agentdesk/internal/completion"
	"github.com/phrazzld/agentdesk/internal/config"
	"github.com/phrazzld/agentdesk/internal/redact"
	"google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Service sends each prompt to Gemini as a single GenerateContent request.
// It does not retry; a failed call is reported to the caller as is.
type Service struct {
	logger *slog.Logger
	models contentGenerator
	model  string
}

var _ completion.Service = (*Service)(nil)

// New creates a Gemini-backed completion service.
func New(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Service, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", completion.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", completion.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gemini client: %v",
			completion.ErrInvalidConfig, redact.Error(err))
	}

	return newService(logger, client.Models, cfg.ModelName), nil
}

func newService(logger *slog.Logger, models contentGenerator, model string) *Service {
	return &Service{
		logger: logger.With("component", "gemini"),
		models: models,
		model:  model,
	}
}

// Complete implements completion.Service.
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		s.logger.WarnContext(ctx, "gemini request failed",
			"model", s.model,
			"error", redact.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %w", completion.ErrTimeout, ctxErr)
		}
		return "", fmt.Errorf("%w: %s", completion.ErrCompletionService, redact.Error(err))
	}

	return s.extractText(ctx, resp)
}

func (s *Service) extractText(ctx context.Context, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", completion.ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		s.logger.WarnContext(ctx, "gemini blocked prompt",
			"block_reason", string(resp.PromptFeedback.BlockReason))
		return "", completion.ErrContentBlocked
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", completion.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", completion.ErrContentBlocked
	}
	if candidate.Content == nil {
		return "", completion.ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", completion.ErrEmptyResponse
	}
	return text, nil
}
