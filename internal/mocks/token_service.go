package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/service/auth"
)

// MockTokenService implements auth.TokenService.
type MockTokenService struct {
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

var _ auth.TokenService = (*MockTokenService)(nil)

func (m *MockTokenService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	return "mock-token-" + userID.String(), nil
}

func (m *MockTokenService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return nil, auth.ErrInvalidToken
}
