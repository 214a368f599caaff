package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/redact"
	"github.com/phrazzld/agentdesk/internal/service/auth"
	"github.com/phrazzld/agentdesk/internal/store"
)

// UserService covers signup, login and the user's profile.
type UserService interface {
	// Signup creates an account and returns it with a fresh token.
	Signup(ctx context.Context, email, password, name string) (*domain.User, string, error)

	// Login checks credentials. Unknown email and wrong password both yield
	// auth.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// GetProfile returns the user's profile, creating it on first access.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	UpdateProfile(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error)
}

// UserServiceImpl implements UserService.
type UserServiceImpl struct {
	users    store.UserStore
	profiles store.ProfileStore
	tokens   auth.TokenService
	hasher   auth.PasswordHasher
	verifier auth.PasswordVerifier
	logger   *slog.Logger
}

var _ UserService = (*UserServiceImpl)(nil)

func NewUserService(
	users store.UserStore,
	profiles store.ProfileStore,
	tokens auth.TokenService,
	hasher auth.PasswordHasher,
	verifier auth.PasswordVerifier,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		hasher:   hasher,
		verifier: verifier,
		logger:   logger.With("component", "user_service"),
	}
}

func (s *UserServiceImpl) Signup(
	ctx context.Context,
	email, password, name string,
) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if password == "" {
		return nil, "", domain.ErrEmptyPassword
	}
	if strings.TrimSpace(email) == "" {
		return nil, "", domain.ErrEmptyEmail
	}
	if strings.TrimSpace(name) == "" {
		return nil, "", domain.ErrEmptyName
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", "error", err)
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	user, err := domain.NewUser(email, name, hash)
	if err != nil {
		return nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("signup rejected: email exists")
			return nil, "", err
		}
		log.Error("failed to create user", "error", redact.Error(err))
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	log.Info("user signed up", "user_id", user.ID)
	return user, token, nil
}

func (s *UserServiceImpl) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, "", auth.ErrInvalidCredentials
		}
		log.Error("failed to look up user for login", "error", redact.Error(err))
		return nil, "", fmt.Errorf("failed to log in: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login rejected: password mismatch", "user_id", user.ID)
		return nil, "", auth.ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token, nil
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var seed *domain.User
	if u, uErr := s.users.GetByID(ctx, userID); uErr == nil {
		seed = u
	} else if !store.IsNotFoundError(uErr) {
		return nil, fmt.Errorf("failed to load user for profile: %w", uErr)
	}

	profile = domain.NewProfile(userID, seed)
	if err := s.profiles.Create(ctx, profile); err != nil {
		// Lost a race with a concurrent first access; read the winner's row.
		if store.IsDuplicateError(err) {
			return s.profiles.Get(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	update domain.ProfileUpdate,
) (*domain.Profile, error) {
	if update.IsEmpty() {
		return nil, domain.ErrNoValidFields
	}
	return s.profiles.Update(ctx, userID, update)
}
