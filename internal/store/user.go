package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by their (normalized) email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ProfileStore defines the interface for profile persistence.
type ProfileStore interface {
	// Get returns the profile for userID, or ErrProfileNotFound.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// Create inserts a profile. Creating a profile that already exists
	// returns ErrDuplicate.
	Create(ctx context.Context, profile *domain.Profile) error

	// Update merges the supplied fields and returns the stored result.
	// Returns ErrProfileNotFound if the profile does not exist.
	Update(ctx context.Context, userID uuid.UUID, update domain.ProfileUpdate) (*domain.Profile, error)
}
