package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// UserStore implements store.UserStore.
type UserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
}

var _ store.UserStore = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[uuid.UUID]domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	email := domain.NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return store.ErrEmailExists
	}
	if _, exists := s.byID[user.ID]; exists {
		return store.ErrDuplicate
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = email

	s.byID[user.ID] = *user
	s.byEmail[email] = user.ID
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	u := s.byID[id]
	return &u, nil
}

// ProfileStore implements store.ProfileStore.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]domain.Profile
}

var _ store.ProfileStore = (*ProfileStore)(nil)

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]domain.Profile)}
}

func (s *ProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return &p, nil
}

func (s *ProfileStore) Create(ctx context.Context, profile *domain.Profile) error {
	if profile.UserID == uuid.Nil {
		return domain.ErrEmptyUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[profile.UserID]; exists {
		return store.ErrDuplicate
	}
	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *ProfileStore) Update(
	ctx context.Context,
	userID uuid.UUID,
	update domain.ProfileUpdate,
) (*domain.Profile, error) {
	if update.IsEmpty() {
		return nil, domain.ErrNoValidFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	update.Apply(&p, time.Now().UTC())
	s.profiles[userID] = p
	return &p, nil
}
