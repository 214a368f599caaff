package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// PostgresProfileStore implements store.ProfileStore. Updates run as a
// locked read-modify-write inside a transaction, so it needs the pool
// rather than a DBTX.
type PostgresProfileStore struct {
	db *sql.DB
}

var _ store.ProfileStore = (*PostgresProfileStore)(nil)

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{db: db}
}

const profileColumns = `user_id, first_name, last_name, email, phone, location, role,
	department, timezone, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.Location,
		&p.Role, &p.Department, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	p, err := scanProfile(s.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", MapError(err))
	}
	return p, nil
}

func (s *PostgresProfileStore) Create(ctx context.Context, p *domain.Profile) error {
	if p.UserID == uuid.Nil {
		return domain.ErrEmptyUserID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.UserID, p.FirstName, p.LastName, p.Email, p.Phone, p.Location,
		p.Role, p.Department, p.Timezone, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return store.NewStoreError("profile", "create", "insert failed", MapError(err))
	}
	return nil
}

func (s *PostgresProfileStore) Update(
	ctx context.Context,
	userID uuid.UUID,
	update domain.ProfileUpdate,
) (*domain.Profile, error) {
	if update.IsEmpty() {
		return nil, domain.ErrNoValidFields
	}

	var out *domain.Profile
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		p, err := scanProfile(tx.QueryRowContext(ctx,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 FOR UPDATE`, userID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrProfileNotFound
			}
			return MapError(err)
		}

		update.Apply(p, time.Now().UTC())

		_, err = tx.ExecContext(ctx,
			`UPDATE profiles SET first_name = $2, last_name = $3, email = $4, phone = $5,
				location = $6, role = $7, department = $8, timezone = $9, updated_at = $10
			WHERE user_id = $1`,
			p.UserID, p.FirstName, p.LastName, p.Email, p.Phone,
			p.Location, p.Role, p.Department, p.Timezone, p.UpdatedAt)
		if err != nil {
			return MapError(err)
		}
		out = p
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrProfileNotFound) {
			return nil, err
		}
		return nil, store.NewStoreError("profile", "update", "update failed", err)
	}
	return out, nil
}
