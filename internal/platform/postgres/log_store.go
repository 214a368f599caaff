package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// PostgresLogStore implements store.LogStore. Entries are insert-only.
type PostgresLogStore struct {
	db store.DBTX
}

var _ store.LogStore = (*PostgresLogStore)(nil)

func NewPostgresLogStore(db store.DBTX) *PostgresLogStore {
	return &PostgresLogStore{db: db}
}

func (s *PostgresLogStore) Append(ctx context.Context, e *domain.LogEntry) error {
	if e == nil || e.ID == uuid.Nil {
		return store.ErrInvalidEntity
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (id, task_id, user_id, type, status, details, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.TaskID, e.UserID, e.Type, string(e.Status), e.Details,
		e.Duration.Milliseconds(), e.Timestamp.UTC())
	if err != nil {
		return store.NewStoreError("log", "append", "insert failed", MapError(err))
	}
	return nil
}

func (s *PostgresLogStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, user_id, type, status, details, duration_ms, created_at
		FROM logs WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", MapError(err))
	}
	defer rows.Close()

	entries := make([]*domain.LogEntry, 0)
	for rows.Next() {
		var (
			e          domain.LogEntry
			status     string
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.Type, &status, &e.Details,
			&durationMS, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		e.Status = domain.LogStatus(status)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate logs: %w", MapError(err))
	}
	return entries, nil
}
