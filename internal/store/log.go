package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
)

// LogStore defines the interface for the append-only run journal.
// There is deliberately no update or delete operation.
type LogStore interface {
	// Append inserts a new entry.
	Append(ctx context.Context, entry *domain.LogEntry) error

	// ListByUser returns every entry owned by userID, newest first.
	// Returns an empty slice when there are none.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LogEntry, error)
}
