package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// LogStore implements store.LogStore as an append-only slice.
type LogStore struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
}

var _ store.LogStore = (*LogStore)(nil)

func NewLogStore() *LogStore {
	return &LogStore{}
}

func (s *LogStore) Append(ctx context.Context, entry *domain.LogEntry) error {
	if entry == nil || entry.ID == uuid.Nil {
		return store.ErrInvalidEntity
	}
	s.mu.Lock()
	s.entries = append(s.entries, *entry)
	s.mu.Unlock()
	return nil
}

// ListByUser returns the user's entries newest first. Entries appended later
// sort first when timestamps tie.
func (s *LogStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.LogEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID == userID {
			e := s.entries[i]
			out = append(out, &e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}
