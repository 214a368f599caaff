package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// MockLogStore implements store.LogStore. Appended entries are kept in
// memory unless AppendFn overrides Append.
type MockLogStore struct {
	AppendFn     func(ctx context.Context, entry *domain.LogEntry) error
	ListByUserFn func(ctx context.Context, userID uuid.UUID) ([]*domain.LogEntry, error)

	mu      sync.Mutex
	entries []*domain.LogEntry
}

var _ store.LogStore = (*MockLogStore)(nil)

func (m *MockLogStore) Append(ctx context.Context, entry *domain.LogEntry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockLogStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LogEntry, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.LogEntry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			out = append(out, m.entries[i])
		}
	}
	return out, nil
}

// Entries returns every appended entry in append order.
func (m *MockLogStore) Entries() []*domain.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.LogEntry(nil), m.entries...)
}
