package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore keeps a session's conversation in memory.
// A positive limit caps the history, dropping the oldest entries first.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	limit   int
	now     func() time.Time
}

// NewHistoryStore creates an empty history. limit <= 0 means unbounded.
func NewHistoryStore(limit int) *HistoryStore {
	return &HistoryStore{limit: limit, now: time.Now}
}

// Append records an entry, stamping it if At is zero.
func (s *HistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.At.IsZero() {
		entry.At = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	if s.limit > 0 && len(s.entries) > s.limit {
		s.entries = slices.Delete(s.entries, 0, len(s.entries)-s.limit)
	}
	return nil
}

// List returns a copy of the entries in append order.
func (s *HistoryStore) List(_ context.Context) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries), nil
}

// Clear removes all entries.
func (s *HistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}
