package driven

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// HistoryStore holds the append-only conversation history of a session.
type HistoryStore interface {
	// Append records an entry at the end of the history.
	Append(ctx context.Context, entry domain.HistoryEntry) error

	// List returns all entries in the order they were appended.
	List(ctx context.Context) ([]domain.HistoryEntry, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
