package driven

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// VectorIndex is one named collection of chunks answering similarity queries.
// A chunk upserted before a Query call is visible to that query.
type VectorIndex interface {
	// Name returns the collection name.
	Name() string

	// Upsert inserts or replaces chunks by ID. All chunks of one call
	// become visible together.
	Upsert(ctx context.Context, chunks ...domain.Chunk) error

	// Query embeds the question and returns up to k nearest chunks,
	// most similar first. An empty index yields an empty result.
	Query(ctx context.Context, question string, k int) (domain.RetrievalResult, error)

	// Get returns a chunk by ID.
	Get(ctx context.Context, id string) (*domain.Chunk, error)

	// Count returns the number of stored chunks.
	Count() int

	// Reset removes every chunk from the collection.
	Reset(ctx context.Context) error
}

// VectorStore owns the collections of a session.
type VectorStore interface {
	// GetOrCreateCollection returns the named collection, creating it if needed.
	GetOrCreateCollection(ctx context.Context, name string) (VectorIndex, error)

	// Collections returns the names of all collections in sorted order.
	Collections() []string

	// DeleteCollection removes a collection. Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// Close releases resources.
	Close() error
}
