// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
//
// Index-time and query-time embeddings must come from the same provider so
// that similarities are comparable. Failures wrap domain.ErrEmbeddingUnavailable
// and are never replaced by zero vectors.
//
// Implementations may include:
//   - Gemini (gemini-embedding-001)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Offline feature hashing
type EmbeddingProvider interface {
	// Embed generates a vector embedding for a single text.
	// It is a convenience over a 1-element EmbedBatch.
	Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error)

	// EmbedBatch generates one embedding per input text, preserving order.
	EmbedBatch(ctx context.Context, texts []string, task domain.TaskType) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
