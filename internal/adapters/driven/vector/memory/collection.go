package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Collection implements the interface.
var _ driven.VectorIndex = (*Collection)(nil)

// entry is a stored chunk with its precomputed vector norm.
type entry struct {
	chunk domain.Chunk
	norm  float64
}

// Collection is one named, in-memory vector index.
type Collection struct {
	name     string
	embedder driven.EmbeddingProvider
	task     domain.TaskType

	mu      sync.RWMutex
	entries map[string]entry
	dims    int
}

func newCollection(name string, embedder driven.EmbeddingProvider, task domain.TaskType) *Collection {
	return &Collection{
		name:     name,
		embedder: embedder,
		task:     task,
		entries:  make(map[string]entry),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Upsert inserts or replaces chunks by ID. The whole batch is validated
// first and then written under a single lock, so a query sees either none
// or all of it.
func (c *Collection) Upsert(ctx context.Context, chunks ...domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(chunks) == 0 {
		return nil
	}

	dims := len(chunks[0].Embedding)
	prepared := make([]entry, len(chunks))
	for i, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("upsert chunk %q: %w", chunk.ID, err)
		}
		if len(chunk.Embedding) != dims {
			return fmt.Errorf("%w: chunk %q has %d dimensions, batch has %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), dims)
		}
		// Copy so later mutation by the caller cannot reach the index.
		chunk.Embedding = append([]float32(nil), chunk.Embedding...)
		prepared[i] = entry{chunk: chunk, norm: norm(chunk.Embedding)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dims != 0 && c.dims != dims && len(c.entries) > 0 {
		return fmt.Errorf("%w: collection %q holds %d-dimension vectors, got %d",
			domain.ErrInvalidInput, c.name, c.dims, dims)
	}
	c.dims = dims
	for _, e := range prepared {
		c.entries[e.chunk.ID] = e
	}
	return nil
}

// Query embeds question and returns up to k chunks by cosine similarity.
// An empty collection or k <= 0 yields an empty result without calling the embedder.
func (c *Collection) Query(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	if k <= 0 || c.Count() == 0 {
		return domain.RetrievalResult{}, nil
	}

	vector, err := c.embedder.Embed(ctx, question, c.task)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) {
			return nil, fmt.Errorf("embed question: %w", err)
		}
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrEmbeddingUnavailable, err)
	}
	qNorm := norm(vector)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.entries) == 0 {
		return domain.RetrievalResult{}, nil
	}
	if len(vector) != c.dims {
		return nil, fmt.Errorf("%w: question vector has %d dimensions, collection %q has %d",
			domain.ErrEmbeddingUnavailable, len(vector), c.name, c.dims)
	}

	hits := make([]domain.ScoredChunk, 0, len(c.entries))
	for _, e := range c.entries {
		hits = append(hits, domain.ScoredChunk{
			Chunk: e.chunk,
			Score: cosine(vector, qNorm, e.chunk.Embedding, e.norm),
		})
	}
	top := rank(hits, k)
	for i := range top {
		top[i].Chunk = detached(top[i].Chunk)
	}
	return top, nil
}

// Get returns a copy of the chunk with the given ID.
func (c *Collection) Get(_ context.Context, id string) (*domain.Chunk, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk := detached(e.chunk)
	return &chunk, nil
}

// detached returns chunk with its own copy of the embedding so callers
// cannot modify stored vectors.
func detached(chunk domain.Chunk) domain.Chunk {
	chunk.Embedding = slices.Clone(chunk.Embedding)
	return chunk
}

// Count returns the number of stored chunks.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset removes every chunk.
func (c *Collection) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.dims = 0
	return nil
}
