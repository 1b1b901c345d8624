package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory driven.VectorStore.
type Store struct {
	embedder driven.EmbeddingProvider
	task     domain.TaskType

	mu          sync.Mutex
	collections map[string]*Collection
}

// Option configures the store.
type Option func(*Store)

// WithQueryTaskType sets the embedding task hint used for questions.
func WithQueryTaskType(task domain.TaskType) Option {
	return func(s *Store) {
		if task.IsValid() {
			s.task = task
		}
	}
}

// NewStore creates a store whose collections embed questions with embedder.
func NewStore(embedder driven.EmbeddingProvider, opts ...Option) *Store {
	s := &Store{
		embedder:    embedder,
		task:        domain.TaskQuestionAnswering,
		collections: make(map[string]*Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrCreateCollection returns the named collection, creating it on first use.
func (s *Store) GetOrCreateCollection(_ context.Context, name string) (driven.VectorIndex, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c := newCollection(name, s.embedder, s.task)
	s.collections[name] = c
	return c, nil
}

// Collections returns collection names in sorted order.
func (s *Store) Collections() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DeleteCollection drops a collection and its chunks.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

// Close drops all collections.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = make(map[string]*Collection)
	return nil
}
