// Package local provides an offline embedding service based on feature hashing.
//
// Vectors are deterministic and need no network or model weights, which makes
// the provider suitable for tests and keyless demos. Similarity reflects shared
// words and word pairs rather than meaning.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingProvider = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 256
	modelPrefix       = "hash-"
)

// Config holds configuration for the hashing embedder.
type Config struct {
	// Model is a name of the form "hash-<dims>". It sets Dimensions when
	// Dimensions is zero.
	Model string

	// Dimensions is the vector size (default: 256).
	Dimensions int
}

// EmbeddingService turns text into L2-normalised hashed bag-of-words vectors.
type EmbeddingService struct {
	dimensions int
}

// NewEmbeddingService creates a hashing embedder.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	dims := cfg.Dimensions
	if dims == 0 && cfg.Model != "" {
		n, err := parseModel(cfg.Model)
		if err != nil {
			return nil, err
		}
		dims = n
	}
	if dims == 0 {
		dims = DefaultDimensions
	}
	if dims < 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, dims)
	}
	return &EmbeddingService{dimensions: dims}, nil
}

func parseModel(model string) (int, error) {
	if !strings.HasPrefix(model, modelPrefix) {
		return 0, fmt.Errorf("%w: unknown local model %q", domain.ErrInvalidInput, model)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(model, modelPrefix))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: unknown local model %q", domain.ErrInvalidInput, model)
	}
	return n, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds each text independently. The task hint is ignored.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string, _ domain.TaskType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

// vector hashes unigrams and bigrams into signed buckets. Text with no
// tokens yields a fixed unit vector so that it still has a defined cosine.
func (s *EmbeddingService) vector(text string) []float32 {
	v := make([]float64, s.dimensions)
	tokens := tokenize(text)
	for i, tok := range tokens {
		s.add(v, tok, 1)
		if i > 0 {
			s.add(v, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, x := range v {
		norm += x * x
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		out[0] = 1
		return out
	}
	norm = math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}

func (s *EmbeddingService) add(v []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(s.dimensions))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return modelPrefix + strconv.Itoa(s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
