package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// DefaultIngestConcurrency bounds parallel document ingestion.
const DefaultIngestConcurrency = 4

// IngestionService drives extractor, embedding provider and vector index
// to turn uploaded documents into page-level chunks.
type IngestionService struct {
	extractor   driven.DocumentExtractor
	embedder    driven.EmbeddingProvider
	index       driven.VectorIndex
	ids         *IDGenerator
	task        domain.TaskType
	concurrency int
	metrics     *metrics.Metrics
}

// IngestionOption configures the ingestion service.
type IngestionOption func(*IngestionService)

// WithConcurrency bounds how many documents IngestAll processes at once.
func WithConcurrency(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTaskType sets the embedding task hint used for page text.
func WithTaskType(task domain.TaskType) IngestionOption {
	return func(s *IngestionService) {
		if task.IsValid() {
			s.task = task
		}
	}
}

// WithIDGenerator replaces the chunk ID generator.
func WithIDGenerator(ids *IDGenerator) IngestionOption {
	return func(s *IngestionService) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// WithIngestMetrics records ingestion outcomes.
func WithIngestMetrics(m *metrics.Metrics) IngestionOption {
	return func(s *IngestionService) {
		s.metrics = m
	}
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	extractor driven.DocumentExtractor,
	embedder driven.EmbeddingProvider,
	index driven.VectorIndex,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		extractor:   extractor,
		embedder:    embedder,
		index:       index,
		ids:         NewIDGenerator(),
		task:        domain.TaskQuestionAnswering,
		concurrency: DefaultIngestConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest extracts, embeds and indexes every non-empty page of doc.
// The pages are upserted in a single call, so either all of them become
// retrievable or none do.
func (s *IngestionService) Ingest(ctx context.Context, doc domain.UploadedDocument) (int, error) {
	n, err := s.ingest(ctx, doc)
	s.metrics.ObserveIngest(n, err)
	return n, err
}

func (s *IngestionService) ingest(ctx context.Context, doc domain.UploadedDocument) (int, error) {
	logger.Section("Ingestion: " + doc.Name)

	if doc.Name == "" {
		return 0, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	extracted, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", doc.Name, err)
		return 0, fmt.Errorf("extract %s: %w", doc.Name, err)
	}
	pages := make([]domain.PageText, 0, len(extracted))
	for _, page := range extracted {
		if !domain.IsBlank(page.Text) {
			pages = append(pages, page)
		}
	}
	logger.Debug("Extracted %d non-empty pages from %s", len(pages), doc.Name)

	if len(pages) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pages))
	for i, page := range pages {
		texts[i] = page.Text
	}

	done := logger.Timed("embed batch")
	vectors, err := s.embedder.EmbedBatch(ctx, texts, s.task)
	done()
	if err != nil {
		logger.Warn("Embedding failed for %s: %v", doc.Name, err)
		return 0, embeddingError(doc.Name, err)
	}
	if len(vectors) != len(texts) {
		s.metrics.IncEmbeddingErrors()
		return 0, fmt.Errorf("%w: embed %s: got %d vectors for %d pages",
			domain.ErrEmbeddingUnavailable, doc.Name, len(vectors), len(texts))
	}

	chunks := make([]domain.Chunk, len(pages))
	for i, page := range pages {
		if len(vectors[i]) == 0 {
			return 0, fmt.Errorf("%w: embed %s: empty vector for page %d",
				domain.ErrEmbeddingUnavailable, doc.Name, page.Index+1)
		}
		chunks[i] = domain.Chunk{
			ID:        s.ids.Next(doc.Name, page.Index),
			Text:      page.Text,
			Source:    doc.Name,
			Page:      page.Index + 1,
			Embedding: vectors[i],
		}
	}

	if err := s.index.Upsert(ctx, chunks...); err != nil {
		return 0, fmt.Errorf("index %s: %w", doc.Name, err)
	}

	logger.Info("Indexed %d chunks from %s into %q", len(chunks), doc.Name, s.index.Name())
	return len(chunks), nil
}

// IngestAll ingests documents in parallel, bounded by the configured
// concurrency. Each document succeeds or fails on its own.
func (s *IngestionService) IngestAll(ctx context.Context, docs []domain.UploadedDocument) []domain.IngestOutcome {
	outcomes := make([]domain.IngestOutcome, len(docs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			n, err := s.Ingest(ctx, doc)
			outcomes[i] = domain.IngestOutcome{Source: doc.Name, Chunks: n, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// embeddingError makes sure an embedding failure always carries ErrEmbeddingUnavailable.
func embeddingError(name string, err error) error {
	if errors.Is(err, domain.ErrEmbeddingUnavailable) {
		return fmt.Errorf("embed %s: %w", name, err)
	}
	return fmt.Errorf("%w: embed %s: %w", domain.ErrEmbeddingUnavailable, name, err)
}
