package driving

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// IngestionService turns uploaded documents into indexed chunks.
type IngestionService interface {
	// Ingest indexes every non-empty page of the document and returns the
	// number of chunks added. Either all pages are indexed or none are.
	Ingest(ctx context.Context, doc domain.UploadedDocument) (int, error)

	// IngestAll ingests documents independently, possibly in parallel.
	// It returns one outcome per document in input order; a failing
	// document never prevents its siblings from being indexed.
	IngestAll(ctx context.Context, docs []domain.UploadedDocument) []domain.IngestOutcome
}
