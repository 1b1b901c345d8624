package driven

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// DocumentExtractor converts a raw document into ordered page texts.
//
// Implementations must:
//   - Return pages in document order with 0-based indices
//   - Drop pages whose text is empty or whitespace-only
//   - Fail with domain.ErrDocumentFormat when the input is unreadable
//   - Be side-effect free so the same input can be extracted again
type DocumentExtractor interface {
	// Extract returns the non-empty pages of the document.
	Extract(ctx context.Context, doc domain.UploadedDocument) ([]domain.PageText, error)

	// SupportedExtensions returns the file extensions this extractor handles (e.g. ".pdf").
	SupportedExtensions() []string
}
