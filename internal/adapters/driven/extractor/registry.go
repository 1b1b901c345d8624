package extractor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor/docx"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor/html"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor/pdf"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/extractor/plaintext"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DocumentExtractor = (*Registry)(nil)

// Registry is a DocumentExtractor that delegates by file extension.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.DocumentExtractor
	fallback   driven.DocumentExtractor
}

// NewRegistry creates an empty registry. Documents with an unregistered
// extension go to fallback, or fail with domain.ErrUnsupportedType when
// fallback is nil.
func NewRegistry(fallback driven.DocumentExtractor) *Registry {
	return &Registry{
		extractors: make(map[string]driven.DocumentExtractor),
		fallback:   fallback,
	}
}

// NewDefaultRegistry registers every built-in extractor, with PDF as the
// fallback for unknown extensions.
func NewDefaultRegistry() *Registry {
	pdfExtractor := pdf.New()
	r := NewRegistry(pdfExtractor)
	r.Register(pdfExtractor)
	r.Register(plaintext.New())
	r.Register(plaintext.NewMarkdown())
	r.Register(html.New())
	r.Register(docx.New())
	return r
}

// Register maps each of the extractor's extensions to it, replacing any
// earlier registration.
func (r *Registry) Register(e driven.DocumentExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range e.SupportedExtensions() {
		r.extractors[strings.ToLower(ext)] = e
	}
}

// Lookup returns the extractor for an extension such as ".pdf".
func (r *Registry) Lookup(ext string) (driven.DocumentExtractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[strings.ToLower(ext)]
	return e, ok
}

// SupportedExtensions returns the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Extract delegates to the extractor registered for the document's extension.
func (r *Registry) Extract(ctx context.Context, doc domain.UploadedDocument) ([]domain.PageText, error) {
	e, ok := r.Lookup(doc.Ext())
	if !ok {
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, doc.Ext())
		}
		e = r.fallback
	}
	return e.Extract(ctx, doc)
}
