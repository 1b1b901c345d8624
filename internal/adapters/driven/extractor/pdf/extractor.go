// Package pdf extracts page text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.DocumentExtractor = (*Extractor)(nil)

// Extractor reads PDFs in memory with github.com/ledongthuc/pdf.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Extract returns the text of every non-blank page in order.
// Input the parser cannot open, or any page whose text cannot be decoded,
// fails the whole document with domain.ErrDocumentFormat.
func (e *Extractor) Extract(ctx context.Context, doc domain.UploadedDocument) (pages []domain.PageText, err error) {
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrDocumentFormat, doc.Name)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %s: %v", domain.ErrDocumentFormat, doc.Name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentFormat, doc.Name, err)
	}

	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrDocumentFormat, doc.Name, i, err)
		}
		if domain.IsBlank(text) {
			continue
		}
		pages = append(pages, domain.PageText{Index: i - 1, Text: text})
	}

	logger.Debug("PDF %s: %d of %d pages have text", doc.Name, len(pages), total)
	return pages, nil
}
