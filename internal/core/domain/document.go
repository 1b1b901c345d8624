package domain

import (
	"path/filepath"
	"strings"
)

// UploadedDocument is a raw document handed to the core by the session layer.
type UploadedDocument struct {
	// Name is the display name of the document, used as the chunk source.
	Name string

	// Data is the raw file content.
	Data []byte
}

// Ext returns the lower-cased file extension of the document name, including the dot.
func (d UploadedDocument) Ext() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// PageText is one non-empty page of extracted text.
type PageText struct {
	// Index is the 0-based page position within the source document.
	Index int

	// Text is the extracted page content.
	Text string
}

// Chunk is an atomic retrievable unit of text.
// Chunks are created at ingestion and never updated in place.
type Chunk struct {
	// ID is unique within the lifetime of the index.
	ID string

	// Text is the non-empty chunk content.
	Text string

	// Source is the originating document's name.
	Source string

	// Page is the 1-based page number within the source document.
	Page int

	// Embedding is the vector computed once at ingestion.
	Embedding []float32
}

// Validate checks the invariants a chunk must satisfy before it is indexed.
func (c Chunk) Validate() error {
	switch {
	case c.ID == "":
		return ErrInvalidInput
	case strings.TrimSpace(c.Text) == "":
		return ErrInvalidInput
	case len(c.Embedding) == 0:
		return ErrInvalidInput
	}
	return nil
}

// IsBlank reports whether text contains only whitespace.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// IngestOutcome reports the ingestion of one document in a batch.
type IngestOutcome struct {
	// Source is the document name.
	Source string

	// Chunks is the number of chunks added. Zero when Err is set.
	Chunks int

	// Err is the per-document failure, nil on success.
	Err error
}

// OK reports whether the document was fully ingested.
func (o IngestOutcome) OK() bool {
	return o.Err == nil
}
