// Package docx extracts page text from Word documents.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.DocumentExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// Extractor reads word/document.xml from a .docx archive. Explicit page
// breaks start a new page; documents without them are a single page.
type Extractor struct{}

// New creates a DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".docx"}
}

// Extract returns the text of each non-blank page, one line per paragraph.
func (e *Extractor) Extract(_ context.Context, doc domain.UploadedDocument) ([]domain.PageText, error) {
	archive, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentFormat, doc.Name, err)
	}

	body, err := readPart(archive, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentFormat, doc.Name, err)
	}

	texts, err := splitPages(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentFormat, doc.Name, err)
	}

	var pages []domain.PageText
	for i, text := range texts {
		if domain.IsBlank(text) {
			continue
		}
		pages = append(pages, domain.PageText{Index: i, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}

func readPart(archive *zip.Reader, name string) ([]byte, error) {
	for _, file := range archive.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("missing %s", name)
}

// splitPages walks the WordprocessingML token stream. Text runs (w:t) and
// tabs are collected, paragraphs (w:p) end a line and w:br with
// w:type="page" ends a page.
func splitPages(body []byte) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))

	var (
		pages  []string
		page   strings.Builder
		inText bool
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				page.WriteString("\t")
			case "br":
				if isPageBreak(t) {
					pages = append(pages, page.String())
					page.Reset()
				} else {
					page.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				page.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				page.Write(t)
			}
		}
	}
	return append(pages, page.String()), nil
}

func isPageBreak(el xml.StartElement) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value == "page" {
			return true
		}
	}
	return false
}
