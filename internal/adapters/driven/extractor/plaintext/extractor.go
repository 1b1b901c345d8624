// Package plaintext extracts pages from text and markdown files.
//
// Form feeds (U+000C) separate pages, so "a\fb" is a two-page document.
package plaintext

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.DocumentExtractor = (*Extractor)(nil)

const pageBreak = "\f"

// Extractor splits UTF-8 text into pages, optionally stripping markdown.
type Extractor struct {
	markdown bool
}

// New creates an extractor for plain text files.
func New() *Extractor {
	return &Extractor{}
}

// NewMarkdown creates an extractor that strips markdown syntax from each page.
func NewMarkdown() *Extractor {
	return &Extractor{markdown: true}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	if e.markdown {
		return []string{".md", ".markdown"}
	}
	return []string{".txt", ".text"}
}

// Extract splits the document on form feeds and drops blank pages.
// Content that is not valid UTF-8 fails with domain.ErrDocumentFormat.
func (e *Extractor) Extract(_ context.Context, doc domain.UploadedDocument) ([]domain.PageText, error) {
	if !utf8.Valid(doc.Data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8 text", domain.ErrDocumentFormat, doc.Name)
	}

	var pages []domain.PageText
	for i, text := range strings.Split(string(doc.Data), pageBreak) {
		if e.markdown {
			text = stripMarkdown(text)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageText{Index: i, Text: text})
	}
	return pages, nil
}

var (
	codeFence    = regexp.MustCompile("(?m)^```.*$")
	inlineCode   = regexp.MustCompile("`([^`]+)`")
	images       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings     = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	emphasis     = regexp.MustCompile(`(\*\*|__|\*)([^*\n]+?)(\*\*|__|\*)`)
	blockquote   = regexp.MustCompile(`(?m)^>\s?`)
	rule         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	listMarker   = regexp.MustCompile(`(?m)^[ \t]*([-*+]|\d+\.)[ \t]+`)
	manyNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown reduces markdown to readable text. Fences are removed but
// code block contents are kept.
func stripMarkdown(content string) string {
	content = codeFence.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = emphasis.ReplaceAllString(content, "$2")
	content = blockquote.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = listMarker.ReplaceAllString(content, "")
	content = manyNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
