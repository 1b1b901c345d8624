// Package extractor routes uploaded documents to a format-specific
// driven.DocumentExtractor by file extension.
//
// Extractors:
//   - pdf: PDF via github.com/ledongthuc/pdf (also the fallback)
//   - plaintext: .txt, and .md with markdown stripped
//   - html: .html and .htm
//   - docx: Word documents, split on explicit page breaks
package extractor
