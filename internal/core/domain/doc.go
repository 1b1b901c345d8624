// Package domain defines the core business entities for Study Buddy.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - UploadedDocument: Raw bytes and a name supplied by the session layer
//   - PageText: One non-empty page extracted from a document
//   - Chunk: A retrievable unit of text with its embedding
//   - ScoredChunk: A chunk paired with its similarity to a question
//   - GenerationRequest: The fully-formed prompt handed to a generation backend
//   - HistoryEntry: One rendered turn of the conversation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
