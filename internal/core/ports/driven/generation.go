package driven

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// GenerationBackend streams answers for a generation request.
// This is an optional service - when nil, only retrieval is available.
//
// Implementations may include:
//   - Gemini (gemini-2.5-flash-lite)
//   - OpenAI (gpt-4o-mini)
//   - Ollama (local models)
//   - Offline echo of the retrieved context
type GenerationBackend interface {
	// Stream starts generating an answer. Fragments are produced lazily
	// as the caller advances the returned stream.
	Stream(ctx context.Context, req *domain.GenerationRequest) (AnswerStream, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// AnswerStream is a lazily-produced sequence of answer fragments.
//
// Usage mirrors bufio.Scanner:
//
//	for stream.Next() {
//		render(stream.Text())
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Close may be called at any time, including before the stream is drained,
// and must not block on the remote side.
type AnswerStream interface {
	// Next advances to the next fragment. It returns false when the stream
	// is exhausted, failed, or closed.
	Next() bool

	// Text returns the current fragment.
	Text() string

	// Err returns the error that stopped the stream, or nil on clean completion.
	// Failures wrap domain.ErrGenerationBackend.
	Err() error

	// Close stops the stream and releases its resources.
	Close() error
}
