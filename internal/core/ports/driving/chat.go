package driving

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// ChatService runs conversation turns: ingest uploads, retrieve, stream the answer.
type ChatService interface {
	// Turn ingests the uploaded documents, builds the request for the question
	// and opens the answer stream. The caller must drain or Close the reply.
	Turn(ctx context.Context, question string, docs []domain.UploadedDocument) (Reply, error)

	// History returns the conversation so far.
	History(ctx context.Context) ([]domain.HistoryEntry, error)

	// ClearHistory forgets the conversation.
	ClearHistory(ctx context.Context) error
}

// Reply is the streamed answer to one turn.
type Reply interface {
	// Next advances to the next answer fragment.
	Next() bool

	// Text returns the current fragment.
	Text() string

	// Err returns nil after a complete answer. An interrupted answer
	// wraps domain.ErrIncompleteAnswer.
	Err() error

	// Close stops the stream. Closing before the end marks the answer incomplete.
	Close() error

	// Answer returns the text received so far.
	Answer() string

	// Request returns the generation request the answer is grounded on.
	Request() *domain.GenerationRequest

	// Outcomes returns the ingestion result of each uploaded document.
	Outcomes() []domain.IngestOutcome
}
