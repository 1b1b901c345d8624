package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrDocumentFormat indicates an uploaded document is unreadable or corrupt.
	// Ingestion of that document is aborted; sibling documents are unaffected.
	ErrDocumentFormat = errors.New("unreadable document")

	// ErrEmbeddingUnavailable indicates the embedding backend failed or is not configured.
	// Ingestion and retrieval fail outright rather than degrading to empty vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation backend is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrGenerationBackend indicates the streaming generation call failed or was interrupted.
	ErrGenerationBackend = errors.New("generation backend error")

	// ErrIncompleteAnswer indicates a streamed answer stopped before completion.
	// Text already delivered stays visible but is not recorded in history.
	ErrIncompleteAnswer = errors.New("answer incomplete")
)

// TurnError reports a conversation turn that failed after its uploads were
// ingested. Outcomes holds the per-document results so callers can still
// show which documents were indexed and which were rejected.
type TurnError struct {
	Outcomes []IngestOutcome
	Err      error
}

func (e *TurnError) Error() string {
	return e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// TurnOutcomes returns the ingestion outcomes carried by a failed turn, if any.
func TurnOutcomes(err error) []IngestOutcome {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Outcomes
	}
	return nil
}
