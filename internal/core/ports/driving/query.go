package driving

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// QueryService builds context-grounded generation requests.
type QueryService interface {
	// Answer retrieves the top k chunks for the question and returns the
	// generation request built from them. It never calls the generation backend.
	Answer(ctx context.Context, question string, k int) (*domain.GenerationRequest, error)

	// Retrieve returns the top k chunks for the question without building a request.
	Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error)
}
