package driven

import "github.com/custodia-labs/studybuddy/internal/core/domain"

// AIConfigValidator checks provider settings by contacting the provider.
type AIConfigValidator interface {
	// ValidateEmbedding pings the configured embedding provider.
	// Returns nil for the offline local provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the configured generation backend.
	// Returns nil for the offline local provider.
	ValidateLLM(config *domain.LLMSettings) error
}
