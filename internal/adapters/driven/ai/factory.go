// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/studybuddy/internal/adapters/driven/embedding/gemini"
	localembed "github.com/custodia-labs/studybuddy/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/studybuddy/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/studybuddy/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/embedding/resilient"
	geminillm "github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/gemini"
	localllm "github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/local"
	ollamallm "github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// fixHint is appended to configuration errors.
const fixHint = "Run 'studybuddy settings show' to review the configuration"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	Embedding  driven.EmbeddingProvider
	Generation driven.GenerationBackend // nil when generation is unavailable.
	Warnings   []string                 // Non-fatal issues that disabled generation.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Embedding != nil {
		_ = r.Embedding.Close()
	}
	if r.Generation != nil {
		_ = r.Generation.Close()
	}
}

// InitOptions tunes Initialise.
type InitOptions struct {
	// Validate pings remote providers before returning them.
	Validate bool

	// Metrics receives embedding error counts. Optional.
	Metrics *metrics.Metrics
}

// Initialise builds the embedding provider and generation backend for
// settings. Embedding is required and its failure is returned. A generation
// failure is reported as a warning and leaves Generation nil, so that
// ingestion and retrieval keep working.
func Initialise(settings *domain.AppSettings, opts InitOptions) (*InitResult, error) {
	create := CreateEmbeddingService
	if opts.Validate {
		create = CreateAndValidateEmbeddingService
	}
	emb, err := create(&settings.Embedding, opts.Metrics)
	if err != nil {
		return nil, err
	}

	result := &InitResult{Embedding: emb}

	createLLM := CreateLLMService
	if opts.Validate {
		createLLM = CreateAndValidateLLMService
	}
	gen, err := createLLM(&settings.LLM)
	if err != nil {
		logger.Warn("generation disabled: %v", err)
		result.Warnings = append(result.Warnings, err.Error())
		return result, nil
	}
	result.Generation = gen
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(
	settings *domain.EmbeddingSettings,
	m *metrics.Metrics,
) (driven.EmbeddingProvider, error) {
	svc, err := CreateEmbeddingService(settings, m)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s",
			domain.ErrEmbeddingUnavailable, err, fixHint)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates a generation backend and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.GenerationBackend, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). %s",
			domain.ErrLLMUnavailable, err, fixHint)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding provider named by settings.
// Remote providers are wrapped with rate limiting and retries.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, m *metrics.Metrics) (driven.EmbeddingProvider, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no embedding settings", domain.ErrEmbeddingUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, notConfigured(domain.ErrEmbeddingUnavailable, "embedding", settings.Provider)
	}

	var (
		svc driven.EmbeddingProvider
		err error
	)
	switch settings.Provider {
	case domain.AIProviderLocal:
		return createLocalEmbedding(settings)

	case domain.AIProviderGemini:
		svc, err = createGeminiEmbedding(settings)

	case domain.AIProviderOpenAI:
		svc, err = createOpenAIEmbedding(settings)

	case domain.AIProviderOllama:
		svc = createOllamaEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	logger.Debug("embedding: %s/%s (%d dims)", settings.Provider, svc.ModelName(), svc.Dimensions())
	return resilient.Wrap(svc, resilient.Config{
		RequestsPerSecond: settings.RateLimit,
		MaxRetries:        settings.MaxRetries,
		Metrics:           m,
	}), nil
}

// CreateLLMService creates the generation backend named by settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.GenerationBackend, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: no LLM settings", domain.ErrLLMUnavailable)
	}
	if !settings.IsConfigured() {
		return nil, notConfigured(domain.ErrLLMUnavailable, "LLM", settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return localllm.NewLLMService(), nil

	case domain.AIProviderGemini:
		return wrapLLM(createGeminiLLM(settings))

	case domain.AIProviderOpenAI:
		return wrapLLM(createOpenAILLM(settings))

	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrLLMUnavailable, settings.Provider)
	}
}

func notConfigured(sentinel error, kind string, provider domain.AIProvider) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: unknown %s provider %q", sentinel, kind, provider)
	}
	return fmt.Errorf("%w: %s provider %s needs an API key. %s", sentinel, kind, provider, fixHint)
}

func wrapLLM(svc driven.GenerationBackend, err error) (driven.GenerationBackend, error) {
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// createLocalEmbedding creates the offline hashing embedder. It is not
// wrapped because it cannot fail transiently.
func createLocalEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	svc, err := localembed.NewEmbeddingService(localembed.Config{
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	return geminiembed.NewEmbeddingService(geminiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingProvider {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}

// createGeminiLLM creates a Gemini generation service.
func createGeminiLLM(settings *domain.LLMSettings) (driven.GenerationBackend, error) {
	return geminillm.NewLLMService(geminillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI generation service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.GenerationBackend, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOllamaLLM creates an Ollama generation service.
func createOllamaLLM(settings *domain.LLMSettings) driven.GenerationBackend {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
