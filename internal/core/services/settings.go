package services

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedTaskType   = "embedding.task_type"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedRateLimit  = "embedding.rate_limit"
	keyEmbedMaxRetries = "embedding.max_retries"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMAPIKey       = "llm.api_key"
	keyTopK            = "retrieval.top_k"
	keyCollection      = "retrieval.collection"
	keyConcurrency     = "ingest.concurrency"
	keyServerAddr      = "server.addr"
	keyServerMode      = "server.mode"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvOllamaHost   = "OLLAMA_HOST"
	EnvProvider     = "STUDYBUDDY_PROVIDER"
	EnvLLMModel     = "STUDYBUDDY_MODEL"
	EnvEmbedModel   = "STUDYBUDDY_EMBEDDING_MODEL"
	EnvTopK         = "STUDYBUDDY_TOP_K"
)

// SettingsService resolves application settings from defaults, the config
// store and the environment, in that order of precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup. Passing nil disables overrides.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	s.lookupEnv = lookup
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	return s.resolve(true), nil
}

func (s *SettingsService) resolve(withEnv bool) *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:      s.configStore.GetString(keyEmbedModel),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			TaskType:   s.getTaskType(defaults.Embedding.TaskType),
			Dimensions: s.configStore.GetInt(keyEmbedDimensions),
			RateLimit:  s.getFloat(keyEmbedRateLimit, defaults.Embedding.RateLimit),
			MaxRetries: s.getInt(keyEmbedMaxRetries, defaults.Embedding.MaxRetries),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.configStore.GetString(keyLLMModel),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:       s.getInt(keyTopK, defaults.Retrieval.TopK),
			Collection: s.getString(keyCollection, defaults.Retrieval.Collection),
		},
		Ingest: domain.IngestSettings{
			Concurrency: s.getInt(keyConcurrency, defaults.Ingest.Concurrency),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, defaults.Server.Addr),
			Mode: s.getString(keyServerMode, defaults.Server.Mode),
		},
	}

	if withEnv {
		s.applyEnv(settings)
	}
	fillModels(settings)

	return settings
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedTaskType, settings.Embedding.TaskType.String()},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyEmbedMaxRetries, settings.Embedding.MaxRetries},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyTopK, settings.Retrieval.TopK},
		{keyCollection, settings.Retrieval.Collection},
		{keyConcurrency, settings.Ingest.Concurrency},
		{keyServerAddr, settings.Server.Addr},
		{keyServerMode, settings.Server.Mode},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// Keys are only written when present so an env-supplied key never lands on disk by accident.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.stored()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	if model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	settings.Embedding.APIKey = apiKey
	if provider != domain.AIProviderOllama {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.Dimensions = domain.EmbeddingDimensions()[settings.Embedding.Model]

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.stored()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	if model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}
	settings.LLM.APIKey = apiKey
	if provider != domain.AIProviderOllama {
		settings.LLM.BaseURL = ""
	}

	return s.Save(settings)
}

// Validate checks that the current settings can be used.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: LLM provider %q is not configured",
			domain.ErrLLMUnavailable, settings.LLM.Provider)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(settings.Retrieval.Collection) == "" {
		return fmt.Errorf("%w: retrieval.collection is empty", domain.ErrInvalidInput)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current generation configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// stored returns settings without environment overrides, so that saving
// them never persists values that only came from the environment.
func (s *SettingsService) stored() (*domain.AppSettings, error) {
	return s.resolve(false), nil
}

// applyEnv overlays environment variables. A Gemini or OpenAI key found in
// the environment switches providers still set to local over to that service.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if p, ok := s.env(EnvProvider); ok && domain.AIProvider(p).IsValid() {
		settings.Embedding.Provider = domain.AIProvider(p)
		settings.LLM.Provider = domain.AIProvider(p)
	}

	gemini, hasGemini := s.env(EnvGeminiAPIKey)
	if !hasGemini {
		gemini, hasGemini = s.env(EnvGoogleAPIKey)
	}
	openai, hasOpenAI := s.env(EnvOpenAIAPIKey)

	for _, target := range []struct {
		provider *domain.AIProvider
		apiKey   *string
	}{
		{&settings.Embedding.Provider, &settings.Embedding.APIKey},
		{&settings.LLM.Provider, &settings.LLM.APIKey},
	} {
		if *target.provider == domain.AIProviderLocal {
			switch {
			case hasGemini:
				*target.provider = domain.AIProviderGemini
			case hasOpenAI:
				*target.provider = domain.AIProviderOpenAI
			}
		}
		if *target.apiKey != "" {
			continue
		}
		switch *target.provider {
		case domain.AIProviderGemini:
			*target.apiKey = gemini
		case domain.AIProviderOpenAI:
			*target.apiKey = openai
		}
	}

	if host, ok := s.env(EnvOllamaHost); ok {
		if settings.Embedding.Provider == domain.AIProviderOllama && settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = host
		}
		if settings.LLM.Provider == domain.AIProviderOllama && settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = host
		}
	}
	if model, ok := s.env(EnvLLMModel); ok {
		settings.LLM.Model = model
	}
	if model, ok := s.env(EnvEmbedModel); ok {
		settings.Embedding.Model = model
	}
	if v, ok := s.env(EnvTopK); ok {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			settings.Retrieval.TopK = k
		}
	}
}

// fillModels picks each provider's default model when none is set.
func fillModels(settings *domain.AppSettings) {
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if settings.LLM.Model == "" {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) env(key string) (string, bool) {
	v, ok := s.lookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getTaskType(defaultVal domain.TaskType) domain.TaskType {
	task := domain.TaskType(s.configStore.GetString(keyEmbedTaskType))
	if !task.IsValid() {
		return defaultVal
	}
	return task
}
