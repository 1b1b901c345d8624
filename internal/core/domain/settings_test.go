package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllProviders() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		provider AIProvider
		want     bool
	}{
		{AIProviderGemini, true},
		{AIProviderOpenAI, true},
		{AIProviderOllama, false},
		{AIProviderLocal, false},
	}
	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.provider.RequiresAPIKey())
		})
	}
}

func TestAIProvider_Description(t *testing.T) {
	for _, p := range AllProviders() {
		assert.NotEqual(t, unknownDescription, p.Description())
	}
	assert.Equal(t, unknownDescription, AIProvider("nope").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderGemini}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderGemini, APIKey: "k"}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderLocal}.IsConfigured())
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderLocal}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	require.True(t, s.Embedding.IsConfigured())
	require.True(t, s.LLM.IsConfigured())
	assert.Equal(t, AIProviderLocal, s.Embedding.Provider)
	assert.Equal(t, TaskQuestionAnswering, s.Embedding.TaskType)
	assert.Equal(t, DefaultTopK, s.Retrieval.TopK)
	assert.Equal(t, DefaultCollection, s.Retrieval.Collection)
	assert.Positive(t, s.Ingest.Concurrency)
	assert.Equal(t, ":8080", s.Server.Addr)
}

func TestDefaultModels(t *testing.T) {
	assert.Equal(t, "gemini-embedding-001", DefaultEmbeddingModels()[AIProviderGemini])
	assert.Equal(t, "gemini-2.5-flash-lite", DefaultLLMModels()[AIProviderGemini])

	dims := EmbeddingDimensions()
	for _, model := range DefaultEmbeddingModels() {
		assert.Positive(t, dims[model], model)
	}
}
