package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "****"},
		{name: "short", input: "AIza12", expected: "****"},
		{name: "exactly eight", input: "AIza1234", expected: "****"},
		{name: "gemini key", input: "AIzaSyD-example-key-0042", expected: "AIza...0042"},
		{name: "openai key", input: "sk-proj-abcdefghijklmnop", expected: "sk-p...mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, maskAPIKey(tt.input))
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty uses default", input: "", expected: 1},
		{name: "valid", input: "3", expected: 3},
		{name: "upper bound", input: "4", expected: 4},
		{name: "too large", input: "5", expected: 1},
		{name: "zero", input: "0", expected: 1},
		{name: "negative", input: "-2", expected: 1},
		{name: "not a number", input: "gemini", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseChoice(tt.input, len(domain.AllProviders()), 1))
		})
	}
}

func TestConfiguredStatus(t *testing.T) {
	assert.Equal(t, "configured", configuredStatus(true))
	assert.Equal(t, "not configured", configuredStatus(false))
}

func TestPrintAPIKey(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		key      string
		expected string
	}{
		{name: "masked", provider: domain.AIProviderGemini, key: "AIzaSyD-example-key-0042", expected: "  API Key: AIza...0042\n"},
		{name: "missing", provider: domain.AIProviderOpenAI, key: "", expected: "  API Key: (not set)\n"},
		{name: "keyless provider", provider: domain.AIProviderLocal, key: "ignored", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			cmd := &cobra.Command{}
			cmd.SetOut(buf)

			printAPIKey(cmd, tt.provider, tt.key)

			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestSettingsCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range settingsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"show", "wizard", "embedding", "llm"} {
		assert.True(t, names[want], "missing settings %s", want)
	}
}

func TestSettingsEmbedding_SelectsOfflineProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "4\n\n", "settings", "embedding")

	require.NoError(t, err)
	assert.Contains(t, out, "Select Embedding Provider")
	assert.Contains(t, out, "Validating configuration... OK")
	assert.Contains(t, out, "Embedding provider configured: Offline (deterministic) (hash-256)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
	assert.Equal(t, "hash-256", settings.Embedding.Model)
	assert.Equal(t, 256, settings.Embedding.Dimensions)
}

func TestSettingsLLM_CustomModel(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "4\necho\n", "settings", "llm")

	require.NoError(t, err)
	assert.Contains(t, out, "LLM provider configured: Offline (deterministic) (echo)")
}

func TestSettingsLLM_CloudProviderNeedsKey(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "1\n\n\n", "settings", "llm")

	assert.EqualError(t, err, "API key is required for this provider")
}

func TestSettingsShow_MasksKeys(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	require.NoError(t, settingsService.SetLLMProvider(domain.AIProviderGemini, "", "AIzaSyD-example-key-0042"))

	out, err := execute(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Google Gemini (cloud)")
	assert.Contains(t, out, "gemini-2.5-flash-lite")
	assert.Contains(t, out, "AIza...0042")
	assert.NotContains(t, out, "AIzaSyD-example-key-0042")
	assert.Contains(t, out, "Top K: 4")
}

func TestSettingsWizard(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "4\n\n4\n\n", "settings", "wizard")

	require.NoError(t, err)
	assert.Contains(t, out, "Step 1: Configure Embedding Provider")
	assert.Contains(t, out, "Step 2: Configure LLM Provider")
	assert.Contains(t, out, "All settings are valid and saved.")
}
