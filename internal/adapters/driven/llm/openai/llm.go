// Package openai provides a streaming generation adapter using the OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/httperr"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/stream"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.GenerationBackend = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

const providerName = "openai"

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use when a request names none (default: gpt-4o-mini).
	Model string

	// Timeout bounds a whole streamed answer (default: 120s).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// LLMService streams chat completions from OpenAI.
type LLMService struct {
	client openai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &LLMService{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
		model: cfg.Model,
	}, nil
}

// Stream opens a streaming chat completion.
func (s *LLMService) Stream(ctx context.Context, req *domain.GenerationRequest) (driven.AnswerStream, error) {
	model := s.model
	if req.ModelID != "" {
		model = req.ModelID
	}

	ctx, cancel := context.WithCancel(ctx)
	st := s.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: buildMessages(req),
	})
	if err := st.Err(); err != nil {
		_ = st.Close()
		cancel()
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationBackend, statusError(err))
	}

	src := &chunkSource{st: st}
	return stream.New(providerName, src.next, cancel, st), nil
}

func buildMessages(req *domain.GenerationRequest) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemInstruction))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(m.Text))
		case domain.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Text))
		default:
			msgs = append(msgs, openai.UserMessage(m.Text))
		}
	}
	return msgs
}

// chunkSource turns completion chunks into answer fragments.
type chunkSource struct {
	st       *ssestream.Stream[openai.ChatCompletionChunk]
	finished bool
}

func (c *chunkSource) next() (string, error) {
	if c.finished {
		return "", io.EOF
	}
	if !c.st.Next() {
		if err := c.st.Err(); err != nil {
			return "", statusError(err)
		}
		return "", stream.ErrTruncated
	}

	chunk := c.st.Current()
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	choice := chunk.Choices[0]
	switch choice.FinishReason {
	case "":
	case "stop", "length":
		c.finished = true
	default:
		return "", fmt.Errorf("generation stopped: %s", choice.FinishReason)
	}
	return choice.Delta.Content, nil
}

// statusError converts an SDK API error so callers can classify it.
func statusError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	var header http.Header
	if apiErr.Response != nil {
		header = apiErr.Response.Header
	}
	return httperr.FromStatus(providerName, apiErr.StatusCode, apiErr.Message, header)
}

// ModelName returns the default model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key by retrieving the configured model.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model); err != nil {
		return fmt.Errorf("openai: ping failed: %w", statusError(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
