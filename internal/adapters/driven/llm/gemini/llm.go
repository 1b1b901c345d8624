// Package gemini provides a streaming generation adapter for the Google Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/httperr"
	"github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/stream"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.GenerationBackend = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultLLMModel   = "gemini-2.5-flash-lite"
	DefaultLLMTimeout = 120 * time.Second
)

const providerName = "gemini"

// LLMConfig holds configuration for the Gemini generation service.
type LLMConfig struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL including the version segment.
	BaseURL string

	// Model is the default model when a request names none.
	Model string

	// Timeout bounds a whole streamed answer (default: 120s).
	Timeout time.Duration

	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// LLMService streams answers from Gemini.
type LLMService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// NewLLMService creates a new Gemini generation service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
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
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &LLMService{
		client:  client,
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   strings.TrimPrefix(cfg.Model, "models/"),
	}, nil
}

// Stream sends the request to streamGenerateContent and returns the answer
// as it arrives.
func (s *LLMService) Stream(ctx context.Context, req *domain.GenerationRequest) (driven.AnswerStream, error) {
	model := s.model
	if req.ModelID != "" {
		model = strings.TrimPrefix(req.ModelID, "models/")
	}

	jsonBody, err := json.Marshal(buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrGenerationBackend, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", s.baseURL, url.PathEscape(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrGenerationBackend, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: send request: %w", domain.ErrGenerationBackend, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationBackend, httperr.FromResponse(providerName, resp))
	}

	src := &sseSource{events: stream.NewSSEReader(resp.Body)}
	return stream.New(providerName, src.next, cancel, resp.Body), nil
}

func buildRequest(req *domain.GenerationRequest) generateRequest {
	var out generateRequest
	var system []string
	if req.SystemInstruction != "" {
		system = append(system, req.SystemInstruction)
	}
	for _, m := range req.Messages {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Text)
		case domain.RoleAssistant:
			out.Contents = append(out.Contents, content{Role: "model", Parts: []part{{Text: m.Text}}})
		default:
			out.Contents = append(out.Contents, content{Role: "user", Parts: []part{{Text: m.Text}}})
		}
	}
	if len(system) > 0 {
		out.SystemInstruction = &content{Parts: []part{{Text: strings.Join(system, "\n\n")}}}
	}
	return out
}

// sseSource turns Gemini SSE chunks into answer fragments.
type sseSource struct {
	events   *stream.SSEReader
	finished bool
}

func (s *sseSource) next() (string, error) {
	if s.finished {
		return "", io.EOF
	}
	ev, err := s.events.Next()
	if errors.Is(err, io.EOF) {
		return "", stream.ErrTruncated
	}
	if err != nil {
		return "", err
	}

	var chunk generateResponse
	if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
		return "", fmt.Errorf("decode chunk: %w", err)
	}
	if chunk.Error != nil {
		return "", &httperr.StatusError{Provider: providerName, StatusCode: chunk.Error.Code, Message: chunk.Error.Message}
	}
	if chunk.PromptFeedback != nil && chunk.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", chunk.PromptFeedback.BlockReason)
	}
	if len(chunk.Candidates) == 0 {
		return "", nil
	}

	cand := chunk.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	switch cand.FinishReason {
	case "", "FINISH_REASON_UNSPECIFIED":
	case "STOP", "MAX_TOKENS":
		s.finished = true
	default:
		return "", fmt.Errorf("generation stopped: %s", cand.FinishReason)
	}
	return sb.String(), nil
}

// ModelName returns the default model.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key and model by fetching the model metadata.
func (s *LLMService) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models/%s", s.baseURL, url.PathEscape(s.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: failed to create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httperr.FromResponse(providerName, resp)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
