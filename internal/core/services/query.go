package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// DefaultSystemInstruction constrains the model to the retrieved context.
const DefaultSystemInstruction = "You are a study buddy. Use only the provided context to answer. " +
	"If information is missing, say you don't know."

// DefaultUserTemplate wraps the context block and the question.
const DefaultUserTemplate = "Context:\n%s\n\nQuestion:\n%s"

// QueryService is the retrieval-augmented query engine.
type QueryService struct {
	index   driven.VectorIndex
	prompts driven.PromptStore
	modelID string
	metrics *metrics.Metrics
}

// NewQueryService creates a query engine over index. Requests name modelID.
func NewQueryService(index driven.VectorIndex, modelID string) *QueryService {
	return &QueryService{
		index:   index,
		modelID: modelID,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *QueryService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// SetMetrics enables retrieval metrics.
func (s *QueryService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Retrieve returns up to k chunks for question, most relevant first.
func (s *QueryService) Retrieve(ctx context.Context, question string, k int) (domain.RetrievalResult, error) {
	logger.Section("Retrieval")
	logger.Debug("Question: %q, top_k: %d, collection: %q", question, k, s.index.Name())

	start := time.Now()
	result, err := s.index.Query(ctx, question, k)
	s.metrics.ObserveQuery(time.Since(start), err)
	if err != nil {
		logger.Warn("Retrieval failed: %v", err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	for i, hit := range result {
		logger.Debug("  %d. %s (score %.4f)", i+1, hit.Chunk.ID, hit.Score)
	}
	logger.Info("Retrieved %d chunks", len(result))
	return result, nil
}

// Answer retrieves context for question and builds the generation request.
// An empty retrieval is not an error: the context becomes the no-context sentinel.
func (s *QueryService) Answer(ctx context.Context, question string, k int) (*domain.GenerationRequest, error) {
	result, err := s.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	contextBlock := RenderContext(result)
	user := fmt.Sprintf(s.loadPrompt(driven.PromptUser, DefaultUserTemplate), contextBlock, question)

	return &domain.GenerationRequest{
		SystemInstruction: s.loadPrompt(driven.PromptSystem, DefaultSystemInstruction),
		Messages:          []domain.Message{{Role: domain.RoleUser, Text: user}},
		ModelID:           s.modelID,
		Question:          question,
		Context:           contextBlock,
		Sources:           result,
	}, nil
}

// RenderContext formats retrieved chunks as "[source p.N] text" blocks
// separated by blank lines, in retrieval order.
func RenderContext(result domain.RetrievalResult) string {
	if len(result) == 0 {
		return domain.NoContextSentinel
	}
	blocks := make([]string, len(result))
	for i, hit := range result {
		blocks[i] = fmt.Sprintf("[%s p.%d] %s", hit.Chunk.Source, hit.Chunk.Page, hit.Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// loadPrompt returns the named prompt, falling back to def when the store
// is missing or fails, or when a user template is not usable with Sprintf.
func (s *QueryService) loadPrompt(name, def string) string {
	if s.prompts == nil {
		return def
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return def
	}
	if name == driven.PromptUser && !validUserTemplate(prompt) {
		logger.Warn("Prompt %q must contain exactly two %%s placeholders and no other verbs, using default", name)
		return def
	}
	return prompt
}

// validUserTemplate reports whether t holds exactly two %s verbs. Any other
// verb, including a trailing lone %, is rejected; %% is allowed.
func validUserTemplate(t string) bool {
	verbs := 0
	for i := 0; i < len(t); i++ {
		if t[i] != '%' {
			continue
		}
		if i+1 == len(t) {
			return false
		}
		i++
		switch t[i] {
		case '%':
		case 's':
			verbs++
		default:
			return false
		}
	}
	return verbs == 2
}
