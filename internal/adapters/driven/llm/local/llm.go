// Package local provides an offline generation backend that streams the
// retrieved context back to the caller word by word.
package local

import (
	"context"
	"io"
	"strings"
	"unicode"

	"github.com/custodia-labs/studybuddy/internal/adapters/driven/llm/stream"
	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.GenerationBackend = (*LLMService)(nil)

// DefaultLLMModel is the only model this backend knows.
const DefaultLLMModel = "echo"

const (
	providerName = "local"
	answerPrefix = "Here is what your notes say:\n\n"
	noAnswer     = "I don't know. Nothing in your documents covers that question."
)

// LLMService answers without a model.
type LLMService struct{}

// NewLLMService creates the echo backend.
func NewLLMService() *LLMService {
	return &LLMService{}
}

// Stream returns the request context as the answer. The stream honours
// ctx cancellation between fragments.
func (s *LLMService) Stream(ctx context.Context, req *domain.GenerationRequest) (driven.AnswerStream, error) {
	ctx, cancel := context.WithCancel(ctx)
	words := splitWords(answer(req))
	next := func() (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(words) == 0 {
			return "", io.EOF
		}
		w := words[0]
		words = words[1:]
		return w, nil
	}
	return stream.New(providerName, next, cancel, nil), nil
}

func answer(req *domain.GenerationRequest) string {
	ctxText := strings.TrimSpace(req.Context)
	if ctxText == "" || ctxText == domain.NoContextSentinel {
		return noAnswer
	}
	return answerPrefix + ctxText
}

// splitWords cuts s into fragments that each end after a run of whitespace,
// so that concatenating them yields s again.
func splitWords(s string) []string {
	var out []string
	start := 0
	inSpace, inWord := false, false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if inSpace && inWord && !space {
			out = append(out, s[start:i])
			start = i
			inWord = false
		}
		inSpace = space
		inWord = inWord || !space
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// ModelName returns "echo".
func (s *LLMService) ModelName() string {
	return DefaultLLMModel
}

// Ping always succeeds.
func (s *LLMService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
