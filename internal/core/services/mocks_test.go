package services

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockExtractor returns canned pages per document name.
type mockExtractor struct {
	pages map[string][]domain.PageText
	errs  map[string]error

	inFlight atomic.Int32
	maxSeen  atomic.Int32
	gate     chan struct{}
}

func (m *mockExtractor) Extract(_ context.Context, doc domain.UploadedDocument) ([]domain.PageText, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if m.gate != nil {
		<-m.gate
	}
	if err, ok := m.errs[doc.Name]; ok {
		return nil, err
	}
	return m.pages[doc.Name], nil
}

func (m *mockExtractor) SupportedExtensions() []string {
	return []string{".pdf", ".txt"}
}

// mockEmbedder produces deterministic 4-dimension vectors. Texts containing
// failOn are rejected.
type mockEmbedder struct {
	failOn string
	short  bool
	calls  atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string, task domain.TaskType) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string, _ domain.TaskType) ([][]float32, error) {
	m.calls.Add(1)
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if m.failOn != "" && strings.Contains(text, m.failOn) {
			return nil, errors.New("quota exceeded")
		}
		out = append(out, vectorFor(text))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 4 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func vectorFor(text string) []float32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum32()
	return []float32{
		float32(sum&0xff) + 1,
		float32((sum>>8)&0xff) + 1,
		float32((sum>>16)&0xff) + 1,
		float32((sum>>24)&0xff) + 1,
	}
}

// mockIndex is a driven.VectorIndex returning canned results.
type mockIndex struct {
	result   domain.RetrievalResult
	queryErr error
	lastK    int
}

func (m *mockIndex) Name() string { return "mock" }

func (m *mockIndex) Upsert(_ context.Context, _ ...domain.Chunk) error { return nil }

func (m *mockIndex) Query(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if k <= 0 {
		return domain.RetrievalResult{}, nil
	}
	if k < len(m.result) {
		return m.result[:k], nil
	}
	return m.result, nil
}

func (m *mockIndex) Get(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (m *mockIndex) Count() int                    { return len(m.result) }
func (m *mockIndex) Reset(_ context.Context) error { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockBackend streams canned fragments and optionally fails at the end.
type mockBackend struct {
	fragments []string
	streamErr error
	openErr   error

	mu       sync.Mutex
	requests []*domain.GenerationRequest
	closed   atomic.Bool
}

func (m *mockBackend) Stream(_ context.Context, req *domain.GenerationRequest) (driven.AnswerStream, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.openErr != nil {
		return nil, m.openErr
	}
	return &mockStream{fragments: m.fragments, err: m.streamErr, backend: m}, nil
}

func (m *mockBackend) lastRequest() *domain.GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}

func (m *mockBackend) ModelName() string            { return "mock-llm" }
func (m *mockBackend) Ping(_ context.Context) error { return nil }
func (m *mockBackend) Close() error                 { return nil }

type mockStream struct {
	fragments []string
	err       error
	pos       int
	current   string
	backend   *mockBackend
	closed    bool
}

func (s *mockStream) Next() bool {
	if s.closed || s.pos >= len(s.fragments) {
		return false
	}
	s.current = s.fragments[s.pos]
	s.pos++
	return true
}

func (s *mockStream) Text() string { return s.current }

func (s *mockStream) Err() error {
	if s.closed {
		return nil
	}
	return s.err
}

func (s *mockStream) Close() error {
	s.closed = true
	s.backend.closed.Store(true)
	return nil
}

// failingHistory rejects appends.
type failingHistory struct{ err error }

func (f failingHistory) Append(_ context.Context, _ domain.HistoryEntry) error { return f.err }
func (f failingHistory) List(_ context.Context) ([]domain.HistoryEntry, error) { return nil, f.err }
func (f failingHistory) Clear(_ context.Context) error                         { return f.err }
