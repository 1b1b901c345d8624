package mcp

import (
	"context"
	"strings"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

// mockReply is a mock implementation of driving.Reply.
type mockReply struct {
	fragments []string
	err       error
	req       *domain.GenerationRequest
	current   string
	sb        strings.Builder
	closed    bool
}

func (m *mockReply) Next() bool {
	if len(m.fragments) == 0 {
		return false
	}
	m.current = m.fragments[0]
	m.fragments = m.fragments[1:]
	m.sb.WriteString(m.current)
	return true
}

func (m *mockReply) Text() string                       { return m.current }
func (m *mockReply) Err() error                         { return m.err }
func (m *mockReply) Answer() string                     { return m.sb.String() }
func (m *mockReply) Request() *domain.GenerationRequest { return m.req }
func (m *mockReply) Outcomes() []domain.IngestOutcome   { return nil }

func (m *mockReply) Close() error {
	m.closed = true
	return nil
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	reply    *mockReply
	err      error
	history  []domain.HistoryEntry
	question string
}

func (m *mockChatService) Turn(_ context.Context, question string, _ []domain.UploadedDocument) (driving.Reply, error) {
	m.question = question
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockChatService) History(_ context.Context) ([]domain.HistoryEntry, error) {
	return m.history, m.err
}

func (m *mockChatService) ClearHistory(_ context.Context) error {
	m.history = nil
	return m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result domain.RetrievalResult
	err    error
	lastK  int
}

func (m *mockQueryService) Answer(_ context.Context, _ string, k int) (*domain.GenerationRequest, error) {
	m.lastK = k
	return &domain.GenerationRequest{Sources: m.result}, m.err
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	return m.result, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	chunks int
	err    error
	docs   []domain.UploadedDocument
}

func (m *mockIngestionService) Ingest(_ context.Context, doc domain.UploadedDocument) (int, error) {
	m.docs = append(m.docs, doc)
	return m.chunks, m.err
}

func (m *mockIngestionService) IngestAll(ctx context.Context, docs []domain.UploadedDocument) []domain.IngestOutcome {
	out := make([]domain.IngestOutcome, len(docs))
	for i, d := range docs {
		n, err := m.Ingest(ctx, d)
		out[i] = domain.IngestOutcome{Source: d.Name, Chunks: n, Err: err}
	}
	return out
}

func sampleResult() domain.RetrievalResult {
	return domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "bio.pdf-0-a", Text: "Mitochondria produce ATP.", Source: "bio.pdf", Page: 1}, Score: 0.91},
		{Chunk: domain.Chunk{ID: "bio.pdf-1-a", Text: "Ribosomes build proteins.", Source: "bio.pdf", Page: 2}, Score: 0.42},
	}
}
