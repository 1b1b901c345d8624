package api

import (
	"context"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

type mockReply struct {
	fragments []string
	pos       int
	err       error
	request   *domain.GenerationRequest
	outcomes  []domain.IngestOutcome
	closed    bool
	// afterNext runs after each fragment is produced.
	afterNext func(pos int)
}

func (r *mockReply) Next() bool {
	if r.pos >= len(r.fragments) {
		return false
	}
	r.pos++
	if r.afterNext != nil {
		r.afterNext(r.pos)
	}
	return true
}

func (r *mockReply) Text() string { return r.fragments[r.pos-1] }
func (r *mockReply) Err() error   { return r.err }

func (r *mockReply) Close() error {
	r.closed = true
	return nil
}

func (r *mockReply) Answer() string {
	out := ""
	for _, f := range r.fragments[:r.pos] {
		out += f
	}
	return out
}

func (r *mockReply) Request() *domain.GenerationRequest { return r.request }
func (r *mockReply) Outcomes() []domain.IngestOutcome   { return r.outcomes }

var _ driving.Reply = (*mockReply)(nil)

type mockChatService struct {
	reply    *mockReply
	err      error
	history  []domain.HistoryEntry
	histErr  error
	cleared  bool
	question string
}

func (m *mockChatService) Turn(_ context.Context, q string, _ []domain.UploadedDocument) (driving.Reply, error) {
	m.question = q
	if m.err != nil {
		return nil, m.err
	}
	return m.reply, nil
}

func (m *mockChatService) History(_ context.Context) ([]domain.HistoryEntry, error) {
	return m.history, m.histErr
}

func (m *mockChatService) ClearHistory(_ context.Context) error {
	m.cleared = true
	return m.histErr
}

type mockQueryService struct {
	result domain.RetrievalResult
	err    error
	lastK  int
}

func (m *mockQueryService) Answer(_ context.Context, q string, k int) (*domain.GenerationRequest, error) {
	m.lastK = k
	return &domain.GenerationRequest{Question: q, Sources: m.result}, m.err
}

func (m *mockQueryService) Retrieve(_ context.Context, _ string, k int) (domain.RetrievalResult, error) {
	m.lastK = k
	return m.result, m.err
}

type mockIngestionService struct {
	docs []domain.UploadedDocument
	fail map[string]error
}

func (m *mockIngestionService) Ingest(_ context.Context, doc domain.UploadedDocument) (int, error) {
	m.docs = append(m.docs, doc)
	if err := m.fail[doc.Name]; err != nil {
		return 0, err
	}
	return 2, nil
}

func (m *mockIngestionService) IngestAll(ctx context.Context, docs []domain.UploadedDocument) []domain.IngestOutcome {
	out := make([]domain.IngestOutcome, len(docs))
	for i, d := range docs {
		n, err := m.Ingest(ctx, d)
		out[i] = domain.IngestOutcome{Source: d.Name, Chunks: n, Err: err}
	}
	return out
}

type mockIndex struct {
	name  string
	count int
}

func (m *mockIndex) Name() string                                      { return m.name }
func (m *mockIndex) Upsert(_ context.Context, _ ...domain.Chunk) error { return nil }
func (m *mockIndex) Query(_ context.Context, _ string, _ int) (domain.RetrievalResult, error) {
	return nil, nil
}
func (m *mockIndex) Get(_ context.Context, _ string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}
func (m *mockIndex) Count() int                    { return m.count }
func (m *mockIndex) Reset(_ context.Context) error { return nil }

type mockVectorStore struct {
	indexes map[string]*mockIndex
}

func (m *mockVectorStore) GetOrCreateCollection(_ context.Context, name string) (driven.VectorIndex, error) {
	return m.indexes[name], nil
}

func (m *mockVectorStore) Collections() []string {
	names := make([]string, 0, len(m.indexes))
	for _, n := range []string{"notes", "study"} {
		if _, ok := m.indexes[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

func (m *mockVectorStore) DeleteCollection(_ context.Context, name string) error {
	delete(m.indexes, name)
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

func sampleResult() domain.RetrievalResult {
	return domain.RetrievalResult{
		{Chunk: domain.Chunk{ID: "c1", Text: "Mitochondria make ATP.", Source: "bio.pdf", Page: 3}, Score: 0.91},
	}
}
