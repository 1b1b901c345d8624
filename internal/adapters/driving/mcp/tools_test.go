package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Chat == nil {
		ports.Chat = &mockChatService{}
	}
	if ports.Query == nil {
		ports.Query = &mockQueryService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns complete answer with sources", func(t *testing.T) {
		reply := &mockReply{
			fragments: []string{"Mitochondria ", "produce ATP."},
			req:       &domain.GenerationRequest{ModelID: "echo", Sources: sampleResult()},
		}
		chat := &mockChatService{reply: reply}
		server := newTestServer(t, &Ports{Chat: chat})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What do mitochondria do?"})

		require.NoError(t, err)
		assert.Equal(t, "What do mitochondria do?", chat.question)
		assert.Equal(t, "Mitochondria produce ATP.", output.Answer)
		assert.Equal(t, "echo", output.Model)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, "bio.pdf", output.Sources[0].Source)
		assert.Equal(t, 1, output.Sources[0].Page)
		assert.True(t, reply.closed)
	})

	t.Run("no sources is an empty list", func(t *testing.T) {
		reply := &mockReply{fragments: []string{"I don't know."}, req: &domain.GenerationRequest{}}
		server := newTestServer(t, &Ports{Chat: &mockChatService{reply: reply}})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.NotNil(t, output.Sources)
		assert.Empty(t, output.Sources)
	})

	t.Run("partial answer is an error", func(t *testing.T) {
		reply := &mockReply{fragments: []string{"half"}, err: domain.ErrIncompleteAnswer}
		server := newTestServer(t, &Ports{Chat: &mockChatService{reply: reply}})

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrIncompleteAnswer)
		assert.Empty(t, output.Answer)
	})

	t.Run("turn failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chat: &mockChatService{err: domain.ErrLLMUnavailable}})

		_, _, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		query := &mockQueryService{result: sampleResult()}
		server := newTestServer(t, &Ports{Query: query, TopK: 6})

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "atp"})

		require.NoError(t, err)
		assert.Equal(t, 6, query.lastK)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, PassageOutput{
			ID: "bio.pdf-0-a", Source: "bio.pdf", Page: 1, Score: 0.91, Text: "Mitochondria produce ATP.",
		}, output.Passages[0])
	})

	t.Run("explicit top_k", func(t *testing.T) {
		query := &mockQueryService{}
		server := newTestServer(t, &Ports{Query: query})

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "x", TopK: 1})

		require.NoError(t, err)
		assert.Equal(t, 1, query.lastK)
		assert.Zero(t, output.Count)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Query: &mockQueryService{err: errors.New("embedding down")}})

		_, _, err := server.handleRetrieve(ctx, nil, RetrieveInput{Question: "x"})

		assert.ErrorContains(t, err, "embedding down")
	})
}

func TestServer_handleIngestFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("Cells divide."), 0o600))

	t.Run("ingests file from disk", func(t *testing.T) {
		ing := &mockIngestionService{chunks: 1}
		server := newTestServer(t, &Ports{Ingestion: ing})

		_, output, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})

		require.NoError(t, err)
		assert.Equal(t, IngestFileOutput{Document: "notes.txt", Chunks: 1}, output)
		require.Len(t, ing.docs, 1)
		assert.Equal(t, []byte("Cells divide."), ing.docs[0].Data)
	})

	t.Run("missing file", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingestion: &mockIngestionService{}})

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: filepath.Join(dir, "nope.pdf")})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty path", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingestion: &mockIngestionService{}})

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("ingestion failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Ingestion: &mockIngestionService{err: domain.ErrDocumentFormat}})

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})

		assert.ErrorIs(t, err, domain.ErrDocumentFormat)
	})

	t.Run("no ingestion service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})

		_, _, err := server.handleIngestFile(ctx, nil, IngestFileInput{Path: path})

		assert.ErrorIs(t, err, ErrIngestionDisabled)
	})
}
