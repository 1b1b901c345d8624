package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the ingested documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Model   string          `json:"model,omitempty"`
	Sources []PassageOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the text to find related passages for"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 4)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved chunk.
type PassageOutput struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// IngestFileInput is the input schema for the ingest_file tool.
type IngestFileInput struct {
	Path string `json:"path" jsonschema:"path of a PDF, text, markdown, HTML or DOCX file on the server's disk"`
}

// IngestFileOutput is the output schema for the ingest_file tool.
type IngestFileOutput struct {
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using only the ingested study documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages of the ingested documents most related to a question",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_file",
		Description: "Add a document from disk to the study session",
	}, s.handleIngestFile)
}

// handleAsk runs a full chat turn and returns the complete answer.
// A partial answer is reported as an error.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	reply, err := s.ports.Chat.Turn(ctx, input.Question, nil)
	if err != nil {
		return nil, AskOutput{}, err
	}
	defer reply.Close()

	for reply.Next() {
	}
	if err := reply.Err(); err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{Answer: reply.Answer()}
	if req := reply.Request(); req != nil {
		output.Model = req.ModelID
		output.Sources = passages(req.Sources)
	}
	if output.Sources == nil {
		output.Sources = []PassageOutput{}
	}
	return nil, output, nil
}

// handleRetrieve returns the top passages for a question.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.TopK
	if k <= 0 {
		k = s.ports.TopK
	}

	result, err := s.ports.Query.Retrieve(ctx, input.Question, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	out := passages(result)
	return nil, RetrieveOutput{Passages: out, Count: len(out)}, nil
}

// handleIngestFile reads a file and ingests it.
func (s *Server) handleIngestFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestFileInput,
) (*mcp.CallToolResult, IngestFileOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, IngestFileOutput{}, ErrIngestionDisabled
	}
	if input.Path == "" {
		return nil, IngestFileOutput{}, fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, IngestFileOutput{}, fmt.Errorf("%w: %s", domain.ErrNotFound, input.Path)
		}
		return nil, IngestFileOutput{}, fmt.Errorf("reading %s: %w", input.Path, err)
	}

	doc := domain.UploadedDocument{Name: filepath.Base(input.Path), Data: data}
	n, err := s.ports.Ingestion.Ingest(ctx, doc)
	if err != nil {
		return nil, IngestFileOutput{}, err
	}
	return nil, IngestFileOutput{Document: doc.Name, Chunks: n}, nil
}

func passages(result domain.RetrievalResult) []PassageOutput {
	out := make([]PassageOutput, len(result))
	for i, sc := range result {
		out[i] = PassageOutput{
			ID:     sc.Chunk.ID,
			Source: sc.Chunk.Source,
			Page:   sc.Chunk.Page,
			Score:  sc.Score,
			Text:   sc.Chunk.Text,
		}
	}
	return out
}
