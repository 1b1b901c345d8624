package mcp

import (
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions and keeps the conversation history.
	Chat driving.ChatService

	// Query retrieves passages without generating an answer.
	Query driving.QueryService

	// Ingestion indexes files. Optional; ingest_file fails without it.
	Ingestion driving.IngestionService

	// TopK is the default number of passages for retrieve.
	TopK int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
