// Package mcp provides an MCP (Model Context Protocol) server adapter for the study buddy.
// It lets AI assistants ask grounded questions, retrieve passages and ingest files.
package mcp

import "errors"

var (
	// ErrMissingChatService is returned when the chat service is not provided.
	ErrMissingChatService = errors.New("mcp: chat service is required")

	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")

	// ErrIngestionDisabled is returned by ingest_file when no ingestion service is wired.
	ErrIngestionDisabled = errors.New("mcp: ingestion is not available")
)
