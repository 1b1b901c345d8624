package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can use your
study documents.

Tools:
  ask           answer a question from the uploaded documents
  retrieve      return the most relevant passages
  ingest_file   read a local file into the session

Resources:
  studybuddy://history   the conversation so far

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead, for example to test with
MCP Inspector.

Examples:
  # Stdio mode (default, for desktop assistants)
  studybuddy mcp serve

  # HTTP mode
  studybuddy mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "studybuddy": {
        "command": "/path/to/studybuddy",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// mcpPorts collects the services the MCP server exposes.
func mcpPorts() *mcp.Ports {
	ports := &mcp.Ports{
		Chat:      chatService,
		Query:     queryService,
		Ingestion: ingestionService,
	}
	if appSettings != nil {
		ports.TopK = appSettings.Retrieval.TopK
	}
	return ports
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if err := requireChat(); err != nil {
		return err
	}

	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
