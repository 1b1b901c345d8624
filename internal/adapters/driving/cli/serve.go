package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/studybuddy/internal/adapters/driving/api"
	"github.com/custodia-labs/studybuddy/internal/adapters/driving/mcp"
	"github.com/custodia-labs/studybuddy/internal/logger"
)

var (
	serveAddr    string
	serveMode    string
	serveOrigins []string
	serveNoMCP   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the study buddy over HTTP",
	Long: `Starts an HTTP server for browser and script clients.

Routes:
  GET    /health            liveness check
  POST   /v1/documents      upload files (multipart field "files")
  POST   /v1/ask            stream an answer as server-sent events
  POST   /v1/retrieve       return the most relevant passages
  GET    /v1/history        conversation so far
  DELETE /v1/history        forget the conversation
  GET    /v1/collections    indexed collections and their sizes
  GET    /metrics           Prometheus metrics
  *      /mcp               Model Context Protocol (streamable HTTP)`,
	Example: `  studybuddy serve --addr :8080
  curl -F files=@notes.pdf localhost:8080/v1/documents
  curl -N -d '{"question":"What is osmosis?"}' localhost:8080/v1/ask`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "debug or release (default from settings)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable)")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireChat(); err != nil {
		return err
	}

	addr, mode := serveAddr, serveMode
	if appSettings != nil {
		if addr == "" {
			addr = appSettings.Server.Addr
		}
		if mode == "" {
			mode = appSettings.Server.Mode
		}
	}
	if addr == "" {
		addr = ":8080"
	}

	if strings.EqualFold(mode, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(mode)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	deps := api.Deps{
		Chat:         chatService,
		Query:        queryService,
		Ingestion:    ingestionService,
		Vectors:      vectorStore,
		Metrics:      appMetrics,
		Log:          log,
		AllowOrigins: serveOrigins,
	}
	if appSettings != nil {
		deps.TopK = appSettings.Retrieval.TopK
	}

	if !serveNoMCP {
		mcpServer, err := mcp.NewServer(mcpPorts())
		if err != nil {
			return err
		}
		deps.MCP = mcpServer.Handler()
	}

	server, err := api.New(deps)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Study Buddy listening on %s\n", addr)
	return server.Run(ctx, addr)
}
