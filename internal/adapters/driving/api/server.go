package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/studybuddy/internal/core/domain"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driven"
	"github.com/custodia-labs/studybuddy/internal/core/ports/driving"
	"github.com/custodia-labs/studybuddy/internal/logger"
	"github.com/custodia-labs/studybuddy/internal/metrics"
)

// ErrMissingChatService is returned when Deps has no chat service.
var ErrMissingChatService = errors.New("api: chat service is required")

const shutdownTimeout = 5 * time.Second

// Deps are the services behind the HTTP routes. Only Chat is required;
// routes for missing optional services are not registered or answer 503.
type Deps struct {
	Chat      driving.ChatService
	Query     driving.QueryService
	Ingestion driving.IngestionService
	Vectors   driven.VectorStore

	// Metrics is served on /metrics when set.
	Metrics *metrics.Metrics

	// MCP is mounted on /mcp when set.
	MCP http.Handler

	Log *logger.Structured

	// TopK is the default for /v1/retrieve.
	TopK int

	// AllowOrigins lists CORS origins. Empty allows local dev servers.
	AllowOrigins []string
}

// Server serves the HTTP API.
type Server struct {
	deps   Deps
	engine *gin.Engine
}

// New builds the router.
func New(deps Deps) (*Server, error) {
	if deps.Chat == nil {
		return nil, ErrMissingChatService
	}
	if deps.TopK <= 0 {
		deps.TopK = domain.DefaultTopK
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	s := &Server{deps: deps}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxUploadMemory
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(s.deps.Log))
	r.Use(CORS(s.deps.AllowOrigins))

	r.GET("/health", s.health)
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}
	if s.deps.MCP != nil {
		r.Any("/mcp", gin.WrapH(s.deps.MCP))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/documents", s.uploadDocuments)
		v1.POST("/ask", s.ask)
		v1.POST("/retrieve", s.retrieve)
		v1.GET("/history", s.history)
		v1.DELETE("/history", s.clearHistory)
		v1.GET("/collections", s.collections)
	}

	return r
}

// Handler returns the router for use with httptest or another server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.deps.Log.Info("HTTP server listening", "addr", addr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	s.deps.Log.Info("HTTP server stopped")
	return err
}
