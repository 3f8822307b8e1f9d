// Package mcpserver exposes document retrieval as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"ragdocs/internal/domain"
)

// DefaultName is the implementation name announced to clients.
const DefaultName = "rag-docs"

// HTTP endpoints served by Handler.
const (
	StreamablePath = "/mcp"
	SSEPath        = "/sse"
)

// ErrMissingRetriever is returned when no retrieval service is provided.
var ErrMissingRetriever = errors.New("mcpserver: retriever is required")

// Retriever is the query side the tools delegate to. *service.Retriever
// implements it.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
	GetDocument(ctx context.Context, path string) (*domain.Document, error)
	ListDocuments(ctx context.Context) (*domain.Listing, error)
}

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	Logger  zerolog.Logger
}

// Server is the MCP server.
type Server struct {
	retriever Retriever
	server    *mcp.Server
	log       zerolog.Logger
}

// NewServer creates a server with the search_docs, get_document and
// list_documents tools registered.
func NewServer(r Retriever, opts Options) (*Server, error) {
	if r == nil {
		return nil, ErrMissingRetriever
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	impl := &mcp.Implementation{
		Name:    opts.Name,
		Version: opts.Version,
	}
	s := &Server{
		retriever: r,
		server:    mcp.NewServer(impl, nil),
		log:       opts.Logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves a single session over stdio.
// It blocks until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves streamable HTTP sessions at /mcp and legacy SSE sessions
// at /sse.
func (s *Server) Handler() http.Handler {
	getServer := func(*http.Request) *mcp.Server { return s.server }

	mux := http.NewServeMux()
	mux.Handle(StreamablePath, mcp.NewStreamableHTTPHandler(getServer, nil))
	mux.Handle(SSEPath, mcp.NewSSEHandler(getServer, nil))
	return mux
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Str("streamable", StreamablePath).Str("sse", SSEPath).Msg("mcp server listening")
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("listen %s: %w", addr, err)
}
