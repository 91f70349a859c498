// Package mcpserver exposes the assistant to MCP clients. It registers an
// "ask" tool that runs the full grounded answer path, a "search" tool that
// returns raw index matches, and an index statistics resource.
package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Yates-Labs/beacon/internal/dialogue"
	"github.com/Yates-Labs/beacon/internal/document"
	"github.com/Yates-Labs/beacon/internal/rag"
)

var ErrMissingService = errors.New("mcp: service is required")

// Service is the part of the orchestrator the MCP tools call.
type Service interface {
	Chat(ctx context.Context, req dialogue.Request) (dialogue.Response, error)
	Search(ctx context.Context, query string, topK int, category string) ([]document.Match, error)
	Stats(ctx context.Context) (rag.StoreStats, error)
}

// Server is the MCP server for beacon.
type Server struct {
	svc    Service
	server *mcp.Server
}

// New creates a server with every tool and resource registered.
func New(svc Service, version string) (*Server, error) {
	if svc == nil {
		return nil, ErrMissingService
	}

	s := &Server{
		svc:    svc,
		server: mcp.NewServer(&mcp.Implementation{Name: "beacon", Version: version}, nil),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
