package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const statsURI = "beacon://index/stats"

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "index-stats",
		Description: "Vector index backend, collection and chunk count",
		MIMEType:    "application/json",
	}, s.handleStatsResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling stats: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
