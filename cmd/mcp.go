package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/mcpserver"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose ask and search as Model Context Protocol tools",
	Long: `Run an MCP server so assistants can query the corpus.

Tools:
  ask      grounded answer with sources
  search   raw passage search with scores

Resources:
  beacon://index/stats

The server speaks stdio by default; --http serves the streamable HTTP
transport instead.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "Serve streamable HTTP on this address (e.g. :8090) instead of stdio")
}

func runMCP(_ *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, err := mcpserver.New(svc, Version)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		log.Info().Str("component", "mcp").Str("addr", mcpHTTPAddr).Msg("serving streamable HTTP")
		return srv.RunHTTP(ctx, mcpHTTPAddr)
	}
	return srv.Run(ctx)
}
