package cmd

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health   liveness and version
  POST /chat     {"message": "...", "history": [...]} -> grounded answer

Cross-origin requests are allowed from server.allowed_origin (REACT_URL).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to server.port or PORT)")
}

func runServe(_ *cobra.Command, _ []string) error {
	if servePort > 0 {
		cfg.Server.Port = servePort
	}
	if !strings.EqualFold(cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	return server.New(svc, cfg.Server, Version).Run(ctx)
}
