package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/config"
	"github.com/Yates-Labs/beacon/internal/logging"
	"github.com/Yates-Labs/beacon/internal/orchestrator"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	configPath string
	logLevel   string
	prettyLogs bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Beacon - grounded answers about accessibility in education",
	Long: `Beacon answers questions about accessibility in education from a curated
document corpus.

It ingests the corpus into a vector index, retrieves the passages closest to a
question, and asks an LLM to answer from those passages only, citing its
sources. Questions the corpus cannot support are declined.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", false, "Human-readable console logs")
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if cmd.Flags().Changed("pretty") {
		loaded.Log.Pretty = prettyLogs
	}
	if err := logging.Setup(logging.Options{Level: loaded.Log.Level, Pretty: loaded.Log.Pretty}); err != nil {
		return err
	}
	cfg = loaded
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// openService connects to the configured providers and index.
func openService(ctx context.Context) (*orchestrator.Service, error) {
	svc, err := orchestrator.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return svc, nil
}
