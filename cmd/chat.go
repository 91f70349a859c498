package cmd

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/logging"
	"github.com/Yates-Labs/beacon/internal/tui"
)

var chatLogFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	Long: `Open a full-screen chat about accessibility in education. The conversation
history is sent with each question so follow-ups can refer back to earlier
answers.

Logs would corrupt the screen, so they are discarded unless --log-file is set.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatLogFile, "log-file", "", "Append logs to this file while the chat is open")
}

func runChat(cmd *cobra.Command, _ []string) error {
	var logOut io.Writer = io.Discard
	if chatLogFile != "" {
		f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	if err := logging.Setup(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: logOut}); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	subtitle := fmt.Sprintf("%s · %s index", svc.Model(), cfg.Index.Backend)
	p := tea.NewProgram(tui.New(ctx, svc, subtitle), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
