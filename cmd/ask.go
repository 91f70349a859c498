package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/dialogue"
)

var (
	topK     int
	category string
	verbose  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print a grounded answer",
	Long: `Ask a question about accessibility in education.

The question is matched against the indexed corpus; the closest passages are
handed to the LLM, which answers from them and cites its sources. Questions
the corpus cannot support are declined. Run "beacon ingest" first.

Required environment variables (OpenAI provider):
  OPENAI_API_KEY     - API key for embeddings and generation

Examples:
  beacon ask "What is a screen reader?"
  beacon ask "How can teachers support students with dyslexia?" --topk 5
  beacon ask "What does the ADA require of schools?" --category legal --verbose`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVar(&topK, "topk", 0, "Number of passages to retrieve (defaults to retrieval.top_k)")
	askCmd.Flags().StringVar(&category, "category", "", "Only retrieve passages from this category")
	askCmd.Flags().BoolVar(&verbose, "verbose", false, "Show retrieved passages and their scores")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if topK > 0 {
		cfg.Retrieval.TopK = topK
	}
	if category != "" {
		cfg.Retrieval.Category = category
	}

	ctx, cancel := signalContext()
	defer cancel()

	out := cmd.OutOrStdout()

	// Print question
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Question:"))
	fmt.Fprintln(out, questionStyle.Render(question))
	fmt.Fprintln(out)

	if verbose {
		fmt.Fprintln(out, contextStyle.Render("→ Connecting to index and model..."))
	}
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	if verbose && !dialogue.IsGeneralChat(question) {
		matches, err := svc.Search(ctx, question, cfg.Retrieval.TopK, cfg.Retrieval.Category)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		fmt.Fprintln(out, headerStyle.Render("Retrieved passages:"))
		for i, m := range matches {
			label := m.Metadata.Title
			if label == "" {
				label = m.Metadata.Source
			}
			fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("  %d. [%.3f] %s (%s, chunk %d/%d)",
				i+1, m.Score, label, m.Metadata.Category, m.Metadata.ChunkIndex+1, m.Metadata.TotalChunks)))
		}
		if len(matches) == 0 {
			fmt.Fprintln(out, contextStyle.Render("  none"))
		}
		fmt.Fprintln(out)
	}

	resp, err := svc.Chat(ctx, dialogue.Request{Message: question})
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	// Print answer
	fmt.Fprintln(out, headerStyle.Render("Answer:"))
	fmt.Fprintln(out)
	fmt.Fprintln(out, answerStyle.Render(strings.TrimSpace(resp.Response)))
	fmt.Fprintln(out)

	if len(resp.SourceURLs) > 0 || len(resp.SourceTitles) > 0 {
		fmt.Fprintln(out, headerStyle.Render("Sources:"))
		for _, line := range sourceList(resp) {
			fmt.Fprintln(out, contextStyle.Render("  • "+line))
		}
		fmt.Fprintln(out)
	}
	return generationError(err)
}

var errGenerationFailed = errors.New("answer generation failed")

// generationError logs the provider error and returns a generic one, so
// provider details stay out of the terminal output.
func generationError(err error) error {
	if err == nil {
		return nil
	}
	log.Error().Err(err).Str("component", "ask").Msg("chat failed")
	return errGenerationFailed
}

// sourceList pairs titles with URLs; either may be missing.
func sourceList(resp dialogue.Response) []string {
	n := max(len(resp.SourceTitles), len(resp.SourceURLs))
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		var title, url string
		if i < len(resp.SourceTitles) {
			title = resp.SourceTitles[i]
		}
		if i < len(resp.SourceURLs) {
			url = resp.SourceURLs[i]
		}
		switch {
		case title != "" && url != "":
			lines = append(lines, title+" - "+url)
		case title != "":
			lines = append(lines, title)
		default:
			lines = append(lines, url)
		}
	}
	return lines
}
