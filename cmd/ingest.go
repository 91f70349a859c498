package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/chunker"
	"github.com/Yates-Labs/beacon/internal/ingest/corpus"
	"github.com/Yates-Labs/beacon/internal/orchestrator"
)

var (
	ingestDir     string
	ingestRepo    string
	ingestBranch  string
	ingestSubdir  string
	ingestReload  bool
	ingestWatch   bool
	ingestDryRun  bool
	ingestWorkers int
	ingestJSON    bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk the document corpus and write it to the vector index",
	Long: `Read every supported file (.txt, .md, .html) below the corpus directory,
split it into overlapping chunks, embed the chunks and upsert them into the
configured vector index.

The corpus can also be read from a Git repository with --repo, in which case
only files below --subdir are used.

Examples:
  beacon ingest
  beacon ingest --dir ./data/categories --reload
  beacon ingest --repo https://github.com/org/corpus --branch main
  beacon ingest --repo github:org/corpus          # GitHub API, no clone
  beacon ingest --dry-run
  beacon ingest --watch`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "Corpus directory (defaults to corpus.dir)")
	ingestCmd.Flags().StringVar(&ingestRepo, "repo", "", "Git URL, local repository or github:owner/repo to read the corpus from")
	ingestCmd.Flags().StringVar(&ingestBranch, "branch", "", "Branch to read when --repo is set")
	ingestCmd.Flags().StringVar(&ingestSubdir, "subdir", "", "Corpus directory inside the repository")
	ingestCmd.Flags().BoolVar(&ingestReload, "reload", false, "Clear the index before writing")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "Keep running and reindex files as they change")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "Chunk the corpus and report without indexing")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Documents chunked in parallel (defaults to corpus.workers)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Print the report as JSON")
}

func ingestOptions(cmd *cobra.Command) orchestrator.IngestOptions {
	opts := orchestrator.IngestOptionsFromConfig(cfg)
	opts.DryRun = ingestDryRun
	if ingestDir != "" {
		opts.Dir = ingestDir
		// An explicit directory beats a repository from the config.
		if ingestRepo == "" {
			opts.Repo = ""
		}
	}
	if ingestRepo != "" {
		opts.Repo = ingestRepo
	}
	if ingestBranch != "" {
		opts.Branch = ingestBranch
	}
	if ingestSubdir != "" {
		opts.Subdir = ingestSubdir
	}
	if cmd.Flags().Changed("reload") {
		opts.Reload = ingestReload
	}
	if ingestWorkers > 0 {
		opts.Workers = ingestWorkers
	}
	return opts
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	opts := ingestOptions(cmd)
	if ingestWatch && opts.Repo != "" {
		return fmt.Errorf("--watch needs a local corpus directory, not --repo")
	}
	if ingestWatch && opts.DryRun {
		return fmt.Errorf("--watch cannot be combined with --dry-run")
	}

	out := cmd.OutOrStdout()

	if opts.DryRun {
		ch, err := chunker.New(cfg.Chunker)
		if err != nil {
			return err
		}
		report, _, err := orchestrator.Prepare(ctx, ch, opts)
		if err != nil {
			return err
		}
		return printReport(out, report)
	}

	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	report, err := svc.Ingest(ctx, opts)
	if report != nil {
		if perr := printReport(out, report); perr != nil {
			return perr
		}
	}
	if err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}
	return watchCorpus(ctx, out, svc, opts.Dir)
}

// watchCorpus reindexes changed files until ctx is cancelled.
func watchCorpus(ctx context.Context, out io.Writer, svc *orchestrator.Service, dir string) error {
	w, err := corpus.NewWatcher(dir, corpus.DefaultDebounce)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf("→ Watching %s for changes (Ctrl+C to stop)", dir)))

	err = w.Run(ctx, func(paths []string) {
		n, err := svc.Reindex(ctx, dir, paths)
		if err != nil {
			log.Error().Err(err).Str("component", "ingest").Strs("paths", paths).Msg("reindex failed")
			return
		}
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Reindexed %d chunks from %d changed files", n, len(paths))))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printReport(out io.Writer, r *orchestrator.IngestReport) error {
	if ingestJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	fmt.Fprintln(out)
	title := "Ingestion Report"
	if r.DryRun {
		title = "Ingestion Report (dry run)"
	}
	fmt.Fprintln(out, headerStyle.Render(title))
	fmt.Fprintln(out, summaryStyle.Render(reportSummary(r)))
	fmt.Fprintln(out)

	if len(r.Categories) > 0 {
		printTable(out, categoryColumns, categoryRows(r.Categories))
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf(
		"chunk sizes: avg %.0f, min %d, max %d, %d below minimum",
		r.Stats.AverageSize, r.Stats.MinSize, r.Stats.MaxSize, r.Stats.BelowMin)))

	for _, e := range r.Skipped {
		fmt.Fprintln(out, errorStyle.Render("skipped:"), e.Error())
	}
	if !r.DryRun {
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✓ Indexed %d of %d chunks in %s", r.Indexed, r.Chunks, r.Duration.Round(time.Millisecond))))
	}
	return nil
}

func reportSummary(r *orchestrator.IngestReport) string {
	s := fmt.Sprintf("%d documents, %d chunks from %s", r.Documents, r.Chunks, r.Source)
	if r.Commit != "" {
		s += fmt.Sprintf(" @ %s", r.Commit)
	}
	if r.Reloaded {
		s += " (index cleared)"
	}
	return s
}
