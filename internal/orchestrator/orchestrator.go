// Package orchestrator wires configuration, ingestion, the index and the
// dialogue router into a single Service used by every front end.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Yates-Labs/beacon/internal/chunker"
	"github.com/Yates-Labs/beacon/internal/config"
	"github.com/Yates-Labs/beacon/internal/document"
	"github.com/Yates-Labs/beacon/internal/ingest/corpus"
	"github.com/Yates-Labs/beacon/internal/ingest/git"
	"github.com/Yates-Labs/beacon/internal/ingest/github"
	"github.com/Yates-Labs/beacon/internal/rag"
)

// IngestOptions override the corpus section of the config for one run.
type IngestOptions struct {
	// Dir is the local corpus root; ignored when Repo is set
	Dir string

	// Repo is a Git URL, a local repository path or "github:owner/repo"
	// to read the corpus from
	Repo   string
	Branch string
	Subdir string

	// GitHubToken authenticates github: sources
	GitHubToken string

	// Reload clears the index before writing
	Reload bool

	// DryRun reads and chunks without touching the index
	DryRun bool

	Workers   int
	BatchSize int
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Source     string                   `json:"source"`
	Commit     string                   `json:"commit,omitempty"`
	Documents  int                      `json:"documents"`
	Chunks     int                      `json:"chunks"`
	Indexed    int                      `json:"indexed"`
	Stats      chunker.Stats            `json:"stats"`
	Categories []CategoryStats          `json:"categories"`
	Skipped    []*corpus.IngestionError `json:"-"`
	Reloaded   bool                     `json:"reloaded"`
	DryRun     bool                     `json:"dry_run"`
	Duration   time.Duration            `json:"duration"`
}

// DefaultIngestOptions derives options from the Service config.
func (s *Service) DefaultIngestOptions() IngestOptions {
	return IngestOptionsFromConfig(s.config)
}

// IngestOptionsFromConfig reads the corpus and batch settings from cfg.
func IngestOptionsFromConfig(cfg *config.Config) IngestOptions {
	c := cfg.Corpus
	return IngestOptions{
		Dir:         c.Dir,
		Repo:        c.Repo,
		Branch:      c.Branch,
		Subdir:      c.Subdir,
		GitHubToken: c.GitHubToken,
		Reload:      c.Reload,
		Workers:     c.Workers,
		BatchSize:   cfg.Embedder.BatchSize,
	}
}

// CategoryStats counts documents and chunks for one corpus category.
type CategoryStats struct {
	Category    string  `json:"category"`
	Documents   int     `json:"documents"`
	Chunks      int     `json:"chunks"`
	AverageSize float64 `json:"average_size"`
}

// Prepare loads and chunks the corpus without touching the index. It backs
// dry runs, which need no embedder or store.
func Prepare(ctx context.Context, ch *chunker.Chunker, opts IngestOptions) (*IngestReport, []document.Chunk, error) {
	start := time.Now()
	report := &IngestReport{DryRun: opts.DryRun}

	docs, skipped, err := LoadCorpus(ctx, opts, report)
	if err != nil {
		return nil, nil, err
	}
	report.Documents = len(docs)
	report.Skipped = skipped
	for _, e := range skipped {
		log.Warn().Err(e.Err).Str("component", "ingest").Str("path", e.Path).Msg("skipping document")
	}

	chunks, err := ChunkDocuments(ctx, ch, docs, opts.Workers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to chunk corpus: %w", err)
	}
	report.Chunks = len(chunks)
	report.Stats = ch.Stats(chunks)
	report.Categories = SummarizeCategories(chunks)
	report.Duration = time.Since(start)
	return report, chunks, nil
}

// SummarizeCategories groups chunks by category, sorted by name.
func SummarizeCategories(chunks []document.Chunk) []CategoryStats {
	type agg struct {
		docs map[string]struct{}
		n    int
		size int
	}
	byCat := make(map[string]*agg)
	for _, c := range chunks {
		a, ok := byCat[c.Metadata.Category]
		if !ok {
			a = &agg{docs: make(map[string]struct{})}
			byCat[c.Metadata.Category] = a
		}
		a.docs[c.Metadata.Source] = struct{}{}
		a.n++
		a.size += c.Size
	}

	out := make([]CategoryStats, 0, len(byCat))
	for name, a := range byCat {
		out = append(out, CategoryStats{
			Category:    name,
			Documents:   len(a.docs),
			Chunks:      a.n,
			AverageSize: float64(a.size) / float64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Ingest loads the corpus, chunks every document and writes the chunks to
// the index. Files that fail to parse are reported, not fatal.
func (s *Service) Ingest(ctx context.Context, opts IngestOptions) (*IngestReport, error) {
	start := time.Now()
	report, chunks, err := Prepare(ctx, s.chunker, opts)
	if err != nil {
		return nil, err
	}
	report.Reloaded = opts.Reload && !opts.DryRun

	if opts.DryRun {
		return report, nil
	}

	if opts.Reload {
		log.Info().Str("component", "ingest").Msg("clearing index before reload")
		if err := s.store.DeleteAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	indexed, err := rag.IndexChunks(ctx, chunks, s.embedder, s.store, rag.IndexOptions{BatchSize: opts.BatchSize})
	report.Indexed = indexed
	report.Duration = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("failed to index chunks: %w", err)
	}

	log.Info().
		Str("component", "ingest").
		Str("source", report.Source).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("skipped", len(report.Skipped)).
		Dur("duration", report.Duration).
		Msg("ingestion complete")
	return report, nil
}

// Reindex re-reads the given files below root and replaces their chunks.
// Existing chunks of each file are deleted first, so a file that shrank,
// emptied or was removed leaves nothing stale behind.
func (s *Service) Reindex(ctx context.Context, root string, paths []string) (int, error) {
	var docs []corpus.Document
	for _, p := range paths {
		source := corpus.SourceOf(root, p)
		if err := s.store.DeleteBySource(ctx, source); err != nil {
			return 0, err
		}

		doc, err := corpus.ReadFile(root, p)
		if err != nil {
			log.Warn().Err(err).Str("component", "ingest").Str("path", p).Msg("not reindexed")
			continue
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	chunks, err := ChunkDocuments(ctx, s.chunker, docs, s.config.Corpus.Workers)
	if err != nil {
		return 0, err
	}
	return rag.IndexChunks(ctx, chunks, s.embedder, s.store, rag.IndexOptions{BatchSize: s.config.Embedder.BatchSize})
}

// LoadCorpus reads documents from a Git snapshot when opts.Repo is set and
// from opts.Dir otherwise. report, when non-nil, receives the source and
// commit.
func LoadCorpus(ctx context.Context, opts IngestOptions, report *IngestReport) ([]corpus.Document, []*corpus.IngestionError, error) {
	if report == nil {
		report = &IngestReport{}
	}

	if opts.Repo == "" {
		report.Source = opts.Dir
		docs, skipped := corpus.Walk(ctx, opts.Dir)
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		return docs, skipped, nil
	}

	snapOpts := git.Options{
		Branch: opts.Branch,
		Subdir: opts.Subdir,
		Keep:   corpus.Supported,
	}
	var (
		snap *git.Snapshot
		err  error
	)
	if github.IsSource(opts.Repo) {
		snap, err = github.Load(ctx, github.NewClient(opts.GitHubToken), opts.Repo, snapOpts)
	} else {
		snap, err = git.Load(ctx, opts.Repo, snapOpts)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load corpus from %s: %w", extractRepoName(opts.Repo), err)
	}
	report.Source = opts.Repo
	report.Commit = snap.ShortCommit

	var (
		docs    []corpus.Document
		skipped []*corpus.IngestionError
	)
	for _, f := range snap.Files {
		if isHiddenPath(f.Path) {
			continue
		}
		doc, err := corpus.Parse(f.Path, f.Content)
		if err != nil {
			skipped = append(skipped, &corpus.IngestionError{Path: f.Path, Err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

// ChunkDocuments chunks docs concurrently, at most workers at a time, and
// returns the chunks in document order. Numbering restarts for each document.
func ChunkDocuments(ctx context.Context, ch *chunker.Chunker, docs []corpus.Document, workers int) ([]document.Chunk, error) {
	if workers <= 0 {
		workers = 1
	}
	perDoc := make([][]document.Chunk, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			perDoc[i] = ch.Chunk(doc.Body, doc.Metadata())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []document.Chunk
	for _, c := range perDoc {
		out = append(out, c...)
	}
	return out, nil
}
