package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Yates-Labs/beacon/internal/chunker"
	"github.com/Yates-Labs/beacon/internal/document"
	"github.com/Yates-Labs/beacon/internal/ingest/corpus"
	"github.com/Yates-Labs/beacon/internal/orchestrator"
)

var (
	showChunks bool
	maxSize    int
	overlap    int
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Show how a corpus file is split into chunks",
	Long: `Read one corpus file and print the chunks it produces with the configured
chunker settings. Nothing is embedded or indexed.

Examples:
  beacon chunk data/categories/assistive-technology/screen-readers.txt
  beacon chunk notes.md --show --max-size 800 --overlap 50`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	rootCmd.AddCommand(chunkCmd)
	chunkCmd.Flags().BoolVar(&showChunks, "show", false, "Print every chunk")
	chunkCmd.Flags().IntVar(&maxSize, "max-size", 0, "Override chunker.max_chunk_size")
	chunkCmd.Flags().IntVar(&overlap, "overlap", 0, "Override chunker.overlap_size")
}

func runChunk(cmd *cobra.Command, args []string) error {
	file := args[0]
	info, err := os.Stat(file)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory; use \"beacon ingest --dry-run --dir %s\"", file, file)
	}

	chCfg := cfg.Chunker
	if maxSize > 0 {
		chCfg.MaxChunkSize = maxSize
	}
	if cmd.Flags().Changed("overlap") {
		chCfg.OverlapSize = overlap
	}
	ch, err := chunker.New(chCfg)
	if err != nil {
		return err
	}

	// The parent of the file's directory stands in for the corpus root so
	// the category comes out as the directory name.
	root := filepath.Dir(filepath.Dir(file))
	doc, err := corpus.ReadFile(root, file)
	if err != nil {
		return err
	}
	chunks, err := orchestrator.ChunkDocuments(cmd.Context(), ch, []corpus.Document{doc}, 1)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render(doc.Filename))
	fmt.Fprintln(out, summaryStyle.Render(docSummary(doc)))
	fmt.Fprintln(out)

	stats := ch.Stats(chunks)
	fmt.Fprintln(out, contextStyle.Render(fmt.Sprintf(
		"%d chunks: avg %.0f, min %d, max %d, %d below minimum",
		stats.Total, stats.AverageSize, stats.MinSize, stats.MaxSize, stats.BelowMin)))

	if showChunks {
		for _, c := range chunks {
			printChunk(cmd, c)
		}
	}
	return nil
}

func docSummary(doc corpus.Document) string {
	s := fmt.Sprintf("category %s, %d characters", doc.Category, len([]rune(doc.Body)))
	if doc.Title != "" {
		s = doc.Title + " · " + s
	}
	if doc.SourceURL != "" {
		s += " · " + doc.SourceURL
	}
	return s
}

func printChunk(cmd *cobra.Command, c document.Chunk) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, borderStyle.Render(fmt.Sprintf("── chunk %d/%d · %d chars ──",
		c.Metadata.ChunkIndex+1, c.Metadata.TotalChunks, c.Size)))
	fmt.Fprintln(out, answerStyle.Render(c.Content))
}
