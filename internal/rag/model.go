package rag

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/Yates-Labs/beacon/internal/document"
)

// ChunkRecord is one embedded chunk ready for the vector store.
type ChunkRecord struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding"`
	Metadata  document.Metadata `json:"metadata"`
}

// SearchOptions provides filtering options for vector search
type SearchOptions struct {
	Category string `json:"category,omitempty"` // Restrict matches to one corpus category
}

// StoreStats summarizes the contents of a vector store.
type StoreStats struct {
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
	RowCount   int64  `json:"row_count"`
	Dimension  int    `json:"dimension"`
}

// VectorStore defines the interface for vector storage and similarity search.
// Upsert is keyed by ChunkRecord.ID, so re-indexing the same chunk replaces it.
type VectorStore interface {
	// Upsert inserts or replaces records by ID
	Upsert(ctx context.Context, records []ChunkRecord) error

	// Flush ensures all pending data is persisted
	Flush(ctx context.Context) error

	// Search performs top-K similarity search with optional filtering.
	// Matches are ordered by descending score.
	Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error)

	// DeleteBySource removes every record whose metadata source matches
	DeleteBySource(ctx context.Context, source string) error

	// DeleteAll removes every record
	DeleteAll(ctx context.Context) error

	// Stats returns collection statistics
	Stats(ctx context.Context) (StoreStats, error)

	// Close releases resources and closes connections
	Close() error
}

// IndexOptions provides configuration for chunk indexing
type IndexOptions struct {
	// BatchSize determines how many chunks are embedded and upserted at once
	BatchSize int
}

// ChunkID derives a stable record ID from a chunk's source and position.
func ChunkID(source string, chunkIndex int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(chunkIndex))).String()
}

// metadataFields flattens chunk metadata into string pairs for stores with
// string-only metadata.
func metadataFields(m document.Metadata) map[string]string {
	return map[string]string{
		"category":      m.Category,
		"filename":      m.Filename,
		"source":        m.Source,
		"title":         m.Title,
		"source_url":    m.SourceURL,
		"chunk_index":   strconv.Itoa(m.ChunkIndex),
		"total_chunks":  strconv.Itoa(m.TotalChunks),
		"original_size": strconv.Itoa(m.OriginalSize),
	}
}

func metadataFromFields(f map[string]string) document.Metadata {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}
	return document.Metadata{
		Category:     f["category"],
		Filename:     f["filename"],
		Source:       f["source"],
		Title:        f["title"],
		SourceURL:    f["source_url"],
		ChunkIndex:   atoi(f["chunk_index"]),
		TotalChunks:  atoi(f["total_chunks"]),
		OriginalSize: atoi(f["original_size"]),
	}
}
