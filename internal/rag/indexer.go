package rag

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/document"
)

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize: 100, // Chunks per embedding call and upsert
	}
}

// IndexChunks embeds chunks and upserts them into the vector store in batches.
// This function:
// 1. Derives a deterministic ID per chunk from its source and index
// 2. Generates embeddings in batches
// 3. Upserts records with metadata, flushing after each batch
// Re-indexing the same chunks replaces them rather than duplicating them.
func IndexChunks(
	ctx context.Context,
	chunks []document.Chunk,
	embedder Embedder,
	vectorStore VectorStore,
	opts IndexOptions,
) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if embedder == nil {
		return 0, fmt.Errorf("embedder cannot be nil")
	}

	if vectorStore == nil {
		return 0, fmt.Errorf("vector store cannot be nil")
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	indexed := 0
	for batchStart := 0; batchStart < len(chunks); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}

		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Content
		}

		embeddingRecords, err := embedder.Embed(ctx, texts)
		if err != nil {
			return indexed, fmt.Errorf("failed to generate embeddings for batch starting at %d: %w", batchStart, err)
		}
		if len(embeddingRecords) != len(batch) {
			return indexed, fmt.Errorf("%w: batch starting at %d: expected %d embeddings, got %d",
				ErrEmbeddingFailed, batchStart, len(batch), len(embeddingRecords))
		}

		records := make([]ChunkRecord, len(batch))
		for i, chunk := range batch {
			records[i] = ChunkRecord{
				ID:        ChunkID(chunk.Metadata.Source, chunk.Metadata.ChunkIndex),
				Content:   chunk.Content,
				Embedding: embeddingRecords[i].Embedding,
				Metadata:  chunk.Metadata,
			}
		}

		if err := vectorStore.Upsert(ctx, records); err != nil {
			return indexed, fmt.Errorf("failed to upsert batch starting at %d: %w", batchStart, err)
		}

		// Flush after each batch
		if err := vectorStore.Flush(ctx); err != nil {
			return indexed, fmt.Errorf("failed to flush batch starting at %d: %w", batchStart, err)
		}

		indexed += len(batch)
		log.Debug().
			Str("component", "indexer").
			Int("batch_start", batchStart).
			Int("batch_size", len(batch)).
			Msg("upserted batch")
	}

	return indexed, nil
}
