package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Yates-Labs/beacon/internal/document"
)

func testChunks(n int) []document.Chunk {
	chunks := make([]document.Chunk, n)
	for i := range chunks {
		chunks[i] = document.NewChunk(fmt.Sprintf("chunk %d", i), document.Metadata{
			Category:    "learning",
			Filename:    "udl.txt",
			Source:      "data/categories/learning/udl.txt",
			ChunkIndex:  i,
			TotalChunks: n,
		})
	}
	return chunks
}

func TestIndexChunks_Batches(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}

	indexed, err := IndexChunks(context.Background(), testChunks(5), embedder, store, IndexOptions{BatchSize: 2})
	if err != nil {
		t.Fatalf("IndexChunks failed: %v", err)
	}

	if indexed != 5 {
		t.Errorf("expected 5 indexed, got %d", indexed)
	}
	if embedder.calls != 3 {
		t.Errorf("expected 3 embedding calls, got %d", embedder.calls)
	}
	if store.upsertCalls != 3 || store.flushCalls != 3 {
		t.Errorf("expected 3 upserts and flushes, got %d and %d", store.upsertCalls, store.flushCalls)
	}
	if len(store.records) != 5 {
		t.Errorf("expected 5 stored records, got %d", len(store.records))
	}

	id := ChunkID("data/categories/learning/udl.txt", 3)
	rec, ok := store.records[id]
	if !ok {
		t.Fatalf("record %s not stored", id)
	}
	if rec.Content != "chunk 3" || rec.Metadata.ChunkIndex != 3 {
		t.Errorf("unexpected record: %+v", rec)
	}
}

func TestIndexChunks_Idempotent(t *testing.T) {
	store := &mockVectorStore{}
	chunks := testChunks(4)

	for i := 0; i < 2; i++ {
		if _, err := IndexChunks(context.Background(), chunks, &mockEmbedder{}, store, DefaultIndexOptions()); err != nil {
			t.Fatalf("IndexChunks failed: %v", err)
		}
	}

	if len(store.records) != 4 {
		t.Errorf("expected re-indexing to keep 4 records, got %d", len(store.records))
	}
}

func TestIndexChunks_Empty(t *testing.T) {
	indexed, err := IndexChunks(context.Background(), nil, nil, nil, DefaultIndexOptions())
	if err != nil || indexed != 0 {
		t.Errorf("expected no-op for empty input, got %d, %v", indexed, err)
	}
}

func TestIndexChunks_NilDependencies(t *testing.T) {
	if _, err := IndexChunks(context.Background(), testChunks(1), nil, &mockVectorStore{}, DefaultIndexOptions()); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := IndexChunks(context.Background(), testChunks(1), &mockEmbedder{}, nil, DefaultIndexOptions()); err == nil {
		t.Error("expected error for nil vector store")
	}
}

func TestIndexChunks_UpsertError(t *testing.T) {
	upsertErr := errors.New("disk full")
	calls := 0
	store := &mockVectorStore{
		upsertFunc: func(ctx context.Context, records []ChunkRecord) error {
			calls++
			if calls == 2 {
				return upsertErr
			}
			return nil
		},
	}

	indexed, err := IndexChunks(context.Background(), testChunks(5), &mockEmbedder{}, store, IndexOptions{BatchSize: 2})
	if !errors.Is(err, upsertErr) {
		t.Fatalf("expected upsert error, got %v", err)
	}
	if indexed != 2 {
		t.Errorf("expected 2 chunks indexed before failure, got %d", indexed)
	}
}

func TestIndexChunks_EmbeddingCountMismatch(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			return []EmbeddingRecord{{Embedding: []float32{1, 0, 0}}}, nil
		},
	}

	_, err := IndexChunks(context.Background(), testChunks(2), embedder, &mockVectorStore{}, DefaultIndexOptions())
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed, got %v", err)
	}
}

func TestChunkID(t *testing.T) {
	a := ChunkID("learning/udl.txt", 0)
	if a != ChunkID("learning/udl.txt", 0) {
		t.Error("expected stable ID for equal inputs")
	}
	if a == ChunkID("learning/udl.txt", 1) {
		t.Error("expected different IDs across chunk indices")
	}
	if a == ChunkID("hearing/udl.txt", 0) {
		t.Error("expected different IDs across sources")
	}
	if len(a) != 36 {
		t.Errorf("expected UUID string, got %q", a)
	}
}

func TestMetadataFields_RoundTrip(t *testing.T) {
	m := document.Metadata{
		Category:     "vision",
		Filename:     "braille.md",
		Source:       "vision/braille.md",
		Title:        "Braille",
		SourceURL:    "https://example.org/braille",
		ChunkIndex:   2,
		TotalChunks:  7,
		OriginalSize: 1200,
	}
	if got := metadataFromFields(metadataFields(m)); got != m {
		t.Errorf("metadata changed: got %+v, want %+v", got, m)
	}
}
