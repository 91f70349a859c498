package rag

import (
	"context"
	"testing"

	"github.com/Yates-Labs/beacon/internal/document"
)

func newMemoryChromem(t *testing.T) *ChromemStore {
	t.Helper()
	store, err := NewChromemStore(ChromemConfig{Collection: "test", Dimension: 3})
	if err != nil {
		t.Fatalf("failed to create chromem store: %v", err)
	}
	return store
}

func chromemRecords() []ChunkRecord {
	return []ChunkRecord{
		{
			ID:        ChunkID("vision/a.txt", 0),
			Content:   "Screen readers",
			Embedding: []float32{1, 0, 0},
			Metadata:  document.Metadata{Category: "vision", Source: "vision/a.txt", SourceURL: "https://a.org", TotalChunks: 1},
		},
		{
			ID:        ChunkID("hearing/b.txt", 0),
			Content:   "Captions",
			Embedding: []float32{0, 1, 0},
			Metadata:  document.Metadata{Category: "hearing", Source: "hearing/b.txt", SourceURL: "https://b.org", TotalChunks: 1},
		},
		{
			ID:        ChunkID("vision/c.txt", 0),
			Content:   "Large print",
			Embedding: []float32{0.8, 0.2, 0},
			Metadata:  document.Metadata{Category: "vision", Source: "vision/c.txt", Title: "Print", TotalChunks: 1},
		},
	}
}

func TestChromemStore_UpsertAndSearch(t *testing.T) {
	ctx := context.Background()
	store := newMemoryChromem(t)
	defer store.Close()

	if err := store.Upsert(ctx, chromemRecords()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Content != "Screen readers" {
		t.Errorf("expected closest match first, got %q", matches[0].Content)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("expected matches ordered by descending score")
	}
	if matches[0].Metadata.SourceURL != "https://a.org" || matches[0].Metadata.Category != "vision" {
		t.Errorf("metadata not preserved: %+v", matches[0].Metadata)
	}
}

func TestChromemStore_CategoryFilter(t *testing.T) {
	ctx := context.Background()
	store := newMemoryChromem(t)

	if err := store.Upsert(ctx, chromemRecords()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 3, &SearchOptions{Category: "hearing"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "Captions" {
		t.Errorf("expected only the hearing chunk, got %+v", matches)
	}
}

func TestChromemStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryChromem(t)

	for i := 0; i < 2; i++ {
		if err := store.Upsert(ctx, chromemRecords()); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.RowCount != 3 {
		t.Errorf("expected 3 documents after re-upsert, got %d", stats.RowCount)
	}
}

func TestChromemStore_EmptyAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	store := newMemoryChromem(t)

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search on empty store failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %d", len(matches))
	}

	if err := store.Upsert(ctx, chromemRecords()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	stats, _ := store.Stats(ctx)
	if stats.RowCount != 0 {
		t.Errorf("expected empty store after DeleteAll, got %d", stats.RowCount)
	}
}

func TestChromemStore_DeleteBySource(t *testing.T) {
	ctx := context.Background()
	store := newMemoryChromem(t)

	if err := store.Upsert(ctx, chromemRecords()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.DeleteBySource(ctx, "vision/a.txt"); err != nil {
		t.Fatalf("DeleteBySource failed: %v", err)
	}

	stats, _ := store.Stats(ctx)
	if stats.RowCount != 2 {
		t.Errorf("expected 2 documents after delete, got %d", stats.RowCount)
	}
	matches, err := store.Search(ctx, []float32{1, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, m := range matches {
		if m.Metadata.Source == "vision/a.txt" {
			t.Errorf("deleted source still returned: %q", m.Content)
		}
	}

	if err := store.DeleteBySource(ctx, "missing.txt"); err != nil {
		t.Errorf("deleting an unknown source should be a no-op, got %v", err)
	}
}

func TestChromemStore_DimensionMismatch(t *testing.T) {
	store := newMemoryChromem(t)

	err := store.Upsert(context.Background(), []ChunkRecord{{ID: "x", Content: "x", Embedding: []float32{1, 0}}})
	if err == nil {
		t.Error("expected dimension error on upsert")
	}

	if _, err := store.Search(context.Background(), []float32{1}, 1, nil); err == nil {
		t.Error("expected dimension error on search")
	}
}

func TestChromemStore_Persistent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewChromemStore(ChromemConfig{Path: dir, Collection: "persist", Dimension: 3})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Upsert(ctx, chromemRecords()[:1]); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	reopened, err := NewChromemStore(ChromemConfig{Path: dir, Collection: "persist", Dimension: 3})
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	stats, _ := reopened.Stats(ctx)
	if stats.RowCount != 1 {
		t.Errorf("expected 1 persisted document, got %d", stats.RowCount)
	}
}
