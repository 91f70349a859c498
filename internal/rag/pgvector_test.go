package rag

import (
	"context"
	"os"
	"testing"

	"github.com/Yates-Labs/beacon/internal/document"
)

func TestVector_ValueAndScan(t *testing.T) {
	v := Vector{1, -0.5, 0.25}

	val, err := v.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if val != "[1,-0.5,0.25]" {
		t.Errorf("unexpected encoding: %v", val)
	}

	var got Vector
	if err := got.Scan([]byte("[1, -0.5, 0.25]")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != -0.5 || got[2] != 0.25 {
		t.Errorf("unexpected decoded vector: %v", got)
	}
}

func TestVector_ScanEdgeCases(t *testing.T) {
	var v Vector
	if err := v.Scan(nil); err != nil || v != nil {
		t.Errorf("expected nil vector for NULL, got %v, %v", v, err)
	}
	if err := v.Scan("[]"); err != nil || len(v) != 0 {
		t.Errorf("expected empty vector, got %v, %v", v, err)
	}
	if err := v.Scan("[1,x]"); err == nil {
		t.Error("expected error for malformed element")
	}
	if err := v.Scan(42); err == nil {
		t.Error("expected error for unsupported source type")
	}
}

func TestNewPgvectorStore_InvalidDimension(t *testing.T) {
	_, err := NewPgvectorStore(context.Background(), PgvectorConfig{DSN: "postgres://localhost/none"})
	if err != ErrInvalidDimension {
		t.Errorf("expected ErrInvalidDimension, got %v", err)
	}
}

// Integration test: requires a Postgres with pgvector at DATABASE_URL
func TestPgvectorStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	store, err := NewPgvectorStore(ctx, PgvectorConfig{DSN: dsn, Table: "beacon_chunks_test", Dimension: 3})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer store.Close()
	defer store.DeleteAll(ctx)

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	records := []ChunkRecord{
		{ID: "a", Content: "Screen readers", Embedding: []float32{1, 0, 0}, Metadata: document.Metadata{Category: "vision"}},
		{ID: "b", Content: "Captions", Embedding: []float32{0, 1, 0}, Metadata: document.Metadata{Category: "hearing"}},
	}
	for i := 0; i < 2; i++ {
		if err := store.Upsert(ctx, records); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.RowCount != 2 {
		t.Errorf("expected 2 rows, got %d", stats.RowCount)
	}

	matches, err := store.Search(ctx, []float32{1, 0, 0}, 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "Screen readers" {
		t.Errorf("unexpected matches: %+v", matches)
	}
	if matches[0].Score < 0.99 {
		t.Errorf("expected near-identical score, got %f", matches[0].Score)
	}

	filtered, err := store.Search(ctx, []float32{1, 0, 0}, 2, &SearchOptions{Category: "hearing"})
	if err != nil {
		t.Fatalf("filtered Search failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Metadata.Category != "hearing" {
		t.Errorf("unexpected filtered matches: %+v", filtered)
	}
}
