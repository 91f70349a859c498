package rag

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Yates-Labs/beacon/internal/document"
	"github.com/Yates-Labs/beacon/internal/grounding"
)

// mockEmbedder implements Embedder interface for testing
type mockEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([]EmbeddingRecord, error)
	mu        sync.Mutex
	calls     int
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.embedFunc != nil {
		return m.embedFunc(ctx, texts)
	}
	// Default: return simple embeddings
	records := make([]EmbeddingRecord, len(texts))
	for i, text := range texts {
		// Create a simple embedding based on text length
		embedding := make([]float32, 3)
		embedding[0] = float32(len(text))
		embedding[1] = float32(i)
		embedding[2] = 1.0
		records[i] = EmbeddingRecord{
			Text:      text,
			Embedding: embedding,
			Index:     i,
			Model:     "mock",
		}
	}
	return records, nil
}

func (m *mockEmbedder) GetModel() string  { return "mock" }
func (m *mockEmbedder) GetDimension() int { return 3 }

// mockVectorStore implements VectorStore interface for testing
type mockVectorStore struct {
	records       map[string]ChunkRecord
	searchFunc    func(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error)
	upsertFunc    func(ctx context.Context, records []ChunkRecord) error
	flushFunc     func(ctx context.Context) error
	deleteAllFunc func(ctx context.Context) error
	upsertCalls   int
	flushCalls    int
}

func (m *mockVectorStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	m.upsertCalls++
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, records)
	}
	if m.records == nil {
		m.records = make(map[string]ChunkRecord)
	}
	for _, r := range records {
		m.records[r.ID] = r
	}
	return nil
}

func (m *mockVectorStore) Flush(ctx context.Context) error {
	m.flushCalls++
	if m.flushFunc != nil {
		return m.flushFunc(ctx)
	}
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, queryVector, topK, opts)
	}

	matches := []document.Match{}
	for _, r := range m.records {
		if opts != nil && opts.Category != "" && r.Metadata.Category != opts.Category {
			continue
		}
		matches = append(matches, document.Match{Score: 0.9, Content: r.Content, Metadata: r.Metadata})
		if len(matches) >= topK {
			break
		}
	}
	return matches, nil
}

func (m *mockVectorStore) DeleteBySource(ctx context.Context, source string) error {
	kept := m.records[:0]
	for _, r := range m.records {
		if r.Metadata.Source != source {
			kept = append(kept, r)
		}
	}
	m.records = kept
	return nil
}

func (m *mockVectorStore) DeleteAll(ctx context.Context) error {
	if m.deleteAllFunc != nil {
		return m.deleteAllFunc(ctx)
	}
	m.records = nil
	return nil
}

func (m *mockVectorStore) Stats(ctx context.Context) (StoreStats, error) {
	return StoreStats{Backend: "mock", RowCount: int64(len(m.records)), Dimension: 3}, nil
}

func (m *mockVectorStore) Close() error {
	return nil
}

func TestNewRetriever(t *testing.T) {
	tests := []struct {
		name        string
		embedder    Embedder
		vectorStore VectorStore
		wantErr     bool
	}{
		{
			name:        "valid inputs",
			embedder:    &mockEmbedder{},
			vectorStore: &mockVectorStore{},
			wantErr:     false,
		},
		{
			name:        "nil embedder",
			embedder:    nil,
			vectorStore: &mockVectorStore{},
			wantErr:     true,
		},
		{
			name:        "nil vector store",
			embedder:    &mockEmbedder{},
			vectorStore: nil,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever, err := NewRetriever(tt.embedder, tt.vectorStore, DefaultRetrieverConfig())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRetriever() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && retriever == nil {
				t.Error("expected non-nil retriever")
			}
		})
	}
}

func TestRetrieve(t *testing.T) {
	var gotTopK int
	var gotOpts *SearchOptions
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
			gotTopK = topK
			gotOpts = opts
			return []document.Match{
				{Score: 0.9, Content: "Captions help deaf students.", Metadata: document.Metadata{SourceURL: "https://a.org"}},
				{Score: 0.8, Content: "Transcripts help too.", Metadata: document.Metadata{SourceURL: "https://a.org"}},
			}, nil
		},
	}

	config := DefaultRetrieverConfig()
	config.Category = "hearing"
	retriever, err := NewRetriever(&mockEmbedder{}, store, config)
	if err != nil {
		t.Fatalf("failed to create retriever: %v", err)
	}

	result, err := retriever.Retrieve(context.Background(), "How do I support deaf students?")
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	matches, ok := result.(grounding.Matches)
	if !ok {
		t.Fatalf("expected grounding.Matches, got %T", result)
	}
	if len(matches.Items) != 2 {
		t.Errorf("expected 2 matches, got %d", len(matches.Items))
	}
	if gotTopK != 3 {
		t.Errorf("expected default topK 3, got %d", gotTopK)
	}
	if gotOpts == nil || gotOpts.Category != "hearing" {
		t.Errorf("expected category filter hearing, got %+v", gotOpts)
	}
}

func TestRetrieve_NoMatches(t *testing.T) {
	retriever, _ := NewRetriever(&mockEmbedder{}, &mockVectorStore{}, DefaultRetrieverConfig())

	result, err := retriever.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := result.(grounding.NoMatches); !ok {
		t.Errorf("expected grounding.NoMatches, got %T", result)
	}
}

func TestRetrieveWithOptions_InvalidInput(t *testing.T) {
	retriever, _ := NewRetriever(&mockEmbedder{}, &mockVectorStore{}, DefaultRetrieverConfig())

	tests := []struct {
		name  string
		query string
		topK  int
	}{
		{name: "empty query", query: "", topK: 3},
		{name: "blank query", query: "   ", topK: 3},
		{name: "zero topK", query: "q", topK: 0},
		{name: "negative topK", query: "q", topK: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := retriever.RetrieveWithOptions(context.Background(), tt.query, tt.topK, nil)
			var retrievalErr *RetrievalError
			if !errors.As(err, &retrievalErr) {
				t.Errorf("expected *RetrievalError, got %v", err)
			}
		})
	}
}

func TestEmbeddingError(t *testing.T) {
	embedder := &mockEmbedder{
		embedFunc: func(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
			return nil, fmt.Errorf("embedding service unavailable")
		},
	}
	retriever, _ := NewRetriever(embedder, &mockVectorStore{}, DefaultRetrieverConfig())

	_, err := retriever.Retrieve(context.Background(), "test query")
	if err == nil {
		t.Fatal("expected error from embedding failure")
	}
	if !errors.Is(err, ErrRetrievalFailed) {
		t.Errorf("expected ErrRetrievalFailed, got %v", err)
	}
}

func TestSearchError(t *testing.T) {
	searchErr := errors.New("index unavailable")
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
			return nil, searchErr
		},
	}
	retriever, _ := NewRetriever(&mockEmbedder{}, store, DefaultRetrieverConfig())

	_, err := retriever.Retrieve(context.Background(), "test query")
	var retrievalErr *RetrievalError
	if !errors.As(err, &retrievalErr) {
		t.Fatalf("expected *RetrievalError, got %v", err)
	}
	if retrievalErr.Query != "test query" {
		t.Errorf("expected query on error, got %q", retrievalErr.Query)
	}
	if !errors.Is(err, searchErr) {
		t.Error("expected error to wrap the search failure")
	}
}

func TestRetrieve_Timeout(t *testing.T) {
	store := &mockVectorStore{
		searchFunc: func(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	config := DefaultRetrieverConfig()
	config.Timeout = 10 * time.Millisecond
	retriever, _ := NewRetriever(&mockEmbedder{}, store, config)

	_, err := retriever.Retrieve(context.Background(), "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
