package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Yates-Labs/beacon/internal/grounding"
)

var ErrRetrievalFailed = errors.New("retrieval failed")

// RetrievalError reports an embedding or index failure for a query.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%v for %q: %v", ErrRetrievalFailed, e.Query, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalFailed, e.Err}
}

// RetrieverConfig controls query-time search.
type RetrieverConfig struct {
	TopK     int           `yaml:"top_k"`
	Category string        `yaml:"category"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultRetrieverConfig returns the top three matches with a 15s timeout.
func DefaultRetrieverConfig() RetrieverConfig {
	return RetrieverConfig{
		TopK:    3,
		Timeout: 15 * time.Second,
	}
}

// Retriever provides high-level semantic retrieval over indexed chunks.
type Retriever struct {
	embedder    Embedder
	vectorStore VectorStore
	config      RetrieverConfig
}

// NewRetriever creates a new Retriever instance.
func NewRetriever(embedder Embedder, vectorStore VectorStore, config RetrieverConfig) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder cannot be nil")
	}
	if vectorStore == nil {
		return nil, fmt.Errorf("vector store cannot be nil")
	}
	if config.TopK <= 0 {
		config.TopK = DefaultRetrieverConfig().TopK
	}

	return &Retriever{
		embedder:    embedder,
		vectorStore: vectorStore,
		config:      config,
	}, nil
}

// Retrieve searches with the configured top-K and category.
func (r *Retriever) Retrieve(ctx context.Context, query string) (grounding.Result, error) {
	opts := &SearchOptions{Category: r.config.Category}
	return r.RetrieveWithOptions(ctx, query, r.config.TopK, opts)
}

// RetrieveWithOptions performs semantic search using a free-text query.
// An empty result is NoMatches; every failure is a *RetrievalError.
func (r *Retriever) RetrieveWithOptions(
	ctx context.Context,
	query string,
	topK int,
	opts *SearchOptions,
) (grounding.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &RetrievalError{Query: query, Err: errors.New("query cannot be empty")}
	}
	if topK <= 0 {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("topK must be positive, got %d", topK)}
	}

	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	// Generate embedding for the query
	embeddingRecords, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("failed to embed query: %w", err)}
	}
	if len(embeddingRecords) == 0 {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("no embedding generated for query")}
	}

	// Perform vector similarity search
	matches, err := r.vectorStore.Search(ctx, embeddingRecords[0].Embedding, topK, opts)
	if err != nil {
		return nil, &RetrievalError{Query: query, Err: fmt.Errorf("failed to search for query: %w", err)}
	}

	return grounding.FromMatches(matches), nil
}
