package rag

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/Yates-Labs/beacon/internal/document"
)

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	Path       string `yaml:"path"` // Directory for persistence; empty keeps data in memory
	Compress   bool   `yaml:"compress"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"-"`
}

// DefaultChromemConfig persists under .beacon/chromem.
func DefaultChromemConfig() ChromemConfig {
	return ChromemConfig{
		Path:       ".beacon/chromem",
		Collection: "accessibility_index",
		Dimension:  768,
	}
}

// ChromemStore implements VectorStore on an embedded chromem-go database.
type ChromemStore struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
}

// NewChromemStore opens (or creates) the configured collection.
func NewChromemStore(config ChromemConfig) (*ChromemStore, error) {
	var (
		db  *chromem.DB
		err error
	)
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(config.Path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		}
	}

	s := &ChromemStore{db: db, config: config}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ChromemStore) open() error {
	// Embeddings are always supplied, so no embedding func is configured.
	c, err := s.db.GetOrCreateCollection(s.config.Collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	s.collection = c
	return nil
}

// Upsert adds documents; chromem replaces documents with an existing ID.
func (s *ChromemStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		if s.config.Dimension > 0 && len(r.Embedding) != s.config.Dimension {
			return fmt.Errorf("%w: record %s has %d, expected %d", ErrInvalidDimension, r.ID, len(r.Embedding), s.config.Dimension)
		}
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Content,
			Metadata:  metadataFields(r.Metadata),
			Embedding: r.Embedding,
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	return nil
}

// Flush is a no-op; persistent chromem writes each document on add.
func (s *ChromemStore) Flush(ctx context.Context) error {
	return nil
}

// Search queries by embedding with an optional category filter.
func (s *ChromemStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
	if s.config.Dimension > 0 && len(queryVector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.config.Dimension, len(queryVector))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// chromem rejects requests for more results than documents.
	n := topK
	if count := s.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return []document.Match{}, nil
	}

	var where map[string]string
	if opts != nil && opts.Category != "" {
		where = map[string]string{"category": opts.Category}
	}

	results, err := s.collection.QueryEmbedding(ctx, queryVector, n, where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	matches := make([]document.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, document.Match{
			Score:    r.Similarity,
			Content:  r.Content,
			Metadata: metadataFromFields(r.Metadata),
		})
	}
	return matches, nil
}

// DeleteBySource removes the documents of one corpus file.
func (s *ChromemStore) DeleteBySource(ctx context.Context, source string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.collection.Delete(ctx, map[string]string{"source": source}, nil); err != nil {
		return fmt.Errorf("failed to delete %s: %w", source, err)
	}
	return nil
}

// DeleteAll drops the collection and creates an empty one in its place.
func (s *ChromemStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.config.Collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return s.open()
}

// Stats reports the document count.
func (s *ChromemStore) Stats(ctx context.Context) (StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreStats{
		Backend:    "chromem",
		Collection: s.config.Collection,
		RowCount:   int64(s.collection.Count()),
		Dimension:  s.config.Dimension,
	}, nil
}

// Close is a no-op for chromem.
func (s *ChromemStore) Close() error {
	return nil
}
