package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/Yates-Labs/beacon/internal/document"
)

// Common errors for vector store operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrConnectionFailed = errors.New("failed to connect to vector store")
	ErrUpsertFailed     = errors.New("failed to upsert records")
	ErrSearchFailed     = errors.New("failed to search vectors")
)

const (
	fieldID          = "id"
	fieldContent     = "content"
	fieldEmbedding   = "embedding"
	fieldCategory    = "category"
	fieldFilename    = "filename"
	fieldSource      = "source"
	fieldTitle       = "title"
	fieldSourceURL   = "source_url"
	fieldChunkIndex  = "chunk_index"
	fieldTotalChunks = "total_chunks"
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string `yaml:"address"`    // Milvus server address (e.g., "localhost:19530")
	Collection     string `yaml:"collection"` // Name of the collection
	Dimension      int    `yaml:"-"`          // Vector dimension, taken from the embedder
	M              int    `yaml:"m"`          // HNSW M parameter (default: 16)
	EfConstruction int    `yaml:"ef_construction"`
	EfSearch       int    `yaml:"ef_search"`
}

// DefaultMilvusConfig returns default configuration from environment variables
func DefaultMilvusConfig() MilvusConfig {
	address := os.Getenv("MILVUS_ADDRESS")
	if address == "" {
		address = "localhost:19530"
	}

	collection := os.Getenv("MILVUS_COLLECTION")
	if collection == "" {
		collection = "accessibility_index"
	}

	return MilvusConfig{
		Address:        address,
		Collection:     collection,
		Dimension:      768,
		M:              16,
		EfConstruction: 256,
		EfSearch:       64,
	}
}

// MilvusStore implements VectorStore interface using Milvus
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore creates a new Milvus vector store instance
// Connects to Milvus and ensures the collection exists with proper schema
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

func varcharField(name string, maxLen int) *entity.Field {
	return &entity.Field{
		Name:       name,
		DataType:   entity.FieldTypeVarChar,
		TypeParams: map[string]string{"max_length": strconv.Itoa(maxLen)},
	}
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.Collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !has {
		id := varcharField(fieldID, 64)
		id.PrimaryKey = true

		schema := &entity.Schema{
			CollectionName: m.config.Collection,
			Description:    "accessibility knowledge chunks",
			Fields: []*entity.Field{
				id,
				varcharField(fieldContent, 65535),
				{
					Name:     fieldEmbedding,
					DataType: entity.FieldTypeFloatVector,
					TypeParams: map[string]string{
						"dim": strconv.Itoa(m.config.Dimension),
					},
				},
				varcharField(fieldCategory, 256),
				varcharField(fieldFilename, 512),
				varcharField(fieldSource, 1024),
				varcharField(fieldTitle, 1024),
				varcharField(fieldSourceURL, 2048),
				{Name: fieldChunkIndex, DataType: entity.FieldTypeInt64},
				{Name: fieldTotalChunks, DataType: entity.FieldTypeInt64},
			},
		}

		if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
		if err != nil {
			return fmt.Errorf("failed to create index config: %w", err)
		}

		if err := m.client.CreateIndex(ctx, m.config.Collection, fieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	// Load collection into memory
	if err := m.client.LoadCollection(ctx, m.config.Collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// Upsert inserts or replaces records keyed by ID
func (m *MilvusStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	n := len(records)
	ids := make([]string, n)
	contents := make([]string, n)
	embeddings := make([][]float32, n)
	categories := make([]string, n)
	filenames := make([]string, n)
	sources := make([]string, n)
	titles := make([]string, n)
	urls := make([]string, n)
	indices := make([]int64, n)
	totals := make([]int64, n)

	for i, r := range records {
		if len(r.Embedding) != m.config.Dimension {
			return fmt.Errorf("%w: record %s has %d, expected %d", ErrInvalidDimension, r.ID, len(r.Embedding), m.config.Dimension)
		}
		ids[i] = r.ID
		contents[i] = r.Content
		embeddings[i] = r.Embedding
		categories[i] = r.Metadata.Category
		filenames[i] = r.Metadata.Filename
		sources[i] = r.Metadata.Source
		titles[i] = r.Metadata.Title
		urls[i] = r.Metadata.SourceURL
		indices[i] = int64(r.Metadata.ChunkIndex)
		totals[i] = int64(r.Metadata.TotalChunks)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnFloatVector(fieldEmbedding, m.config.Dimension, embeddings),
		entity.NewColumnVarChar(fieldCategory, categories),
		entity.NewColumnVarChar(fieldFilename, filenames),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnVarChar(fieldTitle, titles),
		entity.NewColumnVarChar(fieldSourceURL, urls),
		entity.NewColumnInt64(fieldChunkIndex, indices),
		entity.NewColumnInt64(fieldTotalChunks, totals),
	}

	if _, err := m.client.Upsert(ctx, m.config.Collection, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}

	return nil
}

// Flush ensures all pending data is persisted
func (m *MilvusStore) Flush(ctx context.Context) error {
	if err := m.client.Flush(ctx, m.config.Collection, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}
	return nil
}

// Search performs top-K similarity search with optional category filter
func (m *MilvusStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
	if len(queryVector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(queryVector))
	}
	if topK <= 0 {
		return []document.Match{}, nil
	}

	sp, err := entity.NewIndexHNSWSearchParam(m.config.EfSearch)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	outputFields := []string{
		fieldContent, fieldCategory, fieldFilename, fieldSource,
		fieldTitle, fieldSourceURL, fieldChunkIndex, fieldTotalChunks,
	}

	results, err := m.client.Search(
		ctx,
		m.config.Collection,
		nil, // partition names
		categoryExpr(opts),
		outputFields,
		[]entity.Vector{entity.FloatVector(queryVector)},
		fieldEmbedding,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []document.Match{}, nil
	}

	matches := make([]document.Match, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		match := document.Match{Score: results[0].Scores[i]}

		for _, field := range results[0].Fields {
			switch col := field.(type) {
			case *entity.ColumnVarChar:
				v := col.Data()[i]
				switch col.Name() {
				case fieldContent:
					match.Content = v
				case fieldCategory:
					match.Metadata.Category = v
				case fieldFilename:
					match.Metadata.Filename = v
				case fieldSource:
					match.Metadata.Source = v
				case fieldTitle:
					match.Metadata.Title = v
				case fieldSourceURL:
					match.Metadata.SourceURL = v
				}
			case *entity.ColumnInt64:
				v := int(col.Data()[i])
				switch col.Name() {
				case fieldChunkIndex:
					match.Metadata.ChunkIndex = v
				case fieldTotalChunks:
					match.Metadata.TotalChunks = v
				}
			}
		}

		matches = append(matches, match)
	}

	return matches, nil
}

// categoryExpr builds the boolean filter for a category-restricted search.
func categoryExpr(opts *SearchOptions) string {
	if opts == nil || opts.Category == "" {
		return ""
	}
	return equalsExpr(fieldCategory, opts.Category)
}

// equalsExpr builds a varchar equality filter with the value quoted.
func equalsExpr(field, value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return fmt.Sprintf(`%s == "%s"`, field, escaped)
}

// DeleteBySource removes the entities of one corpus file
func (m *MilvusStore) DeleteBySource(ctx context.Context, source string) error {
	if err := m.client.Delete(ctx, m.config.Collection, "", equalsExpr(fieldSource, source)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", source, err)
	}
	return nil
}

// DeleteAll drops and recreates the collection
func (m *MilvusStore) DeleteAll(ctx context.Context) error {
	if err := m.client.DropCollection(ctx, m.config.Collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return m.ensureCollection(ctx)
}

// Stats returns collection statistics
func (m *MilvusStore) Stats(ctx context.Context) (StoreStats, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.Collection)
	if err != nil {
		return StoreStats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	rows, _ := strconv.ParseInt(stats["row_count"], 10, 64)
	return StoreStats{
		Backend:    "milvus",
		Collection: m.config.Collection,
		RowCount:   rows,
		Dimension:  m.config.Dimension,
	}, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
