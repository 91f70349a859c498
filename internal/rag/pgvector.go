package rag

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/Yates-Labs/beacon/internal/document"
)

// PgvectorConfig configures the Postgres + pgvector store.
type PgvectorConfig struct {
	DSN       string `yaml:"dsn"`
	Table     string `yaml:"table"`
	Debug     bool   `yaml:"debug"` // Log every query through bundebug
	Dimension int    `yaml:"-"`
}

// Vector is a pgvector value. It encodes to and decodes from the
// "[1,2,3]" text form.
type Vector []float32

// Value implements driver.Valuer.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String(), nil
}

// Scan implements sql.Scanner.
func (v *Vector) Scan(src any) error {
	var s string
	switch t := src.(type) {
	case nil:
		*v = nil
		return nil
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		return fmt.Errorf("cannot scan %T into Vector", src)
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		*v = Vector{}
		return nil
	}

	parts := strings.Split(s, ",")
	out := make(Vector, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("invalid vector element %q: %w", p, err)
		}
		out[i] = float32(f)
	}
	*v = out
	return nil
}

// chunkRow is the table row for one chunk.
type chunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID          string  `bun:"id,pk"`
	Content     string  `bun:"content,notnull"`
	Embedding   Vector  `bun:"embedding,notnull"`
	Category    string  `bun:"category"`
	Filename    string  `bun:"filename"`
	Source      string  `bun:"source"`
	Title       string  `bun:"title"`
	SourceURL   string  `bun:"source_url"`
	ChunkIndex  int     `bun:"chunk_index"`
	TotalChunks int     `bun:"total_chunks"`
	Score       float32 `bun:"score,scanonly"`
}

// PgvectorStore implements VectorStore on Postgres with the pgvector extension.
type PgvectorStore struct {
	db     *bun.DB
	config PgvectorConfig
}

// NewPgvectorStore connects, enables the vector extension and creates the table.
func NewPgvectorStore(ctx context.Context, config PgvectorConfig) (*PgvectorStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}
	if config.Table == "" {
		config.Table = "chunks"
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(config.DSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if config.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	s := &PgvectorStore{db: db, config: config}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PgvectorStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS ? (
	id text PRIMARY KEY,
	content text NOT NULL,
	embedding vector(%d) NOT NULL,
	category text,
	filename text,
	source text,
	title text,
	source_url text,
	chunk_index integer,
	total_chunks integer
)`, s.config.Dimension), bun.Ident(s.config.Table))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Upsert inserts rows, updating existing ones on ID conflict.
func (s *PgvectorStore) Upsert(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]chunkRow, len(records))
	for i, r := range records {
		if len(r.Embedding) != s.config.Dimension {
			return fmt.Errorf("%w: record %s has %d, expected %d", ErrInvalidDimension, r.ID, len(r.Embedding), s.config.Dimension)
		}
		rows[i] = chunkRow{
			ID:          r.ID,
			Content:     r.Content,
			Embedding:   Vector(r.Embedding),
			Category:    r.Metadata.Category,
			Filename:    r.Metadata.Filename,
			Source:      r.Metadata.Source,
			Title:       r.Metadata.Title,
			SourceURL:   r.Metadata.SourceURL,
			ChunkIndex:  r.Metadata.ChunkIndex,
			TotalChunks: r.Metadata.TotalChunks,
		}
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		ModelTableExpr("? AS c", bun.Ident(s.config.Table)).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("embedding = EXCLUDED.embedding").
		Set("category = EXCLUDED.category").
		Set("filename = EXCLUDED.filename").
		Set("source = EXCLUDED.source").
		Set("title = EXCLUDED.title").
		Set("source_url = EXCLUDED.source_url").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("total_chunks = EXCLUDED.total_chunks").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpsertFailed, err)
	}
	return nil
}

// Flush is a no-op; each upsert commits.
func (s *PgvectorStore) Flush(ctx context.Context) error {
	return nil
}

// Search orders by cosine distance and reports 1 - distance as the score.
func (s *PgvectorStore) Search(ctx context.Context, queryVector []float32, topK int, opts *SearchOptions) ([]document.Match, error) {
	if len(queryVector) != s.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, s.config.Dimension, len(queryVector))
	}
	if topK <= 0 {
		return []document.Match{}, nil
	}

	q := Vector(queryVector)
	var rows []chunkRow
	query := s.db.NewSelect().
		Model(&rows).
		ModelTableExpr("? AS c", bun.Ident(s.config.Table)).
		Column("id", "content", "category", "filename", "source", "title", "source_url", "chunk_index", "total_chunks").
		ColumnExpr("1 - (embedding <=> ?) AS score", q).
		OrderExpr("embedding <=> ?", q).
		Limit(topK)
	if opts != nil && opts.Category != "" {
		query = query.Where("category = ?", opts.Category)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	matches := make([]document.Match, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, document.Match{
			Score:   r.Score,
			Content: r.Content,
			Metadata: document.Metadata{
				Category:    r.Category,
				Filename:    r.Filename,
				Source:      r.Source,
				Title:       r.Title,
				SourceURL:   r.SourceURL,
				ChunkIndex:  r.ChunkIndex,
				TotalChunks: r.TotalChunks,
			},
		})
	}
	return matches, nil
}

// DeleteBySource deletes the rows of one corpus file.
func (s *PgvectorStore) DeleteBySource(ctx context.Context, source string) error {
	_, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.config.Table)).
		Where("source = ?", source).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", source, err)
	}
	return nil
}

// DeleteAll truncates the table.
func (s *PgvectorStore) DeleteAll(ctx context.Context) error {
	_, err := s.db.NewTruncateTable().
		TableExpr("?", bun.Ident(s.config.Table)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to truncate table: %w", err)
	}
	return nil
}

// Stats counts rows.
func (s *PgvectorStore) Stats(ctx context.Context) (StoreStats, error) {
	n, err := s.db.NewSelect().
		TableExpr("? AS c", bun.Ident(s.config.Table)).
		Count(ctx)
	if err != nil {
		return StoreStats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return StoreStats{
		Backend:    "pgvector",
		Collection: s.config.Table,
		RowCount:   int64(n),
		Dimension:  s.config.Dimension,
	}, nil
}

// Close closes the database handle.
func (s *PgvectorStore) Close() error {
	return s.db.Close()
}
