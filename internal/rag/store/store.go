// Package store selects and opens the configured vector store backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/rag"
)

// Supported backends.
const (
	BackendMilvus   = "milvus"
	BackendChromem  = "chromem"
	BackendPgvector = "pgvector"
)

var ErrUnknownBackend = errors.New("unknown index backend")

// Config holds the backend choice and per-backend settings.
type Config struct {
	Backend  string             `yaml:"backend"`
	Milvus   rag.MilvusConfig   `yaml:"milvus"`
	Chromem  rag.ChromemConfig  `yaml:"chromem"`
	Pgvector rag.PgvectorConfig `yaml:"pgvector"`
}

// DefaultConfig uses Milvus, with DATABASE_URL feeding the pgvector DSN.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMilvus,
		Milvus:  rag.DefaultMilvusConfig(),
		Chromem: rag.DefaultChromemConfig(),
		Pgvector: rag.PgvectorConfig{
			DSN:   os.Getenv("DATABASE_URL"),
			Table: "chunks",
		},
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMilvus, BackendChromem, BackendPgvector:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// Open connects to the configured backend. dimension must match the embedder.
func Open(ctx context.Context, cfg Config, dimension int) (rag.VectorStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("component", "store").
		Str("backend", cfg.Backend).
		Int("dimension", dimension).
		Msg("opening vector store")

	switch cfg.Backend {
	case BackendChromem:
		c := cfg.Chromem
		c.Dimension = dimension
		return rag.NewChromemStore(c)
	case BackendPgvector:
		c := cfg.Pgvector
		c.Dimension = dimension
		return rag.NewPgvectorStore(ctx, c)
	default:
		c := cfg.Milvus
		c.Dimension = dimension
		return rag.NewMilvusStore(ctx, c)
	}
}
