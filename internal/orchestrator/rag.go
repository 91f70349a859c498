package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/chunker"
	"github.com/Yates-Labs/beacon/internal/config"
	"github.com/Yates-Labs/beacon/internal/dialogue"
	"github.com/Yates-Labs/beacon/internal/document"
	"github.com/Yates-Labs/beacon/internal/grounding"
	"github.com/Yates-Labs/beacon/internal/narrative"
	"github.com/Yates-Labs/beacon/internal/rag"
	"github.com/Yates-Labs/beacon/internal/rag/store"
)

// Deps are the external collaborators of a Service. Tests supply mocks.
type Deps struct {
	Embedder rag.Embedder
	Store    rag.VectorStore
	LLM      narrative.LLM
}

// Service is built once per process and shared by every front end (HTTP,
// MCP, terminal). It holds no per-request state.
type Service struct {
	config    *config.Config
	chunker   *chunker.Chunker
	embedder  rag.Embedder
	store     rag.VectorStore
	retriever *rag.Retriever
	gate      *grounding.Gate
	generator *narrative.Generator
	router    *dialogue.Router
}

// New connects to the configured providers and index.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	embedder, err := rag.NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	llm, err := narrative.NewLLM(cfg.Generation)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	vectorStore, err := store.Open(ctx, cfg.Index, cfg.Embedder.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	svc, err := NewWithDeps(cfg, Deps{Embedder: embedder, Store: vectorStore, LLM: llm})
	if err != nil {
		vectorStore.Close()
		return nil, err
	}
	return svc, nil
}

// NewWithDeps builds a Service around existing collaborators.
func NewWithDeps(cfg *config.Config, deps Deps) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if deps.Embedder == nil || deps.Store == nil || deps.LLM == nil {
		return nil, errors.New("embedder, store and LLM are required")
	}

	ch, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	gate, err := grounding.NewGate(cfg.Retrieval.GateConfig)
	if err != nil {
		return nil, err
	}
	retriever, err := rag.NewRetriever(deps.Embedder, deps.Store, cfg.Retrieval.RetrieverConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create retriever: %w", err)
	}
	generator := narrative.NewGenerator(deps.LLM, cfg.Generation)

	return &Service{
		config:    cfg,
		chunker:   ch,
		embedder:  deps.Embedder,
		store:     deps.Store,
		retriever: retriever,
		gate:      gate,
		generator: generator,
		router:    dialogue.NewRouter(retriever, gate, generator),
	}, nil
}

// Close releases resources held by the index client.
func (s *Service) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Config returns the configuration the Service was built with.
func (s *Service) Config() *config.Config {
	return s.config
}

// Chat answers one message. Generation failures are turned into the apology
// response and also returned so callers can log them; the response is
// always safe to show.
func (s *Service) Chat(ctx context.Context, req dialogue.Request) (dialogue.Response, error) {
	outcome, err := s.router.Route(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("component", "service").Msg("chat failed")
		return dialogue.ErrorResponse(), err
	}
	return dialogue.ToResponse(outcome), nil
}

// Search returns raw matches for query without gating or generation. A
// non-positive topK uses the configured default; an empty category
// searches everything.
func (s *Service) Search(ctx context.Context, query string, topK int, category string) ([]document.Match, error) {
	if topK <= 0 {
		topK = s.config.Retrieval.TopK
	}
	result, err := s.retriever.RetrieveWithOptions(ctx, query, topK, &rag.SearchOptions{Category: category})
	if err != nil {
		return nil, err
	}
	if m, ok := result.(grounding.Matches); ok {
		return m.Items, nil
	}
	return nil, nil
}

// Stats reports the index backend and row count.
func (s *Service) Stats(ctx context.Context) (rag.StoreStats, error) {
	return s.store.Stats(ctx)
}

// Model is the generation model name.
func (s *Service) Model() string {
	return s.generator.Model()
}
