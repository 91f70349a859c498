package rag

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"golang.org/x/time/rate"
)

// Common errors for embedding operations
var (
	ErrEmptyTexts      = errors.New("no texts provided for embedding")
	ErrMissingAPIKey   = errors.New("OPENAI_API_KEY environment variable not set")
	ErrEmbeddingFailed = errors.New("embedding generation failed")
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// EmbeddingRecord represents a single text embedding with metadata
type EmbeddingRecord struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
	Model     string    `json:"model"`
}

// Embedder defines the interface for generating text embeddings
type Embedder interface {
	// Embed generates embeddings for the provided texts, one record per text in input order
	Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error)

	// GetModel returns the embedding model identifier
	GetModel() string

	// GetDimension returns the embedding vector dimension
	GetDimension() int
}

// EmbedderConfig selects and configures an embedding provider.
type EmbedderConfig struct {
	Provider      string  `yaml:"provider"` // "openai" or "ollama"
	Model         string  `yaml:"model"`
	Dimension     int     `yaml:"dimension"`
	BaseURL       string  `yaml:"base_url"`
	BatchSize     int     `yaml:"batch_size"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	APIKey        string  `yaml:"-"`
}

// DefaultEmbedderConfig returns OpenAI embeddings truncated to 768 dimensions.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider:  "openai",
		Model:     "text-embedding-3-small",
		Dimension: 768,
		BatchSize: 100,
	}
}

// NewEmbedder builds the configured embedder, wrapped in a rate limiter when
// RatePerSecond is set.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	var (
		e   Embedder
		err error
	)
	switch cfg.Provider {
	case "", "openai":
		e, err = NewOpenAIEmbedder(cfg)
	case "ollama":
		e, err = NewLangchainEmbedder(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewThrottledEmbedder(e, cfg.RatePerSecond), nil
}

// OpenAIEmbedder implements the Embedder interface using OpenAI's API
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIEmbedder creates a new OpenAI embedder instance
func NewOpenAIEmbedder(cfg EmbedderConfig) (*OpenAIEmbedder, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
	}, nil
}

// GetModel returns the embedding model identifier
func (e *OpenAIEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *OpenAIEmbedder) GetDimension() int {
	return e.dimension
}

// Embed generates embeddings for the provided texts using OpenAI's API
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:          e.model,
		Dimensions:     openai.Int(int64(e.dimension)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(resp.Data))
	}

	records := make([]EmbeddingRecord, len(resp.Data))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(texts) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", ErrEmbeddingFailed, idx)
		}

		// Convert []float64 to []float32
		embedding := make([]float32, len(data.Embedding))
		for j, val := range data.Embedding {
			embedding[j] = float32(val)
		}

		records[idx] = EmbeddingRecord{
			Text:      texts[idx],
			Embedding: embedding,
			Index:     idx,
			Model:     e.model,
		}
	}

	return records, nil
}

// LangchainEmbedder embeds through a local Ollama model via langchaingo.
type LangchainEmbedder struct {
	embedder  embeddings.Embedder
	model     string
	dimension int
}

// NewLangchainEmbedder connects to Ollama at cfg.BaseURL (default localhost).
func NewLangchainEmbedder(cfg EmbedderConfig) (*LangchainEmbedder, error) {
	url := cfg.BaseURL
	if url == "" {
		url = "http://localhost:11434"
	}
	llm, err := ollama.New(ollama.WithServerURL(url), ollama.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	emb, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return &LangchainEmbedder{embedder: emb, model: cfg.Model, dimension: cfg.Dimension}, nil
}

// GetModel returns the embedding model identifier
func (e *LangchainEmbedder) GetModel() string {
	return e.model
}

// GetDimension returns the embedding vector dimension
func (e *LangchainEmbedder) GetDimension() int {
	return e.dimension
}

// Embed generates embeddings with the local model. Vectors whose length does
// not match the configured dimension are rejected.
func (e *LangchainEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyTexts
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(vectors))
	}

	records := make([]EmbeddingRecord, len(vectors))
	for i, v := range vectors {
		if e.dimension > 0 && len(v) != e.dimension {
			return nil, fmt.Errorf("%w: %w: expected %d, got %d", ErrEmbeddingFailed, ErrInvalidDimension, e.dimension, len(v))
		}
		records[i] = EmbeddingRecord{Text: texts[i], Embedding: v, Index: i, Model: e.model}
	}
	return records, nil
}

// ThrottledEmbedder limits the rate of embedding calls to the wrapped embedder.
type ThrottledEmbedder struct {
	Embedder
	limiter *rate.Limiter
}

// NewThrottledEmbedder wraps next. A non-positive rate returns next unchanged.
func NewThrottledEmbedder(next Embedder, perSecond float64) Embedder {
	if perSecond <= 0 {
		return next
	}
	return &ThrottledEmbedder{Embedder: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Embed waits for the limiter, then delegates.
func (t *ThrottledEmbedder) Embed(ctx context.Context, texts []string) ([]EmbeddingRecord, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrEmbeddingFailed, err)
	}
	return t.Embedder.Embed(ctx, texts)
}
