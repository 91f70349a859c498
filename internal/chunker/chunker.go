// Package chunker splits document text into ordered, bounded, overlapping
// chunks. Sections are found at sentence and paragraph boundaries and merged
// greedily; sections that are still too large are cut with a sliding window
// that prefers sentence ends, then word gaps, then a hard cut.
package chunker

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/Yates-Labs/beacon/internal/document"
)

// ErrInvalidConfig is wrapped by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// ConfigurationError reports chunker bounds that can never produce valid chunks.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfig }

// Config bounds chunk sizes. All sizes are in characters.
type Config struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	// MinChunkSize is advisory and only feeds Stats.
	MinChunkSize int `yaml:"min_chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
	// LookAhead is how far past MaxChunkSize the window searches for a sentence end.
	LookAhead int `yaml:"look_ahead"`
}

// DefaultConfig returns the bounds used for the accessibility corpus.
func DefaultConfig() Config {
	return Config{
		MaxChunkSize: 500,
		MinChunkSize: 100,
		OverlapSize:  50,
		LookAhead:    50,
	}
}

// Validate checks max > min >= 0, max > overlap >= 0 and look-ahead >= 0.
func (c Config) Validate() error {
	switch {
	case c.MinChunkSize < 0:
		return &ConfigurationError{Field: "min_chunk_size", Reason: "must not be negative"}
	case c.OverlapSize < 0:
		return &ConfigurationError{Field: "overlap_size", Reason: "must not be negative"}
	case c.LookAhead < 0:
		return &ConfigurationError{Field: "look_ahead", Reason: "must not be negative"}
	case c.MaxChunkSize <= c.MinChunkSize:
		return &ConfigurationError{
			Field:  "max_chunk_size",
			Reason: fmt.Sprintf("(%d) must be greater than min_chunk_size (%d)", c.MaxChunkSize, c.MinChunkSize),
		}
	case c.MaxChunkSize <= c.OverlapSize:
		return &ConfigurationError{
			Field:  "max_chunk_size",
			Reason: fmt.Sprintf("(%d) must be greater than overlap_size (%d)", c.MaxChunkSize, c.OverlapSize),
		}
	}
	return nil
}

// Chunker is immutable after construction and safe for concurrent use.
type Chunker struct {
	cfg Config
}

// New returns a Chunker or a *ConfigurationError.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the bounds this chunker was built with.
func (c *Chunker) Config() Config {
	return c.cfg
}

// Chunk splits text into chunks carrying a copy of meta with position fields
// filled in. Empty input yields no chunks.
func (c *Chunker) Chunk(text string, meta document.Metadata) (chunks []document.Chunk) {
	meta.OriginalSize = utf8.RuneCountInString(text)

	cleaned := normalize(text)
	if cleaned == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("component", "chunker").
				Str("source", meta.Source).
				Interface("panic", r).
				Msg("chunking failed, keeping document as a single chunk")
			chunks = number([]string{cleaned}, meta)
		}
	}()

	var parts []string
	for _, group := range mergeSections(splitSections(cleaned), c.cfg.MaxChunkSize) {
		if utf8.RuneCountInString(group) <= c.cfg.MaxChunkSize {
			parts = append(parts, group)
			continue
		}
		parts = append(parts, c.slide([]rune(group))...)
	}

	chunks = number(parts, meta)
	log.Debug().
		Str("component", "chunker").
		Str("source", meta.Source).
		Int("chunks", len(chunks)).
		Msg("document chunked")
	return chunks
}

func number(parts []string, meta document.Metadata) []document.Chunk {
	chunks := make([]document.Chunk, len(parts))
	for i, p := range parts {
		m := meta
		m.ChunkIndex = i
		m.TotalChunks = len(parts)
		chunks[i] = document.NewChunk(p, m)
	}
	return chunks
}
