package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrGenerationFailed = errors.New("answer generation failed")
)

// GenerationError reports a failed or malformed model response. The router
// shows users a fixed apology instead of this detail.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%v (model %s): %v", ErrGenerationFailed, e.Model, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Err}
}

// Completion is a generated answer.
type Completion struct {
	// Text is the raw model reply
	Text string `json:"text"`

	// Model is the LLM model used to generate this answer
	Model string `json:"model"`

	// GeneratedAt is when the reply was received
	GeneratedAt time.Time `json:"generated_at"`

	// Duration is how long the provider call took
	Duration time.Duration `json:"duration"`
}

// Generator invokes an LLM on already-assembled messages with the configured
// sampling settings and timeout.
type Generator struct {
	llm    LLM
	config LLMConfig
}

// NewGenerator creates a generator with the given LLM implementation.
func NewGenerator(llm LLM, config LLMConfig) *Generator {
	return &Generator{
		llm:    llm,
		config: config,
	}
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	return g.config.Model
}

// Generate calls the LLM once. It must not perform retrieval or prompt
// construction. Every failure is a *GenerationError.
func (g *Generator) Generate(ctx context.Context, messages []Message) (*Completion, error) {
	if g.llm == nil {
		return nil, g.fail(errors.New("LLM is required"))
	}
	if len(messages) == 0 {
		return nil, g.fail(errors.New("messages are required"))
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.llm.Generate(ctx, messages, Options{
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
	})
	if err != nil {
		return nil, g.fail(err)
	}
	if text == "" {
		return nil, g.fail(errors.New("empty response"))
	}

	return &Completion{
		Text:        text,
		Model:       g.config.Model,
		GeneratedAt: time.Now(),
		Duration:    time.Since(start),
	}, nil
}

func (g *Generator) fail(err error) *GenerationError {
	return &GenerationError{Model: g.config.Model, Err: err}
}
