// Package narrative produces grounded answers with an LLM. It defines a
// provider-agnostic chat interface with OpenAI and Ollama implementations, a
// rate-limited wrapper, deterministic mocks for tests, and the prompt
// assembly that turns a context bundle and conversation history into chat
// messages.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrLLMFailed     = errors.New("LLM request failed")
	ErrInvalidConfig = errors.New("invalid LLM configuration")
)

// Chat roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-call sampling settings.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// LLM defines the interface for interacting with chat models.
// Implementations must be stateless and thread-safe.
type LLM interface {
	// Generate returns the assistant reply to messages, or an error if the
	// provider call fails or returns no choices.
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}

// LLMConfig holds common configuration options for LLM providers.
type LLMConfig struct {
	// Provider is "openai" or "ollama"
	Provider string `yaml:"provider"`

	// Model specifies the model identifier (e.g., "gpt-4o-mini", "llama3.1")
	Model string `yaml:"model"`

	// Temperature controls randomness (0.0 = deterministic, 2.0 = very random)
	Temperature float32 `yaml:"temperature"`

	// MaxTokens limits the response length (0 = use provider default)
	MaxTokens int `yaml:"max_tokens"`

	// APIKey is the authentication key for the provider
	APIKey string `yaml:"-"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways, Ollama host)
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single generation call
	Timeout time.Duration `yaml:"timeout"`

	// RatePerSecond throttles calls to the provider (0 = unlimited)
	RatePerSecond float64 `yaml:"rate_per_second"`
}

// DefaultLLMConfig returns the generation settings used for grounded answers.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		MaxTokens:   500,
		Timeout:     60 * time.Second,
	}
}

// NewLLM builds the provider named by config.Provider and throttles it when
// RatePerSecond is set.
func NewLLM(config LLMConfig) (LLM, error) {
	var (
		llm LLM
		err error
	)
	switch config.Provider {
	case "", "openai":
		llm, err = NewOpenAILLM(config)
	case "ollama":
		llm, err = NewOllamaLLM(config)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, config.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewThrottledLLM(llm, config.RatePerSecond), nil
}
