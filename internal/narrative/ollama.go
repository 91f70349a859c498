package narrative

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaLLM runs generation against a local Ollama server through langchaingo.
type OllamaLLM struct {
	llm    *ollama.LLM
	config LLMConfig
}

// NewOllamaLLM connects to config.BaseURL (default http://localhost:11434).
func NewOllamaLLM(config LLMConfig) (*OllamaLLM, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}
	url := config.BaseURL
	if url == "" {
		url = defaultOllamaURL
	}

	llm, err := ollama.New(
		ollama.WithServerURL(url),
		ollama.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &OllamaLLM{llm: llm, config: config}, nil
}

// Generate sends the conversation to Ollama and returns the reply text.
func (o *OllamaLLM) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", ErrInvalidConfig)
	}

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(ollamaRole(m.Role), m.Content))
	}

	var callOpts []llms.CallOption
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(float64(opts.Temperature)))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := o.llm.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}
	return resp.Choices[0].Content, nil
}

func ollamaRole(role string) llms.ChatMessageType {
	switch role {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
