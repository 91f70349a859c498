package narrative

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAILLM implements the LLM interface using OpenAI's chat completions API.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM creates an OpenAI-backed LLM implementation.
// Returns an error if the API key or model is missing.
func NewOpenAILLM(config LLMConfig) (*OpenAILLM, error) {
	// Use config API key or fall back to environment variable
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	return &OpenAILLM{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Generate sends the conversation to OpenAI and returns the reply text.
func (o *OpenAILLM) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: messages cannot be empty", ErrInvalidConfig)
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(o.config.Model),
		Messages: toOpenAIMessages(messages),
	}

	// Set optional parameters if configured
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(float64(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: no response generated", ErrLLMFailed)
	}

	return completion.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
