package narrative

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockLLM is a deterministic LLM implementation for testing.
// It returns predictable responses based on the conversation.
type MockLLM struct {
	// Response is the fixed text returned by Generate.
	// If empty, a default response is generated from the last user message.
	Response string

	// Error, if set, is returned by Generate instead of a response.
	Error error

	mu           sync.Mutex
	lastMessages []Message
	lastOptions  Options
	calls        int
}

// NewMockLLM creates a mock LLM with the given fixed response.
func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

// NewMockLLMWithError creates a mock LLM that always returns an error.
func NewMockLLMWithError(err error) *MockLLM {
	return &MockLLM{Error: err}
}

// Generate returns the configured response or generates a deterministic one.
func (m *MockLLM) Generate(ctx context.Context, messages []Message, opts Options) (string, error) {
	m.mu.Lock()
	m.lastMessages = append([]Message(nil), messages...)
	m.lastOptions = opts
	m.calls++
	m.mu.Unlock()

	if m.Error != nil {
		return "", m.Error
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if m.Response != "" {
		return m.Response, nil
	}

	return generateMockResponse(messages), nil
}

// LastMessages returns the messages passed to the most recent Generate call.
func (m *MockLLM) LastMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessages
}

// LastOptions returns the options passed to the most recent Generate call.
func (m *MockLLM) LastOptions() Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOptions
}

// Calls reports how many times Generate was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// generateMockResponse echoes the question found in the last user message.
func generateMockResponse(messages []Message) string {
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = messages[i].Content
			break
		}
	}

	question := "your question"
	if idx := strings.Index(last, questionLabel); idx >= 0 {
		rest := last[idx+len(questionLabel):]
		if line, _, ok := strings.Cut(rest, "\n"); ok {
			rest = line
		}
		if q := strings.TrimSpace(rest); q != "" {
			question = q
		}
	}

	return fmt.Sprintf("Here is what the sources say about %s.", question)
}
