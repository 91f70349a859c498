package narrative

import (
	"strings"

	"github.com/Yates-Labs/beacon/internal/grounding"
)

// DefaultHistoryTurns is how many prior turns are replayed to the model.
const DefaultHistoryTurns = 5

const (
	contextLabel  = "Context:\n"
	questionLabel = "Question:"
)

// SystemPrompt frames the assistant for every grounded answer.
const SystemPrompt = `You are an expert assistant helping educators make education accessible for students with disabilities.
Answer using only the provided context. Be practical and specific, and suggest concrete accommodations or strategies where they apply.
If the context does not cover the question, say so plainly instead of guessing.
End your answer by citing the sources you used, each unique URL once, in the form "For more information, visit: [title](url)".`

// BuildMessages assembles the chat sent to the model: the system prompt, the
// most recent history turns, and a user prompt carrying the retrieved
// context, the question, citation instructions and the source list.
func BuildMessages(question string, bundle grounding.Bundle, history []Message, maxTurns int) []Message {
	recent := RecentTurns(history, maxTurns)

	messages := make([]Message, 0, len(recent)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt})
	messages = append(messages, recent...)
	messages = append(messages, Message{Role: RoleUser, Content: userPrompt(question, bundle)})
	return messages
}

func userPrompt(question string, bundle grounding.Bundle) string {
	var b strings.Builder

	b.WriteString(contextLabel)
	b.WriteString(bundle.Content)
	b.WriteString("\n\n")

	b.WriteString(questionLabel + " ")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\n")

	b.WriteString("Please provide a helpful answer based on the context above. ")
	b.WriteString("Include 2-3 relevant source links as markdown links, and cite each URL only once.\n\n")

	if info := bundle.SourceInfoText(); info != "" {
		b.WriteString("Available sources:\n")
		b.WriteString(info)
		b.WriteString("\n")
	}

	return b.String()
}

// RecentTurns looks at the last n entries of history and returns the
// user/assistant turns among them. Entries with other roles or blank content
// are dropped after the window is taken, so they still use up a slot.
func RecentTurns(history []Message, n int) []Message {
	if n <= 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}

	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role != RoleUser && m.Role != RoleAssistant {
			continue
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		kept = append(kept, m)
	}
	return kept
}
