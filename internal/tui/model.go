// Package tui is the interactive terminal chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/beacon/internal/dialogue"
	"github.com/Yates-Labs/beacon/internal/narrative"
)

// Chatter is the TUI-facing subset of the service.
type Chatter interface {
	Chat(ctx context.Context, req dialogue.Request) (dialogue.Response, error)
}

type turn struct {
	role    string
	text    string
	sources []string
}

// answerMsg carries a finished chat call back into Update.
type answerMsg struct {
	question string
	resp     dialogue.Response
	err      error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	service  Chatter
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []turn
	history  []narrative.Message
	subtitle string
	status   string
	waiting  bool
	ready    bool
}

// New creates a chat model. subtitle is shown under the header, typically
// the model and index in use.
func New(ctx context.Context, service Chatter, subtitle string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about accessibility in education"
	ti.Focus()
	ti.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return Model{
		ctx:      ctx,
		service:  service,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		subtitle: subtitle,
		status:   "Type a question and press Enter. /clear resets the conversation, /quit exits.",
	}
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window size, spinner ticks and chat answers.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + 1 + ih + bh // header, status, input box
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-1)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.waiting = false
		m.turns = append(m.turns, turn{role: narrative.RoleAssistant, text: msg.resp.Response, sources: sourceLines(msg.resp)})
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.history = append(m.history,
				narrative.Message{Role: narrative.RoleUser, Content: msg.question},
				narrative.Message{Role: narrative.RoleAssistant, Content: msg.resp.Response},
			)
			m.status = fmt.Sprintf("%d turns in conversation", len(m.history)/2)
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	q := strings.TrimSpace(m.input.Value())
	m.input.Reset()

	switch strings.ToLower(q) {
	case "":
		return m, nil
	case "/quit", "quit", "exit":
		return m, tea.Quit
	case "/clear":
		m.turns = nil
		m.history = nil
		m.status = "Conversation cleared."
		m.refresh()
		return m, nil
	}

	m.turns = append(m.turns, turn{role: narrative.RoleUser, text: q})
	m.waiting = true
	m.status = "Thinking..."
	m.refresh()

	history := append([]narrative.Message(nil), m.history...)
	return m, tea.Batch(m.spinner.Tick, m.ask(q, history))
}

func (m Model) ask(question string, history []narrative.Message) tea.Cmd {
	ctx, service := m.ctx, m.service
	return func() tea.Msg {
		resp, err := service.Chat(ctx, dialogue.Request{Message: question, History: history})
		return answerMsg{question: question, resp: resp, err: err}
	}
}

// View renders the header, transcript, input box and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("beacon") + "  " + subtleStyle.Render(m.subtitle)
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return subtleStyle.Render("No messages yet.")
	}
	width := max(10, m.viewport.Width-2)

	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.role == narrative.RoleUser {
			b.WriteString(userStyle.Render("You"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(t.text))
		for _, s := range t.sources {
			b.WriteString("\n")
			b.WriteString(sourceStyle.Render("  • " + s))
		}
	}
	return b.String()
}

// sourceLines pairs titles with URLs for display.
func sourceLines(resp dialogue.Response) []string {
	lines := make([]string, 0, len(resp.SourceURLs))
	for i, u := range resp.SourceURLs {
		title := ""
		if i < len(resp.SourceTitles) {
			title = resp.SourceTitles[i]
		}
		if title == "" {
			lines = append(lines, u)
			continue
		}
		lines = append(lines, title+" - "+u)
	}
	return lines
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subtleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	assistantStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	sourceStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
