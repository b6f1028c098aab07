package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
)

// Pipeline is the TUI-facing subset of the document QA pipeline.
type Pipeline interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
	Summary() string
	RecordCount() int
}

type chatEntry struct {
	role    string
	text    string
	sources []domain.SearchResult
}

type answerMsg struct {
	answer domain.Answer
	err    error
}

// Model is the Bubble Tea model for the chat interface.
type Model struct {
	service  Pipeline
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	entries  []chatEntry
	status   string
	waiting  bool
	ready    bool
}

// New creates a new chat model over an already-ingested pipeline.
func New(service Pipeline) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	vp := viewport.New(0, 0)
	return Model{
		service:  service,
		input:    ti,
		viewport: vp,
		spin:     sp,
		status:   fmt.Sprintf("%d records indexed. Type a question.", service.RecordCount()),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, qh := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + summary, status, input frame, spacer
		vh := msg.Height - reserved - ch
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderChat())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.waiting {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.entries = append(m.entries, chatEntry{role: domain.RoleUser, text: question})
			m.input.SetValue("")
			m.waiting = true
			m.status = "Thinking..."
			m.viewport.SetContent(m.renderChat())
			m.viewport.GotoBottom()
			return m, tea.Batch(m.spin.Tick, m.ask(question))
		}
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = statusForError(msg.err)
		} else {
			m.entries = append(m.entries, chatEntry{
				role:    domain.RoleAssistant,
				text:    msg.answer.Text,
				sources: msg.answer.Sources,
			})
			m.status = "Ready."
		}
		m.viewport.SetContent(m.renderChat())
		m.viewport.GotoBottom()
		return m, nil
	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Document QA")
	summary := summaryStyle.Render(m.service.Summary())
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := m.status
	if m.waiting {
		status = m.spin.View() + " " + status
	}
	return header + "\n" + summary + "\n" + chat + "\n" + input + "\n" + statusStyle.Render(status)
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := m.service.Ask(context.Background(), question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m Model) renderChat() string {
	if len(m.entries) == 0 {
		return "No messages yet."
	}
	var sb strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		switch e.role {
		case domain.RoleUser:
			sb.WriteString(userStyle.Render("You: ") + e.text)
		default:
			sb.WriteString(assistantStyle.Render("Assistant: ") + e.text)
			if srcs := renderSources(e.sources); srcs != "" {
				sb.WriteString("\n" + srcs)
			}
		}
	}
	return sb.String()
}

func renderSources(sources []domain.SearchResult) string {
	if len(sources) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sources))
	for _, s := range sources {
		tag := fmt.Sprintf("%s p.%d", s.Record.Origin, s.Record.Page)
		if s.Record.Kind == domain.KindImage {
			tag += " [image]"
		}
		parts = append(parts, tag)
	}
	return sourceStyle.Render("sources: " + strings.Join(parts, ", "))
}

func statusForError(err error) string {
	var genErr *domain.GenerationError
	if errors.As(err, &genErr) && genErr.Kind == domain.GenerationQuota {
		return "API quota exceeded. Please check your billing details."
	}
	return "Error: " + err.Error()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	sourceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)
