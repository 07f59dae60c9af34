// Package tui is the interactive chat front-end: type a question, see the
// route badge, the final answer and the supporting SQL or sources.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hybridqa/internal/domain"
)

// Processor is the orchestrator surface the TUI needs.
type Processor interface {
	Process(ctx context.Context, question string) (*domain.CombinedResponse, error)
}

type answerMsg struct {
	question string
	resp     *domain.CombinedResponse
	err      error
}

// Model is the Bubble Tea model for the chat session.
type Model struct {
	proc       Processor
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	ready      bool
	busy       bool
}

// New creates a chat model bound to the given orchestrator.
func New(proc Processor) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your data or your documents"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{proc: proc, input: ti, viewport: vp, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + qh + 1 // header + status + input frame + spacer
		vh := msg.Height - reserved - th
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = vh
		m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.transcript = append(m.transcript, renderError(msg.question, msg.err))
		} else {
			m.status = "Answered."
			m.transcript = append(m.transcript, renderResponse(msg.question, msg.resp))
		}
		m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = "Thinking..."
				m.input.Reset()
				return m, m.ask(q)
			}
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.proc.Process(context.Background(), question)
		return answerMsg{question: question, resp: resp, err: err}
	}
}

// View renders header, transcript, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Hybrid Q&A")
	transcript := transcriptStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func renderResponse(question string, resp *domain.CombinedResponse) string {
	var b strings.Builder
	b.WriteString(questionStyle.Render("You: "+question) + "\n")
	b.WriteString(routeBadge(resp.Classification.Route))
	fmt.Fprintf(&b, " confidence %.2f — %s\n\n", resp.Classification.Confidence, resp.Classification.Reasoning)
	b.WriteString(resp.FinalAnswer)
	if resp.Structured != nil && resp.Structured.GeneratedSQL != "" {
		b.WriteString("\n\n" + dimStyle.Render("SQL: "+resp.Structured.GeneratedSQL))
	}
	if resp.Document != nil && len(resp.Document.Sources) > 0 {
		refs := make([]string, len(resp.Document.Sources))
		for i, s := range resp.Document.Sources {
			refs[i] = fmt.Sprintf("[%d] %s#%d (%.3f)", i+1, s.Filename, s.ChunkIndex, s.Score)
		}
		b.WriteString("\n\n" + dimStyle.Render("Sources: "+strings.Join(refs, "  ")))
	}
	return b.String()
}

func renderError(question string, err error) string {
	return questionStyle.Render("You: "+question) + "\n" + errorStyle.Render("Error: "+err.Error())
}

func routeBadge(route domain.Route) string {
	style := badgeBothStyle
	switch route {
	case domain.RouteStructured:
		style = badgeStructuredStyle
	case domain.RouteDocument:
		style = badgeDocumentStyle
	}
	return style.Render(" " + string(route) + " ")
}

var (
	transcriptStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle        = lipgloss.NewStyle().Bold(true)
	statusStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle             = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	badgeStructuredStyle = lipgloss.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15")).Bold(true)
	badgeDocumentStyle   = lipgloss.NewStyle().Background(lipgloss.Color("2")).Foreground(lipgloss.Color("15")).Bold(true)
	badgeBothStyle       = lipgloss.NewStyle().Background(lipgloss.Color("5")).Foreground(lipgloss.Color("15")).Bold(true)
)
