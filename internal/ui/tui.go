package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/docqa/internal/engine"
)

// RunTUI runs the bubbletea REPL until the user quits or ctx is canceled.
func RunTUI(ctx context.Context, a Answerer, cfg Config) error {
	model := newReplModel(ctx, a, cfg)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}
	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	_, err := tea.NewProgram(model, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// answerMsg carries the outcome of one question back to the model.
type answerMsg struct {
	query   string
	k       int
	results []engine.SearchResult
	err     error
}

// replModel is the bubbletea model for the REPL.
type replModel struct {
	ctx      context.Context
	answerer Answerer
	input    textinput.Model
	viewport viewport.Model
	styles   Styles
	summary  string
	status   string
	content  string
	k        int
	width    int
	busy     bool
}

func newReplModel(ctx context.Context, a Answerer, cfg Config) *replModel {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (:help for commands)"
	ti.CharLimit = 0
	ti.Focus()

	return &replModel{
		ctx:      ctx,
		answerer: a,
		input:    ti,
		viewport: viewport.New(80, 10),
		styles:   DefaultStyles(),
		summary:  cfg.Summary,
		status:   "Ready.",
		k:        cfg.K,
		width:    80,
	}
}

// Init implements tea.Model.
func (m *replModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		_, panelH := m.styles.Panel.GetFrameSize()
		_, inputH := m.styles.Input.GetFrameSize()
		reserved := 2 + 1 + inputH + 1 + panelH // title+summary, status, input box
		m.viewport.Width = max(20, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.setContent(m.content)
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = m.styles.Error.Render("Error: " + msg.err.Error())
			return m, nil
		}
		m.status = fmt.Sprintf("%d results for %q (k=%d)", len(msg.results), msg.query, msg.k)
		m.setContent(renderResults(msg.results, m.styles))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles the current input line.
func (m *replModel) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	cmd := parseLine(m.input.Value())
	m.input.Reset()

	switch cmd.kind {
	case cmdQuit:
		return tea.Quit
	case cmdHelp:
		m.setContent(helpText)
	case cmdSetK:
		m.k = cmd.k
		m.status = fmt.Sprintf("k = %d", m.k)
	case cmdInvalid:
		m.status = m.styles.Warning.Render(cmd.err)
	case cmdQuery:
		m.busy = true
		m.status = "Searching..."
		return m.ask(cmd.query, m.k)
	}
	return nil
}

func (m *replModel) ask(query string, k int) tea.Cmd {
	ctx, a := m.ctx, m.answerer
	return func() tea.Msg {
		results, err := a.AnswerContext(ctx, query, k)
		return answerMsg{query: query, k: k, results: results, err: err}
	}
}

func (m *replModel) setContent(content string) {
	m.content = content
	wrapped := lipgloss.NewStyle().Width(m.viewport.Width).Render(content)
	m.viewport.SetContent(wrapped)
	m.viewport.GotoTop()
}

// View implements tea.Model.
func (m *replModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("docqa"))
	b.WriteString("\n")
	b.WriteString(m.styles.Dim.Render(m.summary))
	b.WriteString("\n")
	b.WriteString(m.styles.Panel.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Input.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(m.status))
	return b.String()
}
