// Package tui is the interactive terminal chat front end.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/toolrelay/pkg/conversation"
	"github.com/papercomputeco/toolrelay/pkg/history"
)

// Submitter is the part of conversation.Controller the chat needs.
type Submitter interface {
	Submit(ctx context.Context, prompt string) (*conversation.Result, error)
	History() []history.Turn
}

// Options configures the chat.
type Options struct {
	// GlamourStyle is a glamour standard style ("dark", "light", "notty").
	GlamourStyle string
}

// footer lines: status line plus the input line.
const footerHeight = 2

type submitResultMsg struct {
	result *conversation.Result
	err    error
}

// Model is the bubbletea model of the chat. While a submission is
// outstanding the input is blurred and Enter is ignored, so prompts are sent
// strictly one at a time. Quitting while a reply is pending waits for it; a
// second quit abandons it by cancelling the submission's context.
type Model struct {
	ctx       context.Context
	cancel    context.CancelFunc
	submitter Submitter
	opts      Options
	styles    styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	turns    []history.Turn
	pending  string // prompt awaiting a reply; empty when idle
	quitting bool
	status   string

	width int
	ready bool
}

// New creates the chat model, seeded with the existing history.
func New(ctx context.Context, submitter Submitter, opts Options) Model {
	if opts.GlamourStyle == "" {
		opts.GlamourStyle = "dark"
	}

	input := textinput.New()
	input.Placeholder = "Ask anything, request a PDF or some code…"
	input.Prompt = "› "
	input.Focus()

	ctx, cancel := context.WithCancel(ctx)

	return Model{
		ctx:       ctx,
		cancel:    cancel,
		submitter: submitter,
		opts:      opts,
		styles:    defaultStyles(),
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		turns:     submitter.History(),
		status:    "enter to send · esc to quit",
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Busy reports whether a submission is outstanding.
func (m Model) Busy() bool {
	return m.pending != ""
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()
		case tea.KeyEnter:
			return m.send()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		if m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case submitResultMsg:
		m.finish(msg)
		if m.quitting {
			return m, tea.Quit
		}
		return m, textinput.Blink

	case spinner.TickMsg:
		if !m.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}

	status := m.styles.status.Render(ansi.Truncate(m.status, m.width, "…"))
	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}

// quit exits when idle. With a reply pending it first waits for the reply,
// and a second request abandons it.
func (m Model) quit() (tea.Model, tea.Cmd) {
	if !m.Busy() {
		return m, tea.Quit
	}
	if m.quitting {
		m.cancel()
		return m, tea.Quit
	}

	m.quitting = true
	m.status = "quitting after the reply arrives · press again to abandon it"
	return m, nil
}

// send starts a submission for the current input.
func (m Model) send() (tea.Model, tea.Cmd) {
	if m.Busy() {
		m.status = "still waiting for the previous reply…"
		return m, nil
	}

	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	m.pending = prompt
	m.input.Reset()
	m.input.Blur()
	m.status = "thinking…"
	m.refresh()

	return m, tea.Batch(m.spinner.Tick, m.submit(prompt))
}

func (m Model) submit(prompt string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.submitter.Submit(m.ctx, prompt)
		return submitResultMsg{result: result, err: err}
	}
}

func (m *Model) finish(msg submitResultMsg) {
	m.pending = ""
	m.input.Focus()
	m.turns = m.submitter.History()

	switch {
	case msg.err != nil:
		m.status = "not sent: " + msg.err.Error()
	case msg.result.Failure != conversation.NoFailure:
		m.status = string(msg.result.Failure) + " failed"
	case msg.result.ArtifactErr != nil:
		m.status = "file not saved: " + msg.result.ArtifactErr.Error()
	case msg.result.ArtifactPath != "":
		m.status = "saved " + msg.result.ArtifactPath
	default:
		m.status = "routed to " + msg.result.Tool.String()
	}

	m.refresh()
}

func (m *Model) resize(width, height int) {
	m.width = width
	vpHeight := height - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - len(m.input.Prompt) - 1

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.opts.GlamourStyle),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for _, t := range m.turns {
		b.WriteString(m.renderTurn(t))
		b.WriteString("\n")
	}
	if m.pending != "" {
		b.WriteString(m.renderTurn(history.UserTurn(m.pending)))
		b.WriteString("\n")
		b.WriteString(m.styles.pending.Render(m.spinner.View() + " waiting for reply"))
		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderTurn(t history.Turn) string {
	if t.Role == history.RoleUser {
		return m.styles.user.Render("you › " + t.Content)
	}

	if strings.HasPrefix(t.Content, "❌") {
		return m.styles.errorTurn.Render(t.Content)
	}

	if m.renderer != nil {
		if out, err := m.renderer.Render(t.Content); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return m.styles.assistant.Render(t.Content)
}

// Run starts the chat on the terminal and blocks until the user quits.
func Run(ctx context.Context, submitter Submitter, opts Options) error {
	m := New(ctx, submitter, opts)
	defer m.cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
