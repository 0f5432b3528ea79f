// Package ui is the interactive terminal front end. The input box is disabled
// while a request is in flight.
package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"codeassist/internal/model"
	"codeassist/internal/pipeline"
	"codeassist/internal/renderer"
)

const inputHeight = 3

// Runner is the part of the pipeline the UI drives.
type Runner interface {
	Start(ctx context.Context, query string) (<-chan pipeline.Event, error)
	Reset() error
	History() []model.Message
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#569cd6"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6a9955"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c586c0"))
)

type eventMsg struct {
	event pipeline.Event
	ok    bool
}

func waitForEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		return eventMsg{event: e, ok: ok}
	}
}

type Model struct {
	ctx    context.Context
	runner Runner
	cfg    model.Config
	log    *zap.Logger
	r      *renderer.Renderer

	input textarea.Model
	vp    viewport.Model
	spin  spinner.Model

	events     <-chan pipeline.Event
	cancel     context.CancelFunc
	busy       bool
	status     string
	transcript []string

	width, height int
}

func New(ctx context.Context, runner Runner, cfg model.Config, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Describe a change. Enter sends, /help lists commands."
	ta.Prompt = "› "
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetWidth(80)
	ta.SetHeight(inputHeight)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:    ctx,
		runner: runner,
		cfg:    cfg,
		log:    log,
		r:      renderer.New(80),
		input:  ta,
		vp:     viewport.New(80, 20),
		spin:   sp,
		status: "Ready",
	}
	m.appendOutput(titleStyle.Render("codeassist") + "  " + statusStyle.Render(cfg.Root))
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Busy() bool { return m.busy }

func (m Model) Transcript() string { return strings.Join(m.transcript, "\n") }

func (m *Model) appendOutput(s string) {
	m.transcript = append(m.transcript, s)
	m.vp.SetContent(strings.Join(m.transcript, "\n"))
	m.vp.GotoBottom()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.vp.Height = max(1, msg.Height-inputHeight-3)
		m.r = renderer.New(msg.Width)
		m.vp.SetContent(strings.Join(m.transcript, "\n"))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case tea.KeyEsc:
			if m.busy && m.cancel != nil {
				m.cancel()
				m.status = "Cancelling..."
			}
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			return m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
		if m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case eventMsg:
		return m.handleEvent(msg)
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if strings.HasPrefix(text, "/") {
		return m.command(text)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	events, err := m.runner.Start(ctx, text)
	if err != nil {
		cancel()
		m.appendOutput(m.r.Error(err))
		return m, nil
	}

	m.events = events
	m.cancel = cancel
	m.busy = true
	m.status = "Working..."
	m.input.Blur()
	m.appendOutput(userStyle.Render("You: ") + text)
	return m, tea.Batch(waitForEvent(events), m.spin.Tick)
}

func (m Model) handleEvent(msg eventMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		if m.cancel != nil {
			m.cancel()
		}
		m.events, m.cancel = nil, nil
		m.busy = false
		m.input.Focus()
		return m, textarea.Blink
	}

	e := msg.event
	switch e.Kind {
	case pipeline.EventProgress:
		m.status = e.Message
		m.appendOutput(statusStyle.Render("  " + e.Message))
	case pipeline.EventDone:
		m.status = "Done"
		m.appendOutput(m.r.Result(e.Result))
	case pipeline.EventError:
		m.status = "Failed"
		m.log.Warn("request failed", zap.Error(e.Err))
		m.appendOutput(m.r.Error(e.Err))
	}
	return m, waitForEvent(m.events)
}

func (m Model) View() string {
	status := m.status
	if m.busy {
		status = m.spin.View() + " " + status + "  (esc cancels)"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.vp.View(),
		statusStyle.Render(status),
		m.input.View(),
	)
}

// Run starts the full screen program and blocks until the user quits.
func Run(ctx context.Context, runner Runner, cfg model.Config, log *zap.Logger) error {
	p := tea.NewProgram(New(ctx, runner, cfg, log), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
