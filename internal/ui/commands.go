package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"codeassist/internal/builder"
	"codeassist/internal/git"
)

const helpText = `Commands:
  /tree     show the project tree
  /status   list uncommitted changes
  /history  show the conversation so far
  /reset    clear the conversation
  /help     this list
  /quit     exit`

func (m Model) command(line string) (tea.Model, tea.Cmd) {
	name := strings.Fields(line)[0]
	switch name {
	case "/quit", "/exit":
		return m, tea.Quit

	case "/help":
		m.appendOutput(helpText)

	case "/reset":
		if err := m.runner.Reset(); err != nil {
			m.appendOutput(m.r.Error(err))
			break
		}
		m.appendOutput(statusStyle.Render("Conversation cleared."))

	case "/history":
		msgs := m.runner.History()
		if len(msgs) == 0 {
			m.appendOutput("No previous conversation history.")
			break
		}
		var b strings.Builder
		for _, msg := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(msg.Role)), msg.Content)
		}
		m.appendOutput(strings.TrimRight(b.String(), "\n"))

	case "/tree":
		in, err := builder.New(m.cfg.Root, m.cfg.Ignore, builder.WithIgnoreFiles(m.cfg.UseIgnoreFiles), builder.WithLogger(m.log))
		if err != nil {
			m.appendOutput(m.r.Error(err))
			break
		}
		tree, err := in.Tree()
		if err != nil {
			m.appendOutput(m.r.Error(err))
			break
		}
		m.appendOutput(m.r.Tree(tree))

	case "/status":
		files, err := git.StatusFiles(m.ctx, m.cfg.Root)
		if err != nil {
			m.appendOutput(m.r.Error(err))
			break
		}
		m.appendOutput(m.r.GitStatus(files))

	default:
		m.appendOutput(fmt.Sprintf("Unknown command %s. Try /help.", name))
	}
	return m, nil
}
