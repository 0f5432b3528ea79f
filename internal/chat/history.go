// Package chat holds the conversation history that is fed back into each prompt.
package chat

import (
	"strings"

	"codeassist/internal/model"
)

const (
	DefaultWindow = 6
	emptyHistory  = "No previous conversation history."
)

// History is an append-only message log. It is owned by the single active
// request path and is not safe for concurrent use.
type History struct {
	messages []model.Message
	window   int
}

func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	return &History{window: window}
}

// Add validates the role and appends the message.
func (h *History) Add(role model.Role, content string) error {
	msg, err := model.NewMessage(role, content)
	if err != nil {
		return err
	}
	h.messages = append(h.messages, msg)
	return nil
}

func (h *History) Len() int { return len(h.messages) }

// Messages returns a copy of the full log.
func (h *History) Messages() []model.Message {
	out := make([]model.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Recent returns the trailing window in original order.
func (h *History) Recent() []model.Message {
	start := len(h.messages) - h.window
	if start < 0 {
		start = 0
	}
	out := make([]model.Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}

// Formatted renders the trailing window as "ROLE: content" lines.
func (h *History) Formatted() string {
	if len(h.messages) == 0 {
		return emptyHistory
	}
	recent := h.Recent()
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		lines = append(lines, strings.ToUpper(string(m.Role))+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Last returns the newest message, if any.
func (h *History) Last() (model.Message, bool) {
	if len(h.messages) == 0 {
		return model.Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

func (h *History) Reset() {
	h.messages = nil
}
