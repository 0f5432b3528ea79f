// Package renderer turns results, trees and failures into styled terminal text.
package renderer

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Palette carried over from the editor tags.
var (
	added   = lipgloss.NewStyle().Foreground(lipgloss.Color("#afffbc")).Background(lipgloss.Color("#1e3a1e"))
	deleted = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffa1a1")).Background(lipgloss.Color("#4b1818"))
	header  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#569cd6"))
	keyword = lipgloss.NewStyle().Foreground(lipgloss.Color("#c586c0"))
	comment = lipgloss.NewStyle().Foreground(lipgloss.Color("#6a9955"))
)

type Renderer struct {
	width int
	md    *glamour.TermRenderer
}

// New returns a renderer wrapping prose at width columns. Width 0 means 80.
func New(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	r := &Renderer{width: width}
	r.md, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	return r
}

func (r *Renderer) Width() int { return r.width }

// Markdown renders text with glamour, falling back to the text itself.
func (r *Renderer) Markdown(text string) string {
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func title(s string) string {
	return header.Render("=== " + strings.ToUpper(s) + " ===")
}

// highlight styles every match of pattern in text.
func highlight(text, pattern string, style lipgloss.Style) string {
	re := regexp.MustCompile(pattern)
	return re.ReplaceAllStringFunc(text, func(m string) string { return style.Render(m) })
}
