package renderer

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"codeassist/internal/pipeline"
)

const maxRawShown = 2000

// Error renders a failure, naming the stage and the action that stopped the
// batch when there is one.
func (r *Renderer) Error(err error) string {
	var b strings.Builder

	var se *pipeline.StageError
	if !errors.As(err, &se) {
		b.WriteString(title("failure"))
		b.WriteString("\n\n")
		b.WriteString(highlightOutput(err.Error()))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(title("failed while " + stageVerb(se.Stage)))
	b.WriteString("\n\n")
	b.WriteString(highlightOutput(se.Err.Error()))
	b.WriteString("\n")

	if se.Action != nil || len(se.Applied) > 0 {
		b.WriteString("\n")
		for _, o := range se.Applied {
			b.WriteString(outcomeLine(o))
			b.WriteString("\n")
		}
		if se.Action != nil {
			b.WriteString(fmt.Sprintf("  %s action %d: %s\n", deleted.Render("[STOPPED]"), se.Action.Index+1, se.Action.Action))
		}
		if len(se.Applied) > 0 {
			b.WriteString(comment.Render("  earlier actions remain applied"))
			b.WriteString("\n")
		}
	}

	if se.Raw != "" {
		raw := truncate(se.Raw, maxRawShown)
		b.WriteString("\n")
		b.WriteString(header.Render("Model output:"))
		b.WriteString("\n")
		b.WriteString(comment.Render(raw))
		b.WriteString("\n")
	}
	return b.String()
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n..."
}

func stageVerb(s pipeline.Stage) string {
	switch s {
	case pipeline.BuildingContext:
		return "building context"
	case pipeline.AwaitingModel:
		return "waiting for the model"
	case pipeline.ParsingResponse:
		return "parsing the response"
	case pipeline.ApplyingActions:
		return "applying actions"
	}
	return strings.ToLower(s.String())
}

// highlightOutput marks error lines and file:line locations in tool output.
func highlightOutput(s string) string {
	s = highlight(s, `(?i)error:.*`, deleted)
	s = highlight(s, `(?i)failed:.*`, deleted)
	s = highlight(s, `\./.*\.go:\d+:\d+`, header)
	return s
}
