package renderer

import (
	"fmt"
	"strings"

	"codeassist/internal/apply"
	"codeassist/internal/model"
	"codeassist/internal/pipeline"
)

func actionTag(t model.ActionType) string {
	tag := fmt.Sprintf("[%s]", t)
	switch t {
	case model.ActionCreate:
		return added.Render(tag)
	case model.ActionDelete:
		return deleted.Render(tag)
	}
	return keyword.Render(tag)
}

func outcomeLine(o apply.Outcome) string {
	line := fmt.Sprintf("  %s %s", actionTag(o.Action.ActionType), o.Action.FilePath)
	if o.Action.ActionType != model.ActionDelete {
		line += " " + added.Render(fmt.Sprintf("+%d", o.Inserted)) + " " + deleted.Render(fmt.Sprintf("-%d", o.Deleted))
	}
	if o.Action.Explanation != "" {
		line += "\n      " + comment.Render(o.Action.Explanation)
	}
	return line
}

// Result renders a successful request.
func (r *Renderer) Result(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString(title("applied"))
	b.WriteString("\n\n")
	b.WriteString(r.Markdown(res.Response.OverallExplanation))
	b.WriteString("\n\n")

	if len(res.Applied) == 0 {
		b.WriteString("No file changes.\n")
	}
	for _, o := range res.Applied {
		b.WriteString(outcomeLine(o))
		b.WriteString("\n")
	}
	for _, w := range res.Warnings {
		b.WriteString(deleted.Render("warning: " + w))
		b.WriteString("\n")
	}
	return b.String()
}

// Batch renders the outcome of applying a response outside the pipeline.
func (r *Renderer) Batch(resp *model.Response, batch apply.BatchResult) string {
	var b strings.Builder
	b.WriteString(r.Markdown(resp.OverallExplanation))
	b.WriteString("\n\n")
	for _, o := range batch.Applied {
		b.WriteString(outcomeLine(o))
		b.WriteString("\n")
	}
	if batch.Failed != nil {
		b.WriteString(failedLine(batch.Failed, batch.Skipped))
	}
	if batch.Cancelled != nil {
		b.WriteString(fmt.Sprintf("  %s %d action(s) not attempted\n", deleted.Render("[CANCELLED]"), batch.Skipped))
	}
	return b.String()
}

func failedLine(f *apply.FailedAction, skipped int) string {
	s := fmt.Sprintf("  %s %s %s\n", deleted.Render("[FAILED]"), f.Action, deleted.Render(f.Err.Error()))
	if skipped > 0 {
		s += fmt.Sprintf("  %d later action(s) not attempted\n", skipped)
	}
	return s
}
