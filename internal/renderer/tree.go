package renderer

import (
	"fmt"
	"strings"

	"codeassist/internal/builder"
	"codeassist/internal/journal"
)

// Tree styles a rendered project tree: directories in the header color,
// denied markers in red.
func (r *Renderer) Tree(tree *builder.Node) string {
	lines := strings.Split(builder.Render(tree), "\n")
	for i, line := range lines {
		switch {
		case strings.HasSuffix(line, "/"):
			lines[i] = header.Render(line)
		case strings.HasSuffix(line, "[Permission Denied]"):
			lines[i] = deleted.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// GitStatus lists files with uncommitted changes.
func (r *Renderer) GitStatus(files []string) string {
	var b strings.Builder
	b.WriteString(title("workspace modifications"))
	b.WriteString("\n\n")
	if len(files) == 0 {
		b.WriteString("No changes detected.\n")
		return b.String()
	}
	for _, f := range files {
		b.WriteString("  " + added.Render("[Modified]") + " " + f + "\n")
	}
	fmt.Fprintf(&b, "\nTotal modified: %d\n", len(files))
	return b.String()
}

// Journal lists past requests, newest first.
func (r *Renderer) Journal(entries []journal.Entry) string {
	if len(entries) == 0 {
		return "No requests recorded yet.\n"
	}
	var b strings.Builder
	for _, e := range entries {
		status := added.Render("ok")
		if !e.OK() {
			status = deleted.Render("failed in " + e.Stage)
		}
		fmt.Fprintf(&b, "%s  %s  %s\n", comment.Render(e.Time.Format("2006-01-02 15:04:05")), status, header.Render(e.Query))
		if e.Explanation != "" {
			fmt.Fprintf(&b, "    %s\n", e.Explanation)
		}
		if e.Error != "" {
			fmt.Fprintf(&b, "    %s\n", deleted.Render(e.Error))
		}
		for _, a := range e.Actions {
			fmt.Fprintf(&b, "    %-8s %-7s %s\n", a.Status, a.Type, a.Path)
		}
	}
	return b.String()
}
