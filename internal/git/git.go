package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// IsRepo reports whether root is the top of a git working tree.
func IsRepo(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

func run(ctx context.Context, root string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = root
	out, err := cmd.Output()
	return string(out), err
}

// IsDirty checks if the workspace has uncommitted changes
func IsDirty(ctx context.Context, root string) bool {
	files, err := StatusFiles(ctx, root)
	return err == nil && len(files) > 0
}

// StatusFiles returns paths of modified/added/untracked files in the workspace.
// Outside a repository it returns nothing.
func StatusFiles(ctx context.Context, root string) ([]string, error) {
	if !IsRepo(root) {
		return nil, nil
	}
	out, err := run(ctx, root, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 3 {
			// Porcelain format: XY path
			files = append(files, strings.TrimSpace(line[3:]))
		}
	}
	return files, nil
}

// Head returns the abbreviated commit hash of HEAD, or "" when there is none.
func Head(ctx context.Context, root string) string {
	if !IsRepo(root) {
		return ""
	}
	out, err := run(ctx, root, "rev-parse", "--short", "HEAD")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
