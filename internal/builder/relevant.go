package builder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"codeassist/internal/pathsafe"
)

const maxRelevantFileSize = 256 << 10

// File is a project file quoted into the prompt.
type File struct {
	Path    string
	Content string
}

func isBinary(data []byte) bool {
	return bytes.Contains(data, []byte{0})
}

// EstimateTokens is the rough 4-bytes-per-token rule used for prompt budgets.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// Relevant reads the files a query refers to, either as @path tokens or as
// bare relative paths that exist in the project. Files outside the root,
// directly or through a symlink, are skipped. So are binaries, directories
// and anything past the token budget.
func (in *Inspector) Relevant(query string, budget int) []File {
	var out []File
	seen := make(map[string]bool)
	total := 0

	realRoot, err := filepath.EvalSymlinks(in.root)
	if err != nil {
		return nil
	}

	for _, candidate := range mentionedPaths(query) {
		abs, err := pathsafe.Resolve(in.root, candidate)
		if err != nil {
			in.log.Debug("skip mention outside root", zap.String("path", candidate))
			continue
		}
		rel, _ := filepath.Rel(in.root, abs)
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			continue
		}

		// Links may point anywhere; only their in-root targets are quoted.
		real, err := filepath.EvalSymlinks(abs)
		if err != nil || !pathsafe.Within(realRoot, real) {
			in.log.Debug("skip mention resolving outside root", zap.String("path", candidate))
			continue
		}
		info, err := os.Stat(real)
		if err != nil || !info.Mode().IsRegular() || info.Size() > maxRelevantFileSize {
			continue
		}
		data, err := os.ReadFile(real)
		if err != nil || isBinary(data) {
			continue
		}

		est := EstimateTokens(string(data))
		if budget > 0 && total+est > budget {
			in.log.Debug("relevant file over budget", zap.String("path", rel), zap.Int("tokens", est))
			continue
		}
		seen[rel] = true
		total += est
		out = append(out, File{Path: rel, Content: string(data)})
	}
	return out
}

func mentionedPaths(query string) []string {
	var paths []string
	for _, word := range strings.Fields(query) {
		explicit := strings.HasPrefix(word, "@")
		w := strings.TrimPrefix(word, "@")
		w = strings.TrimRight(w, ".,;:!?")
		w = strings.Trim(w, "\"'`,;:()[]{}<>!?")
		w = strings.TrimRight(w, ".")
		if w == "" {
			continue
		}
		if explicit || strings.ContainsAny(w, "./\\") {
			paths = append(paths, filepath.FromSlash(w))
		}
	}
	return paths
}
