package builder

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

var ignoreFiles = []string{".gitignore", ".assistignore"}

// LoadIgnorePatterns reads .gitignore and .assistignore to build a list of patterns.
// Negations are not supported and are dropped.
func LoadIgnorePatterns(root string) []string {
	var patterns []string

	read := func(fname string) {
		f, err := os.Open(filepath.Join(root, fname))
		if err != nil {
			return
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			patterns = append(patterns, strings.TrimPrefix(line, "/"))
		}
	}

	for _, name := range ignoreFiles {
		read(name)
	}
	return patterns
}

// MatchesIgnore checks if a relative path matches any ignore pattern
func MatchesIgnore(relPath string, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)
	pathParts := strings.Split(relPath, "/")

	for _, p := range patterns {
		// Directory match (e.g. "node_modules/")
		if strings.HasSuffix(p, "/") {
			clean := strings.TrimSuffix(p, "/")
			for _, part := range pathParts {
				if part == clean {
					return true
				}
			}
			continue
		}

		// Exact match or glob on any single component
		for _, part := range pathParts {
			if matched, _ := filepath.Match(p, part); matched {
				return true
			}
		}

		// Anchored path match on whole components
		if strings.Contains(p, "/") && (relPath == p || strings.HasPrefix(relPath, p+"/")) {
			return true
		}
	}
	return false
}
