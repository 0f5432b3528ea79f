// Package pathsafe resolves model-supplied relative paths against a project root
// and refuses anything that lands outside it.
package pathsafe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes project root")

// Resolve joins rel onto root and returns the cleaned absolute target.
// Containment is checked per path component, so root /a/b never admits /a/bb.
// The root itself is not a valid target.
func Resolve(root, rel string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root %q: %w", root, err)
	}

	var target string
	if filepath.IsAbs(rel) {
		target = filepath.Clean(rel)
	} else {
		target = filepath.Join(rootAbs, rel)
	}

	if !Within(rootAbs, target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return target, nil
}

// Within reports whether target is strictly below root. Both must be absolute.
func Within(root, target string) bool {
	r, err := filepath.Rel(filepath.Clean(root), filepath.Clean(target))
	if err != nil || r == "." || filepath.IsAbs(r) {
		return false
	}
	return r != ".." && !strings.HasPrefix(r, ".."+string(os.PathSeparator))
}
