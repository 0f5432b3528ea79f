package builder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var ErrInvalidRoot = errors.New("project root is not a valid directory")

const deniedMarker = "[Permission Denied]"

// Node is one entry of the project tree. Symlinked directories are listed
// but never entered, so they show up as leaves.
type Node struct {
	Name     string
	IsDir    bool
	Symlink  bool
	Denied   bool
	Children []*Node
}

type Inspector struct {
	root        string
	ignore      map[string]struct{}
	ignoreFiles bool
	log         *zap.Logger
}

type Option func(*Inspector)

// WithIgnoreFiles also honors patterns from .gitignore and .assistignore in the root.
func WithIgnoreFiles(enabled bool) Option {
	return func(in *Inspector) { in.ignoreFiles = enabled }
}

func WithLogger(log *zap.Logger) Option {
	return func(in *Inspector) {
		if log != nil {
			in.log = log
		}
	}
}

func New(root string, ignore []string, opts ...Option) (*Inspector, error) {
	abs, err := checkRoot(root)
	if err != nil {
		return nil, err
	}
	in := &Inspector{
		root:   abs,
		ignore: make(map[string]struct{}, len(ignore)),
		log:    zap.NewNop(),
	}
	for _, name := range ignore {
		in.ignore[name] = struct{}{}
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

func (in *Inspector) Root() string { return in.root }

func checkRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInvalidRoot, root)
	}
	return abs, nil
}

// Tree walks the project fresh on every call. The root is re-checked because it
// may have been removed since the inspector was built.
func (in *Inspector) Tree() (*Node, error) {
	if _, err := checkRoot(in.root); err != nil {
		return nil, err
	}

	var patterns []string
	if in.ignoreFiles {
		patterns = LoadIgnorePatterns(in.root)
	}

	root := &Node{Name: filepath.Base(in.root), IsDir: true}
	visited := make(map[string]struct{})
	in.walk(in.root, "", root, patterns, visited)
	return root, nil
}

func (in *Inspector) walk(dir, rel string, node *Node, patterns []string, visited map[string]struct{}) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		real = dir
	}
	if _, seen := visited[real]; seen {
		return
	}
	visited[real] = struct{}{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			node.Denied = true
			return
		}
		in.log.Warn("read directory", zap.String("dir", dir), zap.Error(err))
		if len(entries) == 0 {
			return
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		name := e.Name()
		if _, skip := in.ignore[name]; skip {
			continue
		}
		childRel := name
		if rel != "" {
			childRel = filepath.Join(rel, name)
		}
		if len(patterns) > 0 && MatchesIgnore(childRel, patterns) {
			continue
		}

		child := &Node{Name: name}
		switch {
		case e.Type()&fs.ModeSymlink != 0:
			child.Symlink = true
		case e.IsDir():
			child.IsDir = true
			in.walk(filepath.Join(dir, name), childRel, child, patterns, visited)
		}
		node.Children = append(node.Children, child)
	}
}

// String renders the current tree, or an error line if the root is gone.
func (in *Inspector) String() string {
	tree, err := in.Tree()
	if err != nil {
		return err.Error()
	}
	return Render(tree)
}

// Render draws the tree with branch connectors:
//
//	app/
//	├── cmd/
//	│   └── main.go
//	└── go.mod
func Render(root *Node) string {
	var b strings.Builder
	b.WriteString(root.Name + "/\n")
	renderChildren(&b, root, "")
	return strings.TrimRight(b.String(), "\n")
}

func renderChildren(b *strings.Builder, node *Node, indent string) {
	if node.Denied {
		b.WriteString(indent + deniedMarker + "\n")
		return
	}
	for i, c := range node.Children {
		connector, next := "├── ", indent+"│   "
		if i == len(node.Children)-1 {
			connector, next = "└── ", indent+"    "
		}
		name := c.Name
		if c.IsDir {
			name += "/"
		}
		b.WriteString(indent + connector + name + "\n")
		if c.IsDir {
			renderChildren(b, c, next)
		}
	}
}

// Paths flattens the tree into slash-separated relative file paths.
func Paths(root *Node) []string {
	var out []string
	var visit func(n *Node, prefix string)
	visit = func(n *Node, prefix string) {
		for _, c := range n.Children {
			p := c.Name
			if prefix != "" {
				p = prefix + "/" + c.Name
			}
			if c.IsDir {
				visit(c, p)
				continue
			}
			out = append(out, p)
		}
	}
	visit(root, "")
	return out
}
