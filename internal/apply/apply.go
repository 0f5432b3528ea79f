package apply

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"codeassist/internal/model"
	"codeassist/internal/pathsafe"
)

var (
	ErrUnsafePath    = errors.New("security violation: path outside project root")
	ErrNotFound      = errors.New("target not found")
	ErrIsDirectory   = errors.New("target is a directory")
	ErrUnknownAction = errors.New("unknown action type")
)

// ActionError ties a failure to the action type and path that caused it.
type ActionError struct {
	Type model.ActionType
	Path string
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Type, e.Path, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Outcome describes an applied action. Inserted and Deleted count runes
// changed relative to what was on disk before.
type Outcome struct {
	Action   model.CodeAction
	Created  bool
	Inserted int
	Deleted  int
}

type Applier struct {
	root string
	log  *zap.Logger
}

func New(root string, log *zap.Logger) (*Applier, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{root: abs, log: log}, nil
}

// Apply executes a single action. The containment check runs before any
// filesystem call. CREATE overwrites an existing file.
func (a *Applier) Apply(action model.CodeAction) (Outcome, error) {
	out := Outcome{Action: action}
	fail := func(err error) (Outcome, error) {
		a.log.Warn("action failed",
			zap.String("type", string(action.ActionType)),
			zap.String("path", action.FilePath),
			zap.Error(err))
		return out, &ActionError{Type: action.ActionType, Path: action.FilePath, Err: err}
	}

	target, err := pathsafe.Resolve(a.root, action.FilePath)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", ErrUnsafePath, err))
	}

	switch action.ActionType {
	case model.ActionCreate:
		old, existed, err := readExisting(target)
		countable := err == nil
		if errors.Is(err, ErrIsDirectory) {
			return fail(err)
		}
		if err != nil {
			// Unreadable but possibly writable: overwrite without counts.
			a.log.Debug("existing file unreadable", zap.String("path", action.FilePath), zap.Error(err))
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fail(err)
		}
		if err := os.WriteFile(target, []byte(action.Code), 0644); err != nil {
			return fail(err)
		}
		out.Created = !existed
		if countable {
			out.Inserted, out.Deleted = changeSize(old, action.Code)
		}

	case model.ActionUpdate:
		old, existed, err := readExisting(target)
		if err != nil {
			return fail(err)
		}
		if !existed {
			return fail(ErrNotFound)
		}
		if err := os.WriteFile(target, []byte(action.Code), 0644); err != nil {
			return fail(err)
		}
		out.Inserted, out.Deleted = changeSize(old, action.Code)

	case model.ActionDelete:
		info, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			return fail(ErrNotFound)
		}
		if err != nil {
			return fail(err)
		}
		if info.IsDir() {
			return fail(ErrIsDirectory)
		}
		if err := os.Remove(target); err != nil {
			return fail(err)
		}

	default:
		return fail(fmt.Errorf("%w %q", ErrUnknownAction, action.ActionType))
	}

	a.log.Info("action applied",
		zap.String("type", string(action.ActionType)),
		zap.String("path", action.FilePath))
	return out, nil
}

func readExisting(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if info.IsDir() {
		return "", true, ErrIsDirectory
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", true, err
	}
	return string(data), true, nil
}

func changeSize(before, after string) (inserted, deleted int) {
	if before == after {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			inserted += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			deleted += len([]rune(d.Text))
		}
	}
	return inserted, deleted
}
