package apply

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"codeassist/internal/model"
)

func newApplier(t *testing.T) (*Applier, string) {
	t.Helper()
	root := t.TempDir()
	a, err := New(root, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestApply_CreateMakesParentsAndOverwrites(t *testing.T) {
	a, root := newApplier(t)
	action := model.CodeAction{ActionType: model.ActionCreate, FilePath: "pkg/deep/util.go", Code: "package deep\n"}

	out, err := a.Apply(action)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Created {
		t.Error("expected Created for a new file")
	}
	target := filepath.Join(root, "pkg", "deep", "util.go")
	if got := readFile(t, target); got != "package deep\n" {
		t.Errorf("content = %q", got)
	}

	action.Code = "package deep\n\nfunc X() {}\n"
	out, err = a.Apply(action)
	if err != nil {
		t.Fatalf("second CREATE failed: %v", err)
	}
	if out.Created {
		t.Error("second CREATE should report an overwrite")
	}
	if out.Inserted == 0 {
		t.Error("expected inserted runes on overwrite")
	}
	if got := readFile(t, target); got != action.Code {
		t.Errorf("content after overwrite = %q", got)
	}
}

func TestApply_UpdateMissingCreatesNothing(t *testing.T) {
	a, root := newApplier(t)

	_, err := a.Apply(model.CodeAction{ActionType: model.ActionUpdate, FilePath: "nope/missing.go", Code: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
	if _, err := os.Stat(filepath.Join(root, "nope")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("UPDATE must not create directories, stat err = %v", err)
	}
}

func TestApply_UpdateExisting(t *testing.T) {
	a, root := newApplier(t)
	target := filepath.Join(root, "main.go")
	os.WriteFile(target, []byte("old"), 0644)

	out, err := a.Apply(model.CodeAction{ActionType: model.ActionUpdate, FilePath: "main.go", Code: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readFile(t, target); got != "new" {
		t.Errorf("content = %q; want %q", got, "new")
	}
	if out.Inserted == 0 || out.Deleted == 0 {
		t.Errorf("expected both inserted and deleted counts, got +%d -%d", out.Inserted, out.Deleted)
	}
}

func TestApply_Delete(t *testing.T) {
	a, root := newApplier(t)
	target := filepath.Join(root, "gone.txt")

	_, err := a.Apply(model.CodeAction{ActionType: model.ActionDelete, FilePath: "gone.txt"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("DELETE missing: err = %v; want ErrNotFound", err)
	}

	os.WriteFile(target, []byte("bye"), 0644)
	if _, err := a.Apply(model.CodeAction{ActionType: model.ActionDelete, FilePath: "gone.txt"}); err != nil {
		t.Fatalf("DELETE existing failed: %v", err)
	}
	if _, err := os.ReadFile(target); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("read after delete err = %v; want not found", err)
	}
}

func TestApply_DeleteDirectoryRejected(t *testing.T) {
	a, root := newApplier(t)
	os.MkdirAll(filepath.Join(root, "dir", "sub"), 0755)

	_, err := a.Apply(model.CodeAction{ActionType: model.ActionDelete, FilePath: "dir"})
	if !errors.Is(err, ErrIsDirectory) {
		t.Fatalf("err = %v; want ErrIsDirectory", err)
	}
	if _, err := os.Stat(filepath.Join(root, "dir", "sub")); err != nil {
		t.Errorf("directory should be untouched: %v", err)
	}
}

func TestApply_UnsafePaths(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "project")
	sibling := filepath.Join(parent, "projectx")
	os.MkdirAll(root, 0755)
	a, err := New(root, nil)
	if err != nil {
		t.Fatal(err)
	}

	paths := []string{
		"../../etc/passwd",
		"../projectx/evil.go",
		"..",
		"",
		sibling + "/evil.go",
		"/etc/passwd",
	}
	for _, p := range paths {
		for _, at := range []model.ActionType{model.ActionCreate, model.ActionUpdate, model.ActionDelete} {
			_, err := a.Apply(model.CodeAction{ActionType: at, FilePath: p, Code: "pwned"})
			if !errors.Is(err, ErrUnsafePath) {
				t.Errorf("%s %q: err = %v; want ErrUnsafePath", at, p, err)
			}
		}
	}
	if _, err := os.Stat(sibling); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("sibling directory must not be created")
	}
}

func TestApply_UnknownAction(t *testing.T) {
	a, root := newApplier(t)
	_, err := a.Apply(model.CodeAction{ActionType: "RENAME", FilePath: "a.txt", Code: "x"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v; want ErrUnknownAction", err)
	}
	var ae *ActionError
	if !errors.As(err, &ae) || ae.Path != "a.txt" || ae.Type != "RENAME" {
		t.Errorf("expected ActionError naming the action, got %#v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("unknown action must not touch the filesystem")
	}
}

func TestApply_IOErrorIsReported(t *testing.T) {
	a, root := newApplier(t)
	// A file where a parent directory is expected makes MkdirAll fail.
	os.WriteFile(filepath.Join(root, "blocker"), []byte{}, 0644)

	_, err := a.Apply(model.CodeAction{ActionType: model.ActionCreate, FilePath: "blocker/child.go", Code: "x"})
	var ae *ActionError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionError, got %v", err)
	}
	if ae.Type != model.ActionCreate || ae.Path != "blocker/child.go" {
		t.Errorf("unexpected ActionError: %+v", ae)
	}
}

func TestApplyAll_HaltsOnFirstFailure(t *testing.T) {
	a, root := newApplier(t)
	keep := filepath.Join(root, "x.txt")
	os.WriteFile(keep, []byte("keep me"), 0644)

	actions := []model.CodeAction{
		{ActionType: model.ActionCreate, FilePath: "new.txt", Code: "hello"},
		{ActionType: model.ActionUpdate, FilePath: "missing.txt", Code: "nope"},
		{ActionType: model.ActionDelete, FilePath: "x.txt"},
	}

	var seen []int
	res := a.ApplyAll(context.Background(), actions, func(i int, _ Outcome, _ error) {
		seen = append(seen, i)
	})

	if res.OK() {
		t.Fatal("expected batch failure")
	}
	if res.Failed.Index != 1 || !errors.Is(res.Failed.Err, ErrNotFound) {
		t.Errorf("Failed = %+v", res.Failed)
	}
	if len(res.Applied) != 1 || res.Skipped != 1 {
		t.Errorf("Applied = %d, Skipped = %d; want 1, 1", len(res.Applied), res.Skipped)
	}
	if len(seen) != 2 {
		t.Errorf("callback saw %v; DELETE must never be attempted", seen)
	}
	if got := readFile(t, filepath.Join(root, "new.txt")); got != "hello" {
		t.Errorf("CREATE should stay applied, got %q", got)
	}
	if got := readFile(t, keep); got != "keep me" {
		t.Errorf("DELETE target should be untouched, got %q", got)
	}
}

func TestApply_CreateOverWriteOnlyFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	a, root := newApplier(t)
	target := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(target, []byte("old"), 0200); err != nil {
		t.Fatal(err)
	}

	out, err := a.Apply(model.CodeAction{ActionType: model.ActionCreate, FilePath: "secret.txt", Code: "new"})
	if err != nil {
		t.Fatalf("CREATE should overwrite an unreadable file: %v", err)
	}
	if out.Created {
		t.Error("file existed before")
	}
	if out.Inserted != 0 || out.Deleted != 0 {
		t.Errorf("counts = +%d -%d; want none for an unreadable original", out.Inserted, out.Deleted)
	}
	if err := os.Chmod(target, 0644); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, target); got != "new" {
		t.Errorf("content = %q", got)
	}
}

func TestApply_CreateOnDirectoryFails(t *testing.T) {
	a, root := newApplier(t)
	if err := os.Mkdir(filepath.Join(root, "dir"), 0755); err != nil {
		t.Fatal(err)
	}
	_, err := a.Apply(model.CodeAction{ActionType: model.ActionCreate, FilePath: "dir", Code: "x"})
	if !errors.Is(err, ErrIsDirectory) {
		t.Errorf("err = %v; want ErrIsDirectory", err)
	}
}

func TestApplyAll_CancelledContext(t *testing.T) {
	a, root := newApplier(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := a.ApplyAll(ctx, []model.CodeAction{
		{ActionType: model.ActionCreate, FilePath: "a.txt", Code: "a"},
		{ActionType: model.ActionCreate, FilePath: "b.txt", Code: "b"},
	}, nil)

	if res.OK() || !errors.Is(res.Cancelled, context.Canceled) {
		t.Fatalf("expected cancellation, got %+v", res)
	}
	if res.Failed != nil {
		t.Errorf("an action that never ran is not a failure, got %+v", res.Failed)
	}
	if res.Skipped != 2 {
		t.Errorf("Skipped = %d; want 2", res.Skipped)
	}
	if _, err := os.Stat(filepath.Join(root, "a.txt")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("no action should run after cancellation")
	}
}

func TestChangeSize(t *testing.T) {
	tests := []struct {
		before, after string
		ins, del      int
	}{
		{"", "abc", 3, 0},
		{"abc", "", 0, 3},
		{"same", "same", 0, 0},
		{"héllo", "hello", 1, 1},
	}
	for _, tt := range tests {
		ins, del := changeSize(tt.before, tt.after)
		if ins != tt.ins || del != tt.del {
			t.Errorf("changeSize(%q, %q) = +%d -%d; want +%d -%d", tt.before, tt.after, ins, del, tt.ins, tt.del)
		}
	}
}
