package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"
)

// setupTestRepo creates a temp git repo with a main branch and a feature
// branch that adds, edits and deletes files.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}
	write := func(name, body string) {
		t.Helper()
		p := filepath.Join(dir, name)
		os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	write("main.go", "package main\n\nfunc main() {}\n")
	write("old.py", "x = 1\n")
	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	run("git", "checkout", "-b", "feature")
	write("main.go", "package main\n\nfunc main() { println() }\n")
	write("pkg/new.ts", "export const a = 1\n")
	write("notes.md", "changed docs\n")
	run("git", "rm", "-q", "old.py")
	run("git", "add", "-A")
	run("git", "commit", "-m", "feature")

	return dir
}

func TestChangedFiles(t *testing.T) {
	dir := setupTestRepo(t)

	files, err := ChangedFiles(context.Background(), dir, "main")
	if err != nil {
		t.Fatalf("ChangedFiles error: %v", err)
	}
	want := []string{filepath.Join(dir, "main.go"), filepath.Join(dir, "pkg", "new.ts")}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("ChangedFiles = %v, want %v", files, want)
	}
}

func TestChangedFiles_BadBase(t *testing.T) {
	dir := setupTestRepo(t)
	if _, err := ChangedFiles(context.Background(), dir, "no-such-branch"); err == nil {
		t.Error("expected error for unknown base")
	}
}

func TestGetRepoMeta(t *testing.T) {
	dir := setupTestRepo(t)
	meta, err := GetRepoMeta(context.Background(), dir)
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	if meta.Branch != "feature" {
		t.Errorf("Branch = %q, want feature", meta.Branch)
	}
	if len(meta.Head) != 40 {
		t.Errorf("Head = %q, want a full SHA", meta.Head)
	}

	if _, err := GetRepoMeta(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error outside a repository")
	}
}
