package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_GLOBAL=/dev/null", "GIT_CONFIG_NOSYSTEM=1",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestRepoChangedFiles(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	gitCmd(t, dir, "init", "-q", "-b", "main")
	writeFile(t, dir, "keep.py", "x = 1\n")
	writeFile(t, dir, "edit.go", "package main\n")
	writeFile(t, dir, "gone.js", "var a;\n")
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "base")

	gitCmd(t, dir, "checkout", "-q", "-b", "feature")
	writeFile(t, dir, "edit.go", "package main\n\nfunc main() {}\n")
	writeFile(t, dir, "pkg/new.py", "y = 2\n")
	gitCmd(t, dir, "rm", "-q", "gone.js")
	gitCmd(t, dir, "add", ".")
	gitCmd(t, dir, "commit", "-q", "-m", "feature")
	writeFile(t, dir, "scratch.rb", "puts 1\n") // untracked

	ctx := context.Background()
	repo, err := NewRepo(ctx, dir)
	if err != nil {
		t.Fatalf("NewRepo() error = %v", err)
	}

	got, err := repo.ChangedFiles(ctx, "main")
	if err != nil {
		t.Fatalf("ChangedFiles() error = %v", err)
	}

	root, _ := repo.Root(ctx)
	want := []string{
		filepath.Join(root, "edit.go"),
		filepath.Join(root, "pkg", "new.py"),
		filepath.Join(root, "scratch.rb"),
	}
	if len(got) != len(want) {
		t.Fatalf("ChangedFiles() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ChangedFiles()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	branch, err := repo.CurrentBranch(ctx)
	if err != nil || branch != "feature" {
		t.Errorf("CurrentBranch() = %q, %v, want feature", branch, err)
	}
}

func TestNewRepoNotARepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())

	if _, err := NewRepo(context.Background(), t.TempDir()); err == nil {
		t.Error("expected error outside a git repository")
	}
}
