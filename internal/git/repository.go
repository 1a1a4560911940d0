package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Repo implements Repository using git commands.
type Repo struct {
	path string
}

// NewRepo creates a Repo for the working tree containing path.
func NewRepo(ctx context.Context, path string) (*Repo, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	repo := &Repo{path: absPath}
	root, err := repo.Root(ctx)
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	repo.path = root

	return repo, nil
}

// runGit executes a git command and returns the output.
func (r *Repo) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.path

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Include stderr in error message for debugging
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, errMsg)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return stdout.String(), nil
}

// ChangedFiles returns absolute paths of files that differ from the merge
// base of baseRef and HEAD, including uncommitted and untracked files.
// Deleted files are left out. The result is sorted.
func (r *Repo) ChangedFiles(ctx context.Context, baseRef string) ([]string, error) {
	mergeBase, err := r.runGit(ctx, "merge-base", baseRef, "HEAD")
	if err != nil {
		return nil, fmt.Errorf("failed to find merge base with %s: %w", baseRef, err)
	}

	diff, err := r.runGit(ctx, "diff", "--name-status", "-M", strings.TrimSpace(mergeBase), "--")
	if err != nil {
		return nil, err
	}
	changes, err := ParseNameStatus(diff)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}

	untracked, err := r.runGit(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var paths []string
	add := func(rel string) {
		if seen[rel] {
			return
		}
		seen[rel] = true
		paths = append(paths, filepath.Join(r.path, filepath.FromSlash(rel)))
	}
	for _, c := range changes {
		if c.Status != FileDeleted {
			add(c.Path)
		}
	}
	for _, rel := range parseLines(untracked) {
		add(rel)
	}

	sort.Strings(paths)
	return paths, nil
}

func (r *Repo) CurrentBranch(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

func (r *Repo) Root(ctx context.Context) (string, error) {
	output, err := r.runGit(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return filepath.Clean(strings.TrimSpace(output)), nil
}
