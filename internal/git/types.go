// Package git lists the files changed in a working tree. It shells out to
// the git binary and never modifies the repository.
package git

import "context"

// Repository defines the git operations the review needs.
// This abstraction allows for testing with mock implementations.
type Repository interface {
	// ChangedFiles returns the paths changed relative to baseRef,
	// excluding deletions.
	ChangedFiles(ctx context.Context, baseRef string) ([]string, error)

	// CurrentBranch returns the current branch name.
	CurrentBranch(ctx context.Context) (string, error)

	// Root returns the root directory of the repository.
	Root(ctx context.Context) (string, error)
}

// FileStatus represents the status of a file in the diff.
type FileStatus string

const (
	FileAdded     FileStatus = "added"
	FileModified  FileStatus = "modified"
	FileDeleted   FileStatus = "deleted"
	FileRenamed   FileStatus = "renamed"
	FileCopied    FileStatus = "copied"
	FileUntracked FileStatus = "untracked"
)

// Change is one entry of `git diff --name-status`.
type Change struct {
	Path    string     `json:"path"`
	OldPath string     `json:"old_path,omitempty"` // For renames and copies
	Status  FileStatus `json:"status"`
}
