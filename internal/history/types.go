// Package history stores review runs in SQLite so findings can be compared
// across runs and searched later.
package history

import (
	"time"

	"github.com/JNZader/codesentry/internal/issue"
)

// Run is one stored invocation of a review.
type Run struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	BaseRef   string    `json:"base_ref,omitempty"`
	Files     int       `json:"files"`
	Issues    int       `json:"issues"`
	Critical  int       `json:"critical"`
	High      int       `json:"high"`
}

// File is the input to SaveRun for one reviewed file.
type File struct {
	Path     string
	Language string
	Issues   []issue.Issue
}

// Record is a stored issue.
type Record struct {
	RunID    string `json:"run_id"`
	Language string `json:"language"`
	issue.Issue
}

// SearchQuery filters stored issues.
type SearchQuery struct {
	// Text performs full-text search on message and suggestion
	Text string
	// File filters by file path; * is a wildcard
	File string
	// Severity filters by issue severity
	Severity issue.Severity
	// RuleID filters by rule id
	RuleID string
	// Limit restricts result count (default 100)
	Limit int
}
