// Package report renders review results as Markdown, JSON or SARIF.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/JNZader/codesentry/internal/review"
)

// Reporter defines the interface for generating review reports.
// Output depends only on the results, so generating twice gives the same
// bytes. Nil entries in results are skipped.
type Reporter interface {
	// Generate creates a report from review results.
	Generate(results []*review.ReviewResult) (string, error)

	// Write writes the report to a writer.
	Write(results []*review.ReviewResult, w io.Writer) error

	// Format returns the format name.
	Format() string
}

// NewReporter creates a reporter for the given format.
func NewReporter(format string) (Reporter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return &MarkdownReporter{}, nil
	case "json":
		return &JSONReporter{Indent: true}, nil
	case "sarif":
		return &SARIFReporter{ToolVersion: "dev"}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s (available: %s)", format, strings.Join(AvailableFormats(), ", "))
	}
}

// AvailableFormats returns the list of supported formats.
func AvailableFormats() []string {
	return []string{"markdown", "json", "sarif"}
}

func generate(r Reporter, results []*review.ReviewResult) (string, error) {
	var sb strings.Builder
	if err := r.Write(results, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// present drops nil entries. The input slice is not modified.
func present(results []*review.ReviewResult) []*review.ReviewResult {
	out := make([]*review.ReviewResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, res)
		}
	}
	return out
}
