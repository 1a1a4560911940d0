package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/review"
)

// MarkdownReporter generates Markdown reports. The heading layout is stable
// so other tools can parse it:
//
//	# Code Review Report
//	## Summary
//	## Files
//	### <file path>
//	#### [SEVERITY] <message>
//
// An issue's source line, when known, follows its heading in a fenced
// code block.
type MarkdownReporter struct{}

func (r *MarkdownReporter) Format() string { return "markdown" }

func (r *MarkdownReporter) Generate(results []*review.ReviewResult) (string, error) {
	return generate(r, results)
}

func (r *MarkdownReporter) Write(results []*review.ReviewResult, w io.Writer) error {
	bw := bufio.NewWriter(w)
	results = present(results)

	var all []issue.Issue
	for _, res := range results {
		all = append(all, res.Issues...)
	}
	counts := issue.Counts(all)

	fmt.Fprintf(bw, "# Code Review Report\n\n")

	fmt.Fprintf(bw, "## Summary\n\n")
	fmt.Fprintf(bw, "- **Files Reviewed:** %d\n", len(results))
	fmt.Fprintf(bw, "- **Total Issues:** %d\n", len(all))
	fmt.Fprintf(bw, "- **Critical:** %d\n", counts[issue.SeverityCritical])
	fmt.Fprintf(bw, "- **High:** %d\n", counts[issue.SeverityHigh])
	fmt.Fprintf(bw, "\n")

	if len(results) > 0 {
		fmt.Fprintf(bw, "## Files\n\n")
	}
	for _, res := range results {
		r.writeFile(bw, res)
	}

	if len(all) == 0 {
		fmt.Fprintf(bw, "No issues found.\n")
	}

	return bw.Flush()
}

func (r *MarkdownReporter) writeFile(w io.Writer, res *review.ReviewResult) {
	fmt.Fprintf(w, "### %s\n\n", res.FilePath)
	fmt.Fprintf(w, "- **Language:** %s\n", res.Language)
	fmt.Fprintf(w, "- **Issues:** %d\n", len(res.Issues))
	fmt.Fprintf(w, "- **Cyclomatic Complexity:** %d\n", res.Metrics.CyclomaticComplexity)
	fmt.Fprintf(w, "\n")

	for _, is := range res.Issues {
		r.writeIssue(w, is)
	}

	if len(res.SuggestedImprovements) > 0 {
		fmt.Fprintf(w, "**Suggested Improvements:**\n\n")
		for _, s := range res.SuggestedImprovements {
			fmt.Fprintf(w, "- %s\n", s)
		}
		fmt.Fprintf(w, "\n")
	}
}

func (r *MarkdownReporter) writeIssue(w io.Writer, is issue.Issue) {
	fmt.Fprintf(w, "#### [%s] %s\n\n", is.Severity.Label(), singleLine(is.Message))

	fmt.Fprintf(w, "**Location:** Line %d", is.Line)
	if is.Column > 0 {
		fmt.Fprintf(w, ", column %d", is.Column)
	}
	fmt.Fprintf(w, " | **Category:** %s", is.Category)
	if is.RuleID != "" {
		fmt.Fprintf(w, " | **Rule:** `%s`", is.RuleID)
	}
	fmt.Fprintf(w, "\n\n")

	if is.Context != "" {
		f := fence(is.Context)
		fmt.Fprintf(w, "%s\n%s\n%s\n\n", f, is.Context, f)
	}

	if is.Suggestion != "" {
		fmt.Fprintf(w, "**Suggestion:** %s\n\n", singleLine(is.Suggestion))
	}

	fmt.Fprintf(w, "---\n\n")
}

// fence returns a backtick fence longer than any backtick run in s.
func fence(s string) string {
	longest, run := 0, 0
	for _, c := range s {
		if c == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
