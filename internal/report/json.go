package report

import (
	"encoding/json"
	"io"

	"github.com/JNZader/codesentry/internal/review"
)

// JSONReporter generates JSON reports: an array with one object per file.
type JSONReporter struct {
	Indent bool
}

func (r *JSONReporter) Format() string { return "json" }

func (r *JSONReporter) Generate(results []*review.ReviewResult) (string, error) {
	return generate(r, results)
}

func (r *JSONReporter) Write(results []*review.ReviewResult, w io.Writer) error {
	results = present(results)
	encoder := json.NewEncoder(w)
	if r.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(results)
}
