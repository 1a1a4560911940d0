package report

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sort"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/review"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	toolName     = "codesentry"
)

// SARIFReporter generates SARIF 2.1.0 reports.
type SARIFReporter struct {
	ToolVersion string
}

func (r *SARIFReporter) Format() string { return "sarif" }

// SARIF types
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
	Properties       struct {
		Category string `json:"category"`
	} `json:"properties"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation struct {
		ArtifactLocation struct {
			URI string `json:"uri"`
		} `json:"artifactLocation"`
		Region *sarifRegion `json:"region,omitempty"`
	} `json:"physicalLocation"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

func (r *SARIFReporter) Generate(results []*review.ReviewResult) (string, error) {
	return generate(r, results)
}

func (r *SARIFReporter) Write(results []*review.ReviewResult, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r.buildReport(results))
}

func (r *SARIFReporter) buildReport(results []*review.ReviewResult) *sarifReport {
	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:    toolName,
				Version: r.ToolVersion,
			},
		},
		Results: []sarifResult{},
	}

	rules := map[string]sarifRule{}
	for _, res := range present(results) {
		for _, is := range res.Issues {
			id := is.RuleID
			if id == "" {
				id = string(is.Category)
			}
			if _, ok := rules[id]; !ok {
				rule := sarifRule{ID: id, ShortDescription: sarifMessage{Text: is.Message}}
				rule.Properties.Category = string(is.Category)
				rules[id] = rule
			}

			text := is.Message
			if is.Suggestion != "" {
				text += " Suggestion: " + is.Suggestion
			}

			loc := sarifLocation{}
			loc.PhysicalLocation.ArtifactLocation.URI = filepath.ToSlash(res.FilePath)
			// SARIF lines and columns are 1-based; file-level issues have no region.
			if is.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: is.Line, StartColumn: is.Column + 1}
			}

			run.Results = append(run.Results, sarifResult{
				RuleID:    id,
				Level:     sarifLevel(is.Severity),
				Message:   sarifMessage{Text: text},
				Locations: []sarifLocation{loc},
			})
		}
	}

	ids := make([]string, 0, len(rules))
	for id := range rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, rules[id])
	}

	return &sarifReport{Schema: sarifSchema, Version: sarifVersion, Runs: []sarifRun{run}}
}

func sarifLevel(s issue.Severity) string {
	switch s {
	case issue.SeverityCritical, issue.SeverityHigh:
		return "error"
	case issue.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
