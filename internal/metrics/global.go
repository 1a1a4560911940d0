package metrics

import "sync"

var (
	globalCollector *Collector
	once            sync.Once
)

// Global returns the process-wide collector used by the CLI.
func Global() *Collector {
	once.Do(func() {
		globalCollector = NewCollector()
	})
	return globalCollector
}

// Metric names recorded by the review engine.
const (
	MetricFilesReviewed    = "codesentry_files_reviewed_total"
	MetricFilesSkipped     = "codesentry_files_skipped_total"
	MetricIssues           = "codesentry_issues_total"
	MetricIssuesBySeverity = "codesentry_issues_by_severity_total"
	MetricParseFailures    = "codesentry_parse_failures_total"
	MetricCacheHits        = "codesentry_cache_hits_total"
	MetricCacheMisses      = "codesentry_cache_misses_total"
	MetricFileReview       = "codesentry_file_review"
)

var descriptions = map[string]string{
	MetricFilesReviewed:           "Files reviewed, including cache hits.",
	MetricFilesSkipped:            "Files that could not be read or reviewed.",
	MetricIssues:                  "Issues reported.",
	MetricIssuesBySeverity:        "Issues reported, by severity.",
	MetricParseFailures:           "Files whose structural parse failed.",
	MetricCacheHits:               "Result cache hits.",
	MetricCacheMisses:             "Result cache misses.",
	MetricFileReview + "_seconds": "Time spent reviewing one file.",
}
