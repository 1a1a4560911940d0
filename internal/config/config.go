// Package config handles all configuration management for codesentry.
//
// Configuration is loaded from multiple sources in order of precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (CODESENTRY_*)
// 3. Configuration file (.codesentry.yaml)
// 4. Default values (lowest priority)
package config

import (
	"strings"
	"time"

	"github.com/JNZader/codesentry/internal/issue"
	"github.com/JNZader/codesentry/internal/logger"
)

// Config is the main configuration structure for codesentry.
type Config struct {
	// Review configures the analysis pipeline
	Review ReviewConfig `mapstructure:"review" yaml:"review"`

	// Output configures report rendering
	Output OutputConfig `mapstructure:"output" yaml:"output"`

	// Rules configures custom rule files
	Rules RulesConfig `mapstructure:"rules" yaml:"rules"`

	// Cache configures the result cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// History configures persistence of review runs
	History HistoryConfig `mapstructure:"history" yaml:"history"`

	// Log configures the logger
	Log LogConfig `mapstructure:"log" yaml:"log"`
}

// ReviewConfig configures review behavior.
type ReviewConfig struct {
	// MaxConcurrency is the maximum parallel file reviews (0 = GOMAXPROCS)
	MaxConcurrency int `mapstructure:"max_concurrency" yaml:"max_concurrency"`

	// MaxFileSize is the largest file read, in bytes
	MaxFileSize int64 `mapstructure:"max_file_size" yaml:"max_file_size"`

	// ComplexityThreshold flags functions with a higher cyclomatic complexity
	ComplexityThreshold int `mapstructure:"complexity_threshold" yaml:"complexity_threshold"`

	// MaxNesting flags functions nested deeper than this
	MaxNesting int `mapstructure:"max_nesting" yaml:"max_nesting"`

	// MaxLineLength flags longer lines in heuristic languages
	MaxLineLength int `mapstructure:"max_line_length" yaml:"max_line_length"`

	// IgnorePatterns are globs of changed files to skip
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`

	// BaseRef is the ref changed files are listed against
	BaseRef string `mapstructure:"base_ref" yaml:"base_ref"`

	// RepoPath is the git working tree (default: current directory)
	RepoPath string `mapstructure:"repo_path" yaml:"repo_path"`
}

// OutputConfig configures output formatting.
type OutputConfig struct {
	// Format is the output format: "markdown", "json", "sarif"
	Format string `mapstructure:"format" yaml:"format"`

	// File is the output file path (empty = stdout)
	File string `mapstructure:"file" yaml:"file"`

	// Color enables the colored summary line
	Color bool `mapstructure:"color" yaml:"color"`

	// Pretty renders markdown for the terminal
	Pretty bool `mapstructure:"pretty" yaml:"pretty"`

	// FailOn exits non-zero when an issue at or above this severity is found
	FailOn string `mapstructure:"fail_on" yaml:"fail_on"`
}

// RulesConfig configures custom rules.
type RulesConfig struct {
	// Files are YAML rule sets to load
	Files []string `mapstructure:"files" yaml:"files"`

	// Dirs are directories searched for *.yaml and *.yml rule sets
	Dirs []string `mapstructure:"dirs" yaml:"dirs"`

	// IncludeDefaults loads the bundled hygiene rules
	IncludeDefaults bool `mapstructure:"include_defaults" yaml:"include_defaults"`
}

// CacheConfig configures caching behavior.
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled" yaml:"enabled"`
	MaxEntries int  `mapstructure:"max_entries" yaml:"max_entries"`
	// Dir keeps results on disk between runs. Empty means memory only.
	Dir string        `mapstructure:"dir" yaml:"dir"`
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// HistoryConfig configures the review history database.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

var validFormats = map[string]bool{"markdown": true, "json": true, "sarif": true}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Review.MaxConcurrency < 0 {
		return &ValidationError{Field: "review.max_concurrency", Message: "must not be negative"}
	}
	if c.Review.MaxFileSize <= 0 {
		return &ValidationError{Field: "review.max_file_size", Message: "must be positive"}
	}
	if c.Review.ComplexityThreshold < 1 {
		return &ValidationError{Field: "review.complexity_threshold", Message: "must be at least 1"}
	}
	if c.Review.MaxNesting < 1 {
		return &ValidationError{Field: "review.max_nesting", Message: "must be at least 1"}
	}
	if c.Review.MaxLineLength < 1 {
		return &ValidationError{Field: "review.max_line_length", Message: "must be at least 1"}
	}

	if !validFormats[strings.ToLower(c.Output.Format)] {
		return &ValidationError{Field: "output.format", Message: "invalid format, must be one of: markdown, json, sarif"}
	}
	if c.Output.FailOn != "" {
		if _, err := issue.ParseSeverity(c.Output.FailOn); err != nil {
			return &ValidationError{Field: "output.fail_on", Message: err.Error()}
		}
	}

	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		return &ValidationError{Field: "cache.max_entries", Message: "must be positive when cache is enabled"}
	}
	if c.Cache.TTL < 0 {
		return &ValidationError{Field: "cache.ttl", Message: "must not be negative"}
	}
	if c.History.Enabled && c.History.Path == "" {
		return &ValidationError{Field: "history.path", Message: "database path is required when history is enabled"}
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: err.Error()}
	}

	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "config validation error: " + e.Field + ": " + e.Message
}
