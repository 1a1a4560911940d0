package config

import (
	"os"
	"path/filepath"
)

// DefaultMaxFileSize bounds how much of a single file is read.
const DefaultMaxFileSize = 2 << 20

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Review: ReviewConfig{
			MaxConcurrency:      0,
			MaxFileSize:         DefaultMaxFileSize,
			ComplexityThreshold: 7,
			MaxNesting:          4,
			MaxLineLength:       120,
			IgnorePatterns:      DefaultIgnorePatterns(),
			BaseRef:             "main",
			RepoPath:            ".",
		},
		Output: OutputConfig{
			Format: "markdown",
			Color:  true,
		},
		Rules: RulesConfig{
			IncludeDefaults: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    filepath.Join(defaultDataDir(), "history.db"),
		},
		Log: LogConfig{Level: "info"},
	}
}

// defaultDataDir returns the default directory for local state.
func defaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".local", "share", "codesentry")
}

// DefaultIgnorePatterns returns the default file patterns to ignore.
// These are files that hold no reviewable source.
func DefaultIgnorePatterns() []string {
	return []string{
		// Documentation
		"*.md",
		"*.txt",
		"*.rst",
		"LICENSE",

		// Images
		"*.png",
		"*.jpg",
		"*.gif",
		"*.svg",

		// Generated code
		"*.pb.go",
		"*_generated.go",
		"*.min.js",

		// Lock files
		"go.sum",
		"package-lock.json",
		"yarn.lock",
		"pnpm-lock.yaml",

		// Build output and dependencies
		"dist/*",
		"build/*",
		"node_modules/*",
		"vendor/*",
	}
}
