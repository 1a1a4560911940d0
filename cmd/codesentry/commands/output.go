package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteOutput writes the report to a file, or to stdout when outputPath is
// empty.
func WriteOutput(stdout, stderr io.Writer, content, outputPath string) error {
	if outputPath == "" {
		_, err := io.WriteString(stdout, content)
		return err
	}

	// Create parent directories
	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	if !quiet {
		fmt.Fprintf(stderr, "Report written to: %s\n", outputPath)
	}
	return nil
}

// DetectFormatFromPath infers the output format from file extension.
func DetectFormatFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return "json"
	case ".sarif":
		return "sarif"
	case ".md", ".markdown":
		return "markdown"
	default:
		return ""
	}
}
