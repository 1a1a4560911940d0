package git

import (
	"fmt"
	"strings"
)

var statusCodes = map[byte]FileStatus{
	'A': FileAdded,
	'M': FileModified,
	'T': FileModified,
	'D': FileDeleted,
	'R': FileRenamed,
	'C': FileCopied,
}

// ParseNameStatus parses the output of `git diff --name-status`. Rename and
// copy lines carry a similarity score (R087) and two paths; the new path is
// the one reported.
func ParseNameStatus(output string) ([]Change, error) {
	var changes []Change
	for n, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" {
			return nil, fmt.Errorf("line %d: malformed name-status entry %q", n+1, line)
		}

		status, ok := statusCodes[fields[0][0]]
		if !ok {
			// Unmerged (U) and unknown (X) entries have no reviewable content.
			continue
		}

		c := Change{Path: fields[1], Status: status}
		if status == FileRenamed || status == FileCopied {
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: %s entry without destination path", n+1, status)
			}
			c.OldPath, c.Path = fields[1], fields[2]
		}
		changes = append(changes, c)
	}
	return changes, nil
}

// parseLines splits newline-separated paths, dropping blanks.
func parseLines(output string) []string {
	var out []string
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
