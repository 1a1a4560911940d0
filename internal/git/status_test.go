package git

import (
	"testing"
)

func TestParseNameStatus(t *testing.T) {
	output := "M\tinternal/review/engine.go\n" +
		"A\tnew.py\n" +
		"D\told.js\n" +
		"R087\tsrc/a.go\tsrc/b.go\n" +
		"C100\ttemplate.java\tcopy.java\n" +
		"U\tconflict.txt\n" +
		"\n"

	changes, err := ParseNameStatus(output)
	if err != nil {
		t.Fatalf("ParseNameStatus() error = %v", err)
	}

	want := []Change{
		{Path: "internal/review/engine.go", Status: FileModified},
		{Path: "new.py", Status: FileAdded},
		{Path: "old.js", Status: FileDeleted},
		{Path: "src/b.go", OldPath: "src/a.go", Status: FileRenamed},
		{Path: "copy.java", OldPath: "template.java", Status: FileCopied},
	}
	if len(changes) != len(want) {
		t.Fatalf("len(changes) = %d, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestParseNameStatusMalformed(t *testing.T) {
	tests := []string{
		"M main.go",      // no tab
		"R100\tonly-one", // rename without destination
	}

	for _, in := range tests {
		if _, err := ParseNameStatus(in); err == nil {
			t.Errorf("ParseNameStatus(%q) expected error", in)
		}
	}
}

func TestParseNameStatusEmpty(t *testing.T) {
	changes, err := ParseNameStatus("")
	if err != nil || len(changes) != 0 {
		t.Errorf("ParseNameStatus(\"\") = %v, %v", changes, err)
	}
}

func TestParseLines(t *testing.T) {
	got := parseLines("a.go\n\n  b.py  \n")
	if len(got) != 2 || got[0] != "a.go" || got[1] != "b.py" {
		t.Errorf("parseLines() = %q", got)
	}
}
