// Package lang maps file paths to language identifiers and to the level of
// analysis each language supports.
package lang

import (
	"path/filepath"
	"strings"
	"sync"
)

// Language identifies a source language.
type Language string

const (
	Unknown    Language = "unknown"
	Python     Language = "python"
	JavaScript Language = "javascript"
	TypeScript Language = "typescript"
	Go         Language = "go"
	Java       Language = "java"
	Rust       Language = "rust"
	C          Language = "c"
	CPP        Language = "cpp"
	CSharp     Language = "csharp"
	PHP        Language = "php"
	Swift      Language = "swift"
	Kotlin     Language = "kotlin"
	Scala      Language = "scala"
	Ruby       Language = "ruby"
	Shell      Language = "shell"
)

// Tier is the level of analysis available for a language.
type Tier int

const (
	// TierHeuristic languages get line-oriented checks and an approximate
	// structure. Unknown languages land here with the generic profile.
	TierHeuristic Tier = iota
	// TierStructural languages are parsed into a full syntax tree.
	TierStructural
)

func (t Tier) String() string {
	if t == TierStructural {
		return "structural"
	}
	return "heuristic"
}

var defaultExtensions = map[string]Language{
	".py":    Python,
	".pyw":   Python,
	".js":    JavaScript,
	".jsx":   JavaScript,
	".mjs":   JavaScript,
	".cjs":   JavaScript,
	".ts":    TypeScript,
	".tsx":   TypeScript,
	".go":    Go,
	".java":  Java,
	".rs":    Rust,
	".c":     C,
	".h":     C,
	".cpp":   CPP,
	".cc":    CPP,
	".hpp":   CPP,
	".cs":    CSharp,
	".php":   PHP,
	".swift": Swift,
	".kt":    Kotlin,
	".scala": Scala,
	".rb":    Ruby,
	".sh":    Shell,
	".bash":  Shell,
}

// Classifier maps extensions to languages. The zero value is not usable;
// create one with NewClassifier.
type Classifier struct {
	mu   sync.RWMutex
	exts map[string]Language
}

// NewClassifier returns a classifier seeded with the built-in extension table.
func NewClassifier() *Classifier {
	exts := make(map[string]Language, len(defaultExtensions))
	for k, v := range defaultExtensions {
		exts[k] = v
	}
	return &Classifier{exts: exts}
}

// Register maps ext (with or without the leading dot) to language.
func (c *Classifier) Register(ext string, language Language) {
	ext = normalizeExt(ext)
	if ext == "" {
		return
	}
	c.mu.Lock()
	c.exts[ext] = language
	c.mu.Unlock()
}

// Detect returns the language for path, or Unknown.
func (c *Classifier) Detect(path string) Language {
	ext := normalizeExt(filepath.Ext(path))
	if ext == "" {
		return Unknown
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l, ok := c.exts[ext]; ok {
		return l
	}
	return Unknown
}

var defaultClassifier = NewClassifier()

// Detect classifies path using the built-in extension table.
func Detect(path string) Language {
	return defaultClassifier.Detect(path)
}

// TierOf returns the analysis tier for l.
func TierOf(l Language) Tier {
	if l == Python {
		return TierStructural
	}
	return TierHeuristic
}

// CommentPrefixes returns the line-comment markers used to count comment
// lines in l. Block-comment continuation lines ("*") are included for the
// C family.
func CommentPrefixes(l Language) []string {
	switch l {
	case Python, Ruby, Shell:
		return []string{"#"}
	case PHP:
		return []string{"//", "#", "/*", "*"}
	case Unknown:
		return []string{"#", "//", "/*", "*", "--", ";"}
	default:
		return []string{"//", "/*", "*"}
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
