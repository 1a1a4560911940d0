package ast

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/JNZader/codesentry/internal/lang"
)

// Definition is a function or type-like declaration found by the line
// scanner.
type Definition struct {
	Name      string `json:"name"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Exported  bool   `json:"exported"`
}

// Outline lists the definitions in a file.
type Outline struct {
	Language  lang.Language `json:"language"`
	Functions []Definition  `json:"functions,omitempty"`
	Classes   []Definition  `json:"classes,omitempty"`
}

type blockStyle int

const (
	blockBraces blockStyle = iota
	blockIndent
)

// scanProfile holds the definition patterns for one language. The first
// capture group of every pattern is the name.
type scanProfile struct {
	functions []*regexp.Regexp
	classes   []*regexp.Regexp
	exported  func(name, line string) bool
	blocks    blockStyle
}

func capitalized(name, _ string) bool {
	return name != "" && unicode.IsUpper(rune(name[0]))
}

func keyword(word string) func(name, line string) bool {
	return func(_, line string) bool {
		return strings.Contains(line, word)
	}
}

func notPrivate(name, line string) bool {
	return !strings.HasPrefix(name, "_") && !strings.Contains(line, "private")
}

var (
	jsFunctions = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)`),
		regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(\w+)\s*=\s*(?:async\s+)?(?:\([^)]*\)|\w+)\s*(?::\s*[\w<>\[\]|, ]+)?\s*=>`),
		regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|async|get|set|override|readonly)\s+)*(\w+)\s*\([^)]*\)\s*(?::\s*[\w<>\[\]|, ]+)?\s*\{`),
	}
	jsClasses = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`),
	}
	tsClasses = append([]*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:export\s+)?interface\s+(\w+)`),
	}, jsClasses...)

	// Method declarations shared by the Java-like languages.
	typedMethod = regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|synchronized|override|virtual|async|native|extern|inline|const|unsafe)\s+)*(?:[\w<>\[\],.?*&:]+\s+)+[*&]*(\w+)\s*\(`)
	javaClasses = []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|final|abstract|sealed|partial|data|open)\s+)*(?:class|interface|enum|record|struct)\s+(\w+)`),
	}
)

var profiles = map[lang.Language]scanProfile{
	lang.Go: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(\w+)\s*[\[(]`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*type\s+(\w+)(?:\[[^\]]*\])?\s+(?:struct|interface)\b`)},
		exported:  capitalized,
	},
	lang.JavaScript: {functions: jsFunctions, classes: jsClasses, exported: keyword("export")},
	lang.TypeScript: {functions: jsFunctions, classes: tsClasses, exported: keyword("export")},
	lang.Java:       {functions: []*regexp.Regexp{typedMethod}, classes: javaClasses, exported: keyword("public")},
	lang.CSharp:     {functions: []*regexp.Regexp{typedMethod}, classes: javaClasses, exported: keyword("public")},
	lang.C:          {functions: []*regexp.Regexp{typedMethod}, classes: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:typedef\s+)?(?:struct|union|enum)\s+(\w+)\s*\{`)}, exported: func(_, line string) bool { return !strings.Contains(line, "static") }},
	lang.CPP:        {functions: []*regexp.Regexp{typedMethod}, classes: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:template\s*<[^>]*>\s*)?(?:class|struct|union|enum(?:\s+class)?)\s+(\w+)`)}, exported: func(_, line string) bool { return !strings.Contains(line, "static") }},
	lang.Kotlin: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*fun\s+(?:<[^>]+>\s*)?(?:\w+\.)?(\w+)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*(?:class|interface|object)\s+(\w+)`)},
		exported:  notPrivate,
	},
	lang.Swift: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:[@\w]+\s+)*func\s+(\w+)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*(?:class|struct|protocol|enum|extension)\s+(\w+)`)},
		exported:  notPrivate,
	},
	lang.Scala: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*def\s+(\w+)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*(?:class|trait|object)\s+(\w+)`)},
		exported:  notPrivate,
	},
	lang.PHP: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*function\s+&?(\w+)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*(?:\w+\s+)*(?:class|interface|trait|enum)\s+(\w+)`)},
		exported:  notPrivate,
	},
	lang.Rust: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"\w+"\s+)?fn\s+(\w+)`)},
		classes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait|union)\s+(\w+)`),
			regexp.MustCompile(`^\s*impl(?:<[^>]+>)?\s+(?:[\w:]+(?:<[^>]*>)?\s+for\s+)?(\w+)`),
		},
		exported: keyword("pub"),
	},
	lang.Ruby: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*def\s+(?:self\.)?([\w?!=]+)`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*(?:class|module)\s+([\w:]+)`)},
		exported:  notPrivate,
		blocks:    blockIndent,
	},
	lang.Shell: {
		functions: []*regexp.Regexp{
			regexp.MustCompile(`^\s*function\s+([\w-]+)`),
			regexp.MustCompile(`^\s*([\w-]+)\s*\(\)`),
		},
		exported: func(string, string) bool { return true },
	},
	lang.Python: {
		functions: []*regexp.Regexp{regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`)},
		classes:   []*regexp.Regexp{regexp.MustCompile(`^\s*class\s+(\w+)`)},
		exported:  func(name, _ string) bool { return !strings.HasPrefix(name, "_") },
		blocks:    blockIndent,
	},
}

var genericProfile = scanProfile{
	functions: []*regexp.Regexp{
		regexp.MustCompile(`^\s*(?:func|function|def|fn|sub|proc)\s+(\w+)`),
		typedMethod,
	},
	classes:  []*regexp.Regexp{regexp.MustCompile(`^\s*(?:class|struct|type|interface|module)\s+(\w+)`)},
	exported: func(string, string) bool { return true },
}

// Statements that the method patterns would otherwise read as
// declarations, e.g. `return foo(x)` or `} else if (x) {`.
var statementWords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"return": true, "new": true, "else": true, "throw": true, "await": true,
	"yield": true, "case": true, "delete": true, "do": true, "foreach": true,
	"elif": true, "when": true, "}": true,
}

var notNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "sizeof": true, "typeof": true, "using": true, "lock": true,
	"foreach": true, "return": true,
}

// Scanner finds definitions line by line.
type Scanner struct {
	language lang.Language
	profile  scanProfile
}

// NewScanner returns a scanner for l. Languages without a dedicated profile
// use generic declaration patterns.
func NewScanner(l lang.Language) *Scanner {
	p, ok := profiles[l]
	if !ok {
		p = genericProfile
	}
	return &Scanner{language: l, profile: p}
}

// Scan extracts the outline of code. Lines are expected to have string
// contents and comments already removed (see StripLines).
func (s *Scanner) Scan(lines []string) *Outline {
	out := &Outline{Language: s.language}
	blocks := indexBlocks(lines)

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if name, ok := matchName(s.profile.classes, line); ok {
			out.Classes = append(out.Classes, s.definition(name, line, blocks, i))
			continue
		}
		if name, ok := matchName(s.profile.functions, line); ok {
			out.Functions = append(out.Functions, s.definition(name, line, blocks, i))
		}
	}

	return out
}

func (s *Scanner) definition(name, line string, blocks *blockIndex, idx int) Definition {
	end := blocks.braceEnd(idx)
	if s.profile.blocks == blockIndent {
		end = blocks.indentBlockEnd(idx)
	}
	return Definition{
		Name:      name,
		StartLine: idx + 1,
		EndLine:   end + 1,
		Exported:  s.profile.exported(name, line),
	}
}

func matchName(patterns []*regexp.Regexp, line string) (string, bool) {
	for _, p := range patterns {
		m := p.FindStringSubmatch(line)
		if len(m) < 2 || m[1] == "" || notNames[m[1]] {
			continue
		}
		if first := strings.Fields(line); len(first) > 0 && statementWords[first[0]] {
			continue
		}
		return m[1], true
	}
	return "", false
}
