package ast

import (
	"strings"

	"github.com/JNZader/codesentry/internal/lang"
)

type commentSyntax struct {
	line       []string
	block      bool // /* ... */
	singleChar bool // '...' delimits strings rather than runes or lifetimes
	backtick   bool
}

func syntaxFor(l lang.Language) commentSyntax {
	switch l {
	case lang.Python, lang.Ruby, lang.Shell:
		return commentSyntax{line: []string{"#"}, singleChar: true}
	case lang.PHP:
		return commentSyntax{line: []string{"//", "#"}, block: true, singleChar: true}
	case lang.JavaScript, lang.TypeScript:
		return commentSyntax{line: []string{"//"}, block: true, singleChar: true, backtick: true}
	case lang.Go:
		return commentSyntax{line: []string{"//"}, block: true, backtick: true}
	case lang.Rust:
		return commentSyntax{line: []string{"//"}, block: true}
	default:
		return commentSyntax{line: []string{"//"}, block: true}
	}
}

// StripLines blanks comments and the contents of string literals so that
// keyword and brace matching does not see them. Quotes are kept, so
// `x = "a{b"` becomes `x = ""`. Line count is preserved.
func StripLines(l lang.Language, lines []string) []string {
	syn := syntaxFor(l)
	out := make([]string, len(lines))

	inBlock := false
	var inQuote rune // multi-line backtick strings carry over

	for i, line := range lines {
		var b strings.Builder
		b.Grow(len(line))
		runes := []rune(line)

	scan:
		for j := 0; j < len(runes); j++ {
			c := runes[j]

			if inBlock {
				if c == '*' && j+1 < len(runes) && runes[j+1] == '/' {
					inBlock = false
					j++
				}
				continue
			}

			if inQuote != 0 {
				switch {
				case c == '\\' && inQuote != '`':
					j++
				case c == inQuote:
					b.WriteRune(c)
					inQuote = 0
				}
				continue
			}

			for _, p := range syn.line {
				if hasRunePrefix(runes[j:], p) {
					break scan
				}
			}
			if syn.block && hasRunePrefix(runes[j:], "/*") {
				inBlock = true
				j++
				continue
			}

			switch {
			case c == '"':
				inQuote = c
			case c == '\'' && syn.singleChar:
				inQuote = c
			case c == '\'' && isRuneLiteral(runes, j):
				b.WriteString("''")
				j = closingQuote(runes, j)
				continue
			case c == '`' && syn.backtick:
				inQuote = c
			}
			b.WriteRune(c)
		}

		// Only backtick strings span lines.
		if inQuote != 0 && inQuote != '`' {
			inQuote = 0
		}
		out[i] = b.String()
	}

	return out
}

// maxRuneLiteral is the longest quoted span read as a rune literal, e.g.
// '\u{1F600}'.
const maxRuneLiteral = 10

func isRuneLiteral(runes []rune, j int) bool {
	end := closingQuote(runes, j)
	return end > j
}

// closingQuote returns the index of the quote closing a rune literal that
// opens at j, or j when there is none within maxRuneLiteral runes.
func closingQuote(runes []rune, j int) int {
	limit := min(len(runes), j+maxRuneLiteral+1)
	for k := j + 1; k < limit; k++ {
		switch runes[k] {
		case '\\':
			k++
		case '\'':
			return k
		}
	}
	return j
}

func hasRunePrefix(runes []rune, prefix string) bool {
	i := 0
	for _, r := range prefix {
		if i >= len(runes) || runes[i] != r {
			return false
		}
		i++
	}
	return true
}
