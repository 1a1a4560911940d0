package ast

import "strings"

// blockIndex resolves the block ends of a whole file in one pass, so
// looking up a block is constant time however many definitions and
// constructs open on the way and whether or not their braces close.
type blockIndex struct {
	lines []string
	// firstOpen holds, per line, the id of the first '{' on it or -1.
	firstOpen []int
	// closeLine holds, per '{' id, the line of its matching '}'. Braces
	// that never close end on the last line.
	closeLine []int
	// indentEnd holds, per line, the last following line indented deeper
	// than it.
	indentEnd []int
}

func indexBlocks(lines []string) *blockIndex {
	bi := &blockIndex{
		lines:     lines,
		firstOpen: make([]int, len(lines)),
		indentEnd: make([]int, len(lines)),
	}
	last := len(lines) - 1

	var open []int
	for i, line := range lines {
		bi.firstOpen[i] = -1
		for j := 0; j < len(line); j++ {
			switch line[j] {
			case '{':
				id := len(bi.closeLine)
				bi.closeLine = append(bi.closeLine, last)
				if bi.firstOpen[i] < 0 {
					bi.firstOpen[i] = id
				}
				open = append(open, id)
			case '}':
				if n := len(open); n > 0 {
					bi.closeLine[open[n-1]] = i
					open = open[:n-1]
				}
			}
		}
	}

	// Lines wait on the stack until a line at their indentation or less
	// shows up; their block ends at the last non-blank line before it.
	type pending struct{ line, indent int }
	var stack []pending
	prev := -1
	for i, line := range lines {
		bi.indentEnd[i] = i
		if strings.TrimSpace(line) == "" {
			continue
		}
		d := indentation(line)
		for n := len(stack); n > 0 && stack[n-1].indent >= d; n = len(stack) {
			bi.indentEnd[stack[n-1].line] = prev
			stack = stack[:n-1]
		}
		stack = append(stack, pending{line: i, indent: d})
		prev = i
	}
	for _, p := range stack {
		bi.indentEnd[p.line] = prev
	}

	return bi
}

// braceEnd returns the index of the line closing the brace block that
// opens on lines[idx], or on the next line for Allman-style braces.
// Closing braces before the first '{' on the line (`} else {`) belong to
// the previous block. Without an opening brace the block is the single
// line.
func (bi *blockIndex) braceEnd(idx int) int {
	id := bi.firstOpen[idx]
	if id < 0 {
		next := idx + 1
		if next >= len(bi.lines) || !strings.HasPrefix(strings.TrimSpace(bi.lines[next]), "{") {
			return idx
		}
		id = bi.firstOpen[next]
	}
	return bi.closeLine[id]
}

// indentBlockEnd returns the last line indented deeper than lines[idx].
func (bi *blockIndex) indentBlockEnd(idx int) int {
	return bi.indentEnd[idx]
}

func indentation(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
