package render

import (
	"regexp"
	"strings"
)

var listItem = regexp.MustCompile(`^ {0,3}([-*+]|\d+[.)])[ \t]`)

// ReplaceMath calls fn for every $...$ (inline) and $$...$$ (display) span
// of src and substitutes its result. Code spans, fenced and indented code
// blocks and escaped dollars (\$) are left untouched. Unterminated spans
// stay as text.
func ReplaceMath(src string, fn func(tex string, display bool) string) string {
	var out strings.Builder
	out.Grow(len(src))

	blocks := indentedCodeBlocks(src)
	for i := 0; i < len(src); {
		for len(blocks) > 0 && blocks[0][1] <= i {
			blocks = blocks[1:]
		}

		switch {
		case len(blocks) > 0 && i >= blocks[0][0]:
			out.WriteString(src[i:blocks[0][1]])
			i = blocks[0][1]

		case src[i] == '\\' && i+1 < len(src) && src[i+1] == '$':
			out.WriteString(`\$`)
			i += 2

		case src[i] == '`':
			run := countRun(src[i:], '`')
			fence := src[i : i+run]
			end := strings.Index(src[i+run:], fence)
			if end < 0 {
				out.WriteString(fence)
				i += run
				continue
			}
			stop := i + run + end + run
			out.WriteString(src[i:stop])
			i = stop

		case strings.HasPrefix(src[i:], "$$"):
			end := strings.Index(src[i+2:], "$$")
			if end < 0 || strings.TrimSpace(src[i+2:i+2+end]) == "" {
				out.WriteString("$$")
				i += 2
				continue
			}
			out.WriteString(fn(strings.TrimSpace(src[i+2:i+2+end]), true))
			i += 2 + end + 2

		case src[i] == '$':
			end := inlineEnd(src[i+1:])
			if end < 0 {
				out.WriteByte('$')
				i++
				continue
			}
			out.WriteString(fn(src[i+1:i+1+end], false))
			i += 1 + end + 1

		default:
			out.WriteByte(src[i])
			i++
		}
	}
	return out.String()
}

// indentedCodeBlocks returns the [start, end) byte ranges of indented code
// blocks: lines indented by four spaces or a tab that follow a blank line
// outside a list.
func indentedCodeBlocks(src string) [][2]int {
	var blocks [][2]int
	prevBlank, inList := true, false
	open := -1

	for pos := 0; pos < len(src); {
		lineEnd := len(src)
		if n := strings.IndexByte(src[pos:], '\n'); n >= 0 {
			lineEnd = pos + n + 1
		}
		line := strings.TrimRight(src[pos:lineEnd], "\r\n")
		blank := strings.TrimSpace(line) == ""
		indented := strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")

		if open >= 0 {
			if blank || indented {
				prevBlank = blank
				pos = lineEnd
				continue
			}
			blocks = append(blocks, [2]int{open, pos})
			open = -1
		}

		switch {
		case blank:
		case indented && prevBlank && !inList:
			open = pos
		case listItem.MatchString(line):
			inList = true
		case !indented:
			inList = false
		}
		prevBlank = blank
		pos = lineEnd
	}
	if open >= 0 {
		blocks = append(blocks, [2]int{open, len(src)})
	}
	return blocks
}

// inlineEnd finds the closing dollar of an inline span on the same line.
// The content must not start or end with a space.
func inlineEnd(s string) int {
	if s == "" || s[0] == ' ' || s[0] == '$' || s[0] == '\n' {
		return -1
	}
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '\n':
			return -1
		case '\\':
			j++
		case '$':
			if s[j-1] == ' ' {
				return -1
			}
			return j
		}
	}
	return -1
}

func countRun(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
