package render

import (
	"regexp"
	"strings"
)

// Highlight placeholders use Unicode Private Use Area characters so they
// pass through goldmark untouched without enabling raw HTML.
const (
	markStart = "\uE000"
	markEnd   = "\uE001"
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==([^=\n]+?)==`)
)

// preprocess normalizes line endings, then, outside fenced code, caps
// blank-line runs at one empty line and swaps ==text== for placeholder
// markers everywhere but inside code spans. Fenced code passes through
// byte for byte.
func preprocess(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")

	var (
		b     strings.Builder
		fence string
		run   int // trailing newlines already written outside fences
	)
	b.Grow(len(content))
	for _, line := range strings.SplitAfter(content, "\n") {
		if marker := fenceMarker(strings.TrimLeft(line, " ")); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case strings.HasPrefix(marker, fence):
				fence = ""
			}
			b.WriteString(line)
			run = trailingNewline(line)
			continue
		}
		if fence != "" {
			b.WriteString(line)
			run = 0
			continue
		}
		if line == "\n" {
			if run >= 2 {
				continue
			}
			b.WriteString(line)
			run++
			continue
		}
		b.WriteString(convertHighlights(line))
		run = trailingNewline(line)
	}
	return b.String()
}

func trailingNewline(line string) int {
	if strings.HasSuffix(line, "\n") {
		return 1
	}
	return 0
}

// convertHighlights marks ==text== in one line, skipping code spans.
func convertHighlights(line string) string {
	if !strings.Contains(line, "==") {
		return line
	}
	if !strings.Contains(line, "`") {
		return highlightPattern.ReplaceAllString(line, markStart+"$1"+markEnd)
	}

	var b strings.Builder
	for line != "" {
		open := strings.IndexByte(line, '`')
		if open < 0 {
			b.WriteString(highlightPattern.ReplaceAllString(line, markStart+"$1"+markEnd))
			break
		}
		b.WriteString(highlightPattern.ReplaceAllString(line[:open], markStart+"$1"+markEnd))
		line = line[open:]

		ticks := backtickRun(line)
		end := closingRun(line[len(ticks):], len(ticks))
		if end < 0 {
			// An unmatched run is literal text.
			b.WriteString(ticks)
			line = line[len(ticks):]
			continue
		}
		span := len(ticks) + end + len(ticks)
		b.WriteString(line[:span])
		line = line[span:]
	}
	return b.String()
}

func backtickRun(s string) string {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return s[:n]
}

// closingRun returns the offset in s of a backtick run of exactly n, or -1.
func closingRun(s string, n int) int {
	for i := 0; i < len(s); {
		if s[i] != '`' {
			i++
			continue
		}
		run := len(backtickRun(s[i:]))
		if run == n {
			return i
		}
		i += run
	}
	return -1
}

// fenceMarker returns the backtick or tilde run that opens a fence line.
func fenceMarker(line string) string {
	if len(line) < 3 || (line[0] != '`' && line[0] != '~') {
		return ""
	}
	n := 0
	for n < len(line) && line[n] == line[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return line[:n]
}

// finishMarks turns placeholder markers into <mark> tags after rendering.
func finishMarks(html string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(html, markStart, "<mark>"),
		markEnd, "</mark>",
	)
}
