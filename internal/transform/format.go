// Package transform replaces a whole document with a reformatted or
// rewritten version of itself.
package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Kunde21/markdownfmt/v3"
	"github.com/Kunde21/markdownfmt/v3/markdown"
	"github.com/yuin/goldmark"
)

// ErrFormat wraps every formatter backend failure.
var ErrFormat = errors.New("markdown formatting failed")

// Formatter pretty-prints Markdown. Format never fails: on any backend
// error the input comes back unchanged.
type Formatter struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewFormatter creates a Formatter that keeps the author's line breaks
// inside paragraphs. A nil logger discards.
func NewFormatter(logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Formatter{
		md:     markdownfmt.NewGoldmark(markdown.WithSoftWraps()),
		logger: logger,
	}
}

// Format returns the formatted text, or text itself when formatting fails.
func (f *Formatter) Format(ctx context.Context, text string) string {
	out, err := f.TryFormat(ctx, text)
	if err != nil {
		f.logger.Warn("format skipped", "error", err)
		return text
	}
	return out
}

// TryFormat formats text and reports backend failures as ErrFormat.
func (f *Formatter) TryFormat(ctx context.Context, text string) (out string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if marker, line, ok := unterminatedFence(text); ok {
		return "", fmt.Errorf("%w: code fence %q opened on line %d is never closed", ErrFormat, marker, line)
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %v", ErrFormat, r)
		}
	}()

	var buf bytes.Buffer
	if err := f.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return buf.String(), nil
}

// unterminatedFence reports the first fenced code block that is still open
// at the end of text.
func unterminatedFence(text string) (marker string, line int, open bool) {
	for i, l := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(l, " ")
		if len(l)-len(trimmed) > 3 {
			continue
		}
		m := fenceRun(trimmed)
		if m == "" {
			continue
		}
		switch {
		case !open:
			marker, line, open = m, i+1, true
		case m[0] == marker[0] && len(m) >= len(marker) && strings.TrimSpace(trimmed[len(m):]) == "":
			marker, line, open = "", 0, false
		}
	}
	return marker, line, open
}

// fenceRun returns the leading run of three or more backticks or tildes.
func fenceRun(s string) string {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return ""
	}
	n := 0
	for n < len(s) && s[n] == s[0] {
		n++
	}
	if n < 3 {
		return ""
	}
	return s[:n]
}
