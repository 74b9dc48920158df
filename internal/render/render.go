// Package render turns Markdown into themed preview markup.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/matnoble/mdeditor/internal/theme"
)

// ErrRender indicates Markdown conversion failed.
var ErrRender = errors.New("markdown rendering failed")

// Result is the output of one render pass.
type Result struct {
	ThemeID string
	HTML    string
	Blocks  []CodeBlock
}

// Block returns the code block with the given identifier.
func (r Result) Block(id string) (CodeBlock, bool) {
	for _, b := range r.Blocks {
		if b.ID == id {
			return b, true
		}
	}
	return CodeBlock{}, false
}

// Renderer converts Markdown to themed HTML. The last (text, theme) pair is
// memoized, so a repeated identical call returns the same Result, including
// its code block identifiers. Safe for concurrent use.
type Renderer struct {
	mu   sync.Mutex
	last *memo
}

type memo struct {
	text    string
	themeID string
	result  Result
}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts text using the theme identified by themeID. Unknown
// identifiers render with the first registered theme.
// Goldmark has no context support, so conversion runs in a goroutine and
// Render returns early on cancellation.
func (r *Renderer) Render(ctx context.Context, text, themeID string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	desc := theme.Lookup(themeID)
	if res, ok := r.cached(text, desc.ID); ok {
		return res, nil
	}

	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := convert(text, desc)
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return Result{}, o.err
		}
		r.store(text, desc.ID, o.res)
		return clone(o.res), nil
	}
}

func (r *Renderer) cached(text, themeID string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last == nil || r.last.text != text || r.last.themeID != themeID {
		return Result{}, false
	}
	return clone(r.last.result), true
}

func (r *Renderer) store(text, themeID string, res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.last = &memo{text: text, themeID: themeID, result: res}
}

func clone(res Result) Result {
	res.Blocks = slices.Clone(res.Blocks)
	return res
}

func convert(text string, desc theme.Descriptor) (res Result, err error) {
	// A panicking extension must not take the editor down with it.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrRender, p)
		}
	}()

	style := theme.StyleFor(desc)
	md := newMarkdown(style)

	source := []byte(preprocess(text))
	doc := md.Parser().Parse(gtext.NewReader(source))
	blocks := decorate(doc, source, style, newIDSource())

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRender, err)
	}

	return Result{
		ThemeID: desc.ID,
		HTML:    finishMarks(buf.String()),
		Blocks:  blocks,
	}, nil
}

func newMarkdown(style theme.Style) goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,      // tables, strikethrough, autolinks, task lists
			extension.Footnote, // [^1] footnotes
			highlighting.NewHighlighting(
				highlighting.WithStyle(style.SyntaxStyle),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.ClassPrefix(style.SyntaxPrefix),
				),
				highlighting.WithWrapperRenderer(chromeWrapper(style)),
			),
			mathSyntax,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(
				util.Prioritized(&tableWrapRenderer{wrapperClass: style.TableWrapper}, 100),
			),
		),
	)
}
