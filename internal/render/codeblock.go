package render

import (
	"strconv"

	"github.com/google/uuid"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/util"

	"github.com/matnoble/mdeditor/internal/theme"
)

// blockIDAttr carries the render-scoped identifier from the AST walk to the
// code-block wrapper.
const blockIDAttr = "data-block-id"

// defaultLanguageLabel is shown when a fence declares no language.
const defaultLanguageLabel = "text"

// CodeBlock describes one fenced code block of a render pass.
type CodeBlock struct {
	// ID is unique within a render pass only. It wires the copy button to
	// the block and carries no meaning across renders.
	ID       string
	Language string
	Code     string
}

// idSource hands out identifiers of the form cb-<prefix>-<n>.
type idSource struct {
	prefix string
	n      int
}

func newIDSource() *idSource {
	return &idSource{prefix: uuid.NewString()[:8]}
}

func (s *idSource) next() string {
	s.n++
	return "cb-" + s.prefix + "-" + strconv.Itoa(s.n)
}

// chromeWrapper returns the highlighting wrapper that draws the window frame,
// language label and copy button around each fenced code block.
func chromeWrapper(style theme.Style) highlighting.WrapperRenderer {
	return func(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
		if !entering {
			if !ctx.Highlighted() {
				_, _ = w.WriteString("</code></pre>")
			}
			_, _ = w.WriteString("</div>\n</div>\n")
			return
		}

		var id []byte
		if attrs := ctx.Attributes(); attrs != nil {
			if v, ok := attrs.GetString(blockIDAttr); ok {
				id = util.EscapeHTML(attrBytes(v))
			}
		}
		label := []byte(defaultLanguageLabel)
		if lang, ok := ctx.Language(); ok && len(lang) > 0 {
			label = util.EscapeHTML(lang)
		}

		_, _ = w.WriteString(`<div class="` + style.CodeBlock + `" data-block-id="`)
		_, _ = w.Write(id)
		_, _ = w.WriteString(`" style="background-color:` + style.CodeBackground +
			`;border-color:` + style.BorderColor + `">` + "\n")

		_, _ = w.WriteString(`<div class="` + style.CodeBlockHeader +
			`" style="background-color:` + style.HeaderColor + `">`)
		if style.WindowControls {
			_, _ = w.WriteString(`<span class="window-controls" aria-hidden="true">` +
				`<span class="dot dot-red"></span><span class="dot dot-yellow"></span>` +
				`<span class="dot dot-green"></span></span>`)
		}
		_, _ = w.WriteString(`<span class="` + style.CodeLanguage + `">`)
		_, _ = w.Write(label)
		_, _ = w.WriteString(`</span>`)
		_, _ = w.WriteString(`<button type="button" class="` + style.CopyButton + `" data-copy-target="`)
		_, _ = w.Write(id)
		_, _ = w.WriteString(`" aria-label="Copy code">Copy</button></div>` + "\n")

		_, _ = w.WriteString(`<div class="` + style.CodeBody + `" style="color:` + style.CodeText + `">`)
		if !ctx.Highlighted() {
			_, _ = w.WriteString(`<pre><code class="language-`)
			_, _ = w.Write(label)
			_, _ = w.WriteString(`">`)
		}
	}
}
