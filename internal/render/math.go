package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Math expressions are emitted with \( \) and \[ \] delimiters for the
// client-side typesetter. Expressions that fail validation become inert
// math-error nodes and never abort the surrounding render.

var (
	errEmptyMath      = errors.New("empty expression")
	errUnbalanced     = errors.New("unbalanced braces")
	errTrailingEscape = errors.New("dangling backslash")
	errLeftRight      = errors.New(`unmatched \left or \right`)
	errEnvironment    = errors.New(`unmatched \begin or \end`)
)

var mathFence = []byte("$$")

// KindMathInline and KindMathBlock identify the math AST nodes.
var (
	KindMathInline = ast.NewNodeKind("MathInline")
	KindMathBlock  = ast.NewNodeKind("MathBlock")
)

// MathInline is a $...$ or single-line $$...$$ span.
type MathInline struct {
	ast.BaseInline
	Segment text.Segment
	Display bool
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Display": fmt.Sprint(n.Display),
	}, nil)
}

// MathBlock is a display expression fenced by $$ lines.
type MathBlock struct {
	ast.BaseBlock
	closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type mathExtension struct{}

// mathSyntax adds $ and $$ math to a goldmark instance.
var mathSyntax goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&mathBlockParser{}, 150)),
		parser.WithInlineParsers(util.Prioritized(&mathInlineParser{}, 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&mathRenderer{}, 150)),
	)
}

type mathBlockParser struct{}

func (p *mathBlockParser) Trigger() []byte { return []byte{'$'} }

func (p *mathBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], mathFence) {
		return nil, parser.NoChildren
	}

	node := &MathBlock{}
	rest := util.TrimRightSpace(line[pos+len(mathFence):])
	if len(rest) > 0 {
		// Whole-line $$...$$ only; anything else is paragraph text.
		if len(rest) < len(mathFence) || !bytes.HasSuffix(rest, mathFence) {
			return nil, parser.NoChildren
		}
		start := segment.Start + pos + len(mathFence)
		node.Lines().Append(text.NewSegment(start, start+len(rest)-len(mathFence)))
		node.closed = true
	}

	advanceLine(reader, line, segment)
	return node, parser.NoChildren
}

func (p *mathBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}

	line, segment := reader.PeekLine()
	if bytes.Equal(util.TrimRightSpace(util.TrimLeftSpace(line)), mathFence) {
		n.closed = true
		advanceLine(reader, line, segment)
		return parser.Close
	}

	n.Lines().Append(segment)
	advanceLine(reader, line, segment)
	return parser.Continue | parser.NoChildren
}

func (p *mathBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *mathBlockParser) CanInterruptParagraph() bool { return true }

func (p *mathBlockParser) CanAcceptIndentedLine() bool { return false }

// advanceLine consumes the line but leaves its newline to the block loop.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	newline := 0
	if len(line) > 0 && line[len(line)-1] == '\n' {
		newline = 1
	}
	reader.Advance(segment.Len() - newline)
}

type mathInlineParser struct{}

func (p *mathInlineParser) Trigger() []byte { return []byte{'$'} }

func (p *mathInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()

	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	body := line[delim:]
	closer := bytes.Index(body, line[:delim])
	if closer < 0 {
		return nil
	}
	content := body[:closer]

	if delim == 1 {
		// "$5 and $6" is currency, not math.
		if len(content) == 0 || isSpace(content[0]) || isSpace(content[len(content)-1]) {
			return nil
		}
		if after := closer + 1; after < len(body) && body[after] >= '0' && body[after] <= '9' {
			return nil
		}
	}

	start := segment.Start + delim
	node := &MathInline{
		Segment: text.NewSegment(start, start+len(content)),
		Display: delim == 2,
	}
	block.Advance(delim + closer + delim)
	return node
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

type mathRenderer struct{}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *mathRenderer) renderInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathInline)
	value := n.Segment.Value(source)

	delim := "$"
	open, close, class := `\(`, `\)`, "math math-inline"
	if n.Display {
		delim = "$$"
		open, close, class = `\[`, `\]`, "math math-display"
	}

	if err := validateMath(value); err != nil {
		writeMathError(w, delim, value, err)
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<span class="` + class + `">` + open)
	html.DefaultWriter.RawWrite(w, value)
	_, _ = w.WriteString(close + `</span>`)
	return ast.WalkSkipChildren, nil
}

func (r *mathRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathBlock)

	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	value := bytes.TrimSpace(buf.Bytes())

	err := validateMath(value)
	if err == nil && !n.closed {
		err = errors.New("unterminated $$ block")
	}
	if err != nil {
		_, _ = w.WriteString(`<pre class="math-error-block">`)
		writeMathError(w, "$$", value, err)
		_, _ = w.WriteString("</pre>\n")
		return ast.WalkSkipChildren, nil
	}

	_, _ = w.WriteString(`<div class="math math-display">\[`)
	html.DefaultWriter.RawWrite(w, value)
	_, _ = w.WriteString("\\]</div>\n")
	return ast.WalkSkipChildren, nil
}

func writeMathError(w util.BufWriter, delim string, value []byte, err error) {
	_, _ = w.WriteString(`<code class="math-error" title="`)
	_, _ = w.Write(util.EscapeHTML([]byte(err.Error())))
	_, _ = w.WriteString(`">` + delim)
	html.DefaultWriter.RawWrite(w, value)
	_, _ = w.WriteString(delim + `</code>`)
}

// validateMath performs the structural checks the client typesetter would
// otherwise reject. It does not interpret TeX.
func validateMath(expr []byte) error {
	if len(bytes.TrimSpace(expr)) == 0 {
		return errEmptyMath
	}

	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '\\':
			if i == len(expr)-1 {
				return errTrailingEscape
			}
			i++ // skip escaped character, including \{ and \}
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return errUnbalanced
			}
		}
	}
	if depth != 0 {
		return errUnbalanced
	}

	if countCommand(expr, `\left`) != countCommand(expr, `\right`) {
		return errLeftRight
	}
	if countCommand(expr, `\begin{`) != countCommand(expr, `\end{`) {
		return errEnvironment
	}
	return nil
}

// countCommand counts occurrences of cmd not followed by a letter, so
// \left does not match \leftarrow.
func countCommand(expr []byte, cmd string) int {
	count := 0
	for rest := expr; ; {
		idx := bytes.Index(rest, []byte(cmd))
		if idx < 0 {
			return count
		}
		next := idx + len(cmd)
		if cmd[len(cmd)-1] == '{' || next >= len(rest) || !isLetter(rest[next]) {
			count++
		}
		rest = rest[next:]
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
