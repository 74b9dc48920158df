package render

import (
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/matnoble/mdeditor/internal/theme"
)

// decorate walks the parsed document once and attaches theme classes to the
// nodes whose stock goldmark renderers already emit class and style
// attributes. Fenced code blocks receive their render-scoped identifier.
func decorate(doc ast.Node, source []byte, style theme.Style, ids *idSource) []CodeBlock {
	var blocks []CodeBlock

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			if n.Level >= 1 && n.Level <= len(style.Headings) {
				n.SetAttributeString("class", style.Headings[n.Level-1])
			}
		case *ast.CodeSpan:
			n.SetAttributeString("class", style.InlineCode)
		case *ast.Emphasis:
			if n.Level == 2 {
				n.SetAttributeString("class", style.Strong)
				if style.StrongColor != "" {
					n.SetAttributeString("style", "color:"+style.StrongColor)
				}
			}
		case *east.Table:
			n.SetAttributeString("class", style.Table)
		case *east.TableCell:
			class := style.TableCell
			if _, ok := n.Parent().(*east.TableHeader); ok {
				class = style.TableHead
			}
			n.SetAttributeString("class", class)
		case *ast.FencedCodeBlock:
			block := CodeBlock{
				ID:       ids.next(),
				Language: string(n.Language(source)),
				Code:     string(n.Lines().Value(source)),
			}
			n.SetAttributeString(blockIDAttr, block.ID)
			blocks = append(blocks, block)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return blocks
}

// tableWrapRenderer encloses tables in a horizontally scrollable container.
// Header, row and cell markup stay with the GFM table renderer.
type tableWrapRenderer struct {
	wrapperClass string
}

func (r *tableWrapRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(east.KindTable, r.renderTable)
}

func (r *tableWrapRenderer) renderTable(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<div class="` + r.wrapperClass + `">` + "\n<table")
		if class, ok := node.AttributeString("class"); ok {
			_, _ = w.WriteString(` class="`)
			_, _ = w.Write(util.EscapeHTML(attrBytes(class)))
			_ = w.WriteByte('"')
		}
		_, _ = w.WriteString(">\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString("</table>\n</div>\n")
	return ast.WalkContinue, nil
}

func attrBytes(v any) []byte {
	switch typed := v.(type) {
	case []byte:
		return typed
	case string:
		return []byte(typed)
	}
	return nil
}
