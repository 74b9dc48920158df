package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/matnoble/mdeditor/internal/theme"
)

// HighlightCSS returns the code highlighting rules of every theme, each
// scoped by its own class prefix.
func HighlightCSS() (string, error) {
	var buf bytes.Buffer
	for _, d := range theme.All() {
		f := chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.ClassPrefix(theme.SyntaxPrefix(d)),
		)
		fmt.Fprintf(&buf, "/* %s: %s */\n", d.ID, d.SyntaxStyle)
		if err := f.WriteCSS(&buf, styles.Get(d.SyntaxStyle)); err != nil {
			return "", fmt.Errorf("%w: highlight css for %s: %v", ErrRender, d.ID, err)
		}
	}
	return buf.String(), nil
}
