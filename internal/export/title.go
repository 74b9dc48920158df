package export

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fallbacks used when the markup has no usable heading.
const (
	DefaultTitle    = "MatNoble Editor Export"
	DefaultFileStem = "matnoble-editor-export"
)

// Extension is appended to every derived filename.
const Extension = ".html"

var headingAtoms = map[atom.Atom]bool{
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// FirstHeading returns the text content of the first h1-h6 element in
// document order.
func FirstHeading(markup string) (string, bool) {
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	})
	if err != nil {
		return "", false
	}

	for _, n := range nodes {
		if h := findHeading(n); h != nil {
			return textContent(h), true
		}
	}
	return "", false
}

func findHeading(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && headingAtoms[n.DataAtom] {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := findHeading(c); h != nil {
			return h
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Title derives the document title from the first heading.
func Title(markup string) string {
	if h, ok := FirstHeading(markup); ok {
		if h = strings.TrimSpace(h); h != "" {
			return h
		}
	}
	return DefaultTitle
}

// FileStem turns a title into a filesystem-safe name without extension:
// characters illegal in filenames are dropped, whitespace runs become a
// single hyphen and edges are trimmed.
func FileStem(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`<>:"/\|?*`, r) {
			return -1
		}
		return r
	}, title)

	stem := strings.Join(strings.Fields(cleaned), "-")
	stem = strings.Trim(stem, "-.")
	if stem == "" {
		return DefaultFileStem
	}
	return stem
}

// Filename is FileStem(title) with the .html extension.
func Filename(title string) string {
	return FileStem(title) + Extension
}

// FilenameFor derives the download name from the markup's first heading,
// falling back to DefaultFileStem when there is none.
func FilenameFor(markup string) string {
	if h, ok := FirstHeading(markup); ok && strings.TrimSpace(h) != "" {
		return Filename(h)
	}
	return DefaultFileStem + Extension
}
