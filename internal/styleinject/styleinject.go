// Package styleinject owns the single managed <style> element that carries
// the user's stylesheet while the custom theme is active.
package styleinject

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matnoble/mdeditor/internal/theme"
)

// NodeID is the id attribute of the managed style element.
const NodeID = "custom-theme-styles"

// Change reports what Apply did to the document.
type Change int

const (
	None Change = iota
	Created
	Updated
	Removed
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Removed:
		return "removed"
	default:
		return "none"
	}
}

// Wanted reports whether the managed node must exist for themeID.
func Wanted(themeID string) bool {
	return theme.Lookup(themeID).IsCustom()
}

// Apply enforces the managed-node invariant on doc: under the custom theme
// exactly one managed node exists in <head> and its text equals css byte for
// byte; under any other theme none exists. Repeated calls with the same
// inputs return None and leave doc untouched.
func Apply(doc *html.Node, themeID, css string) Change {
	nodes := Find(doc)

	if !Wanted(themeID) {
		for _, n := range nodes {
			n.Parent.RemoveChild(n)
		}
		if len(nodes) > 0 {
			return Removed
		}
		return None
	}

	if len(nodes) == 0 {
		head := findHead(doc)
		if head == nil {
			return None
		}
		head.AppendChild(newStyleNode(css))
		return Created
	}

	change := None
	// Collapse duplicates inserted by anything else.
	for _, extra := range nodes[1:] {
		extra.Parent.RemoveChild(extra)
		change = Updated
	}

	keep := nodes[0]
	if Text(keep) != css {
		setText(keep, css)
		change = Updated
	}
	return change
}

// Find returns every managed node in document order.
func Find(doc *html.Node) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Style && attr(n, "id") == NodeID {
			found = append(found, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// Text returns the concatenated text content of a style node.
func Text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func newStyleNode(css string) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Style,
		Data:     "style",
		Attr:     []html.Attribute{{Key: "id", Val: NodeID}},
	}
	setText(n, css)
	return n
}

func setText(n *html.Node, css string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: css})
}

func findHead(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Head {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if h := findHead(c); h != nil {
			return h
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
