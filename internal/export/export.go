// Package export assembles the rendered preview and every active stylesheet
// into one self-contained HTML document and delivers it.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"

	"github.com/matnoble/mdeditor/internal/theme"
)

// Sentinel errors for export operations.
var (
	ErrTemplate = errors.New("export template invalid")
	ErrAssemble = errors.New("export assembly failed")
	ErrDeliver  = errors.New("export delivery failed")
)

// PrintContainerID identifies the element whose content is exported.
const PrintContainerID = "print-container"

// Rules appended after every inlined stylesheet.
const (
	hiddenRule = ".export-hidden { display: none !important; }"
	preRule    = "pre { white-space: pre-wrap; word-wrap: break-word; }"
)

// Stylesheets are the inlined sources needed for visual fidelity.
type Stylesheets struct {
	Base  string // utility and layout rules
	Math  string // math notation
	Theme string // theme palettes and code highlighting
}

// Input is everything an export captures.
type Input struct {
	Markup    string
	Theme     theme.Descriptor
	CustomCSS string // included only for the custom theme
	Styles    Stylesheets

	// TypesetMath loads MathJax in the document. Set it for markup whose
	// math is still TeX source, i.e. not captured from a typeset page.
	TypesetMath bool
}

// Document is an assembled export.
type Document struct {
	Title    string
	Filename string
	HTML     []byte
}

// ContentType is the MIME type of every Document.
const ContentType = "text/html; charset=utf-8"

// Assembler wraps captured markup in the document shell template.
type Assembler struct {
	tmpl *template.Template
}

type shellData struct {
	Title     string
	Style     template.CSS
	BodyClass string
	Prose     string
	Content   template.HTML
	MathJax   string
}

// MathJaxURL is the script loaded by documents with TypesetMath set.
const MathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-chtml.js"

// NewAssembler parses the document shell template.
func NewAssembler(shell string) (*Assembler, error) {
	tmpl, err := template.New("export").Parse(shell)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &Assembler{tmpl: tmpl}, nil
}

// Assemble produces the standalone document for in.
func (a *Assembler) Assemble(in Input) (Document, error) {
	title := Title(in.Markup)

	data := shellData{
		Title: title,
		// #nosec G203 -- stylesheet text is sanitized against </style> break-out
		Style:     template.CSS(StyleBlock(in)),
		BodyClass: strings.TrimSpace(in.Theme.ClassName + " " + in.Theme.FontFamily),
		Prose:     in.Theme.ProseClass,
		// #nosec G203 -- markup is the renderer's own escaped output
		Content: template.HTML(in.Markup),
	}
	if in.TypesetMath {
		data.MathJax = MathJaxURL
	}

	var buf bytes.Buffer
	if err := a.tmpl.Execute(&buf, data); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrAssemble, err)
	}

	return Document{
		Title:    title,
		Filename: FilenameFor(in.Markup),
		HTML:     buf.Bytes(),
	}, nil
}

// StyleBlock concatenates the stylesheets in their fixed order: base, math,
// theme, then the custom stylesheet when the custom theme is active, followed
// by the export-only rules.
func StyleBlock(in Input) string {
	parts := []string{in.Styles.Base, in.Styles.Math, in.Styles.Theme}
	if in.Theme.IsCustom() {
		parts = append(parts, in.CustomCSS)
	}
	parts = append(parts, hiddenRule, preRule)

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(sanitizeCSS(p))
		b.WriteByte('\n')
	}
	return b.String()
}

// sanitizeCSS escapes sequences that could close the <style> element early.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// Capture returns the inner markup of the print container. It reports false
// when the container is absent, in which case there is nothing to export.
func Capture(doc *html.Node) (string, bool) {
	container := findByID(doc, PrintContainerID)
	if container == nil {
		return "", false
	}

	var buf bytes.Buffer
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", false
		}
	}
	return buf.String(), true
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
