// Package page keeps the server-side DOM of the live editor page: the
// preview subtree, the theme classes and the managed custom style node.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/matnoble/mdeditor/internal/export"
	"github.com/matnoble/mdeditor/internal/styleinject"
	"github.com/matnoble/mdeditor/internal/theme"
)

// Sentinel errors for page operations.
var (
	ErrTemplate = errors.New("page template invalid")
	ErrParse    = errors.New("page markup invalid")
)

// Element IDs the page relies on.
const (
	PreviewID     = "preview"
	ThemeSelectID = "theme-select"
)

// Input is the state a page is built from.
type Input struct {
	Title     string
	Styles    export.Stylesheets
	Theme     theme.Descriptor
	Text      string
	Preview   string
	CustomCSS string
}

type option struct {
	ID     string
	Name   string
	Active bool
}

type shellData struct {
	Title      string
	Base       template.CSS
	Math       template.CSS
	Themes     template.CSS
	Options    []option
	CustomCSS  string
	Text       string
	ThemeClass string
	FontFamily string
	ProseClass string
	Preview    template.HTML
}

// Shell is the parsed page template.
type Shell struct {
	tmpl *template.Template
}

// NewShell parses the editor page template.
func NewShell(src string) (*Shell, error) {
	tmpl, err := template.New("editor").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}
	return &Shell{tmpl: tmpl}, nil
}

// Page is a mutable document. Methods are safe for concurrent use.
type Page struct {
	mu  sync.Mutex
	doc *html.Node
}

// Build executes the shell for in and parses the result into a Page. The
// custom style node is placed by styleinject, never by the template.
func (s *Shell) Build(in Input) (*Page, error) {
	options := make([]option, 0, len(theme.All()))
	for _, d := range theme.All() {
		options = append(options, option{ID: d.ID, Name: d.Name, Active: d.ID == in.Theme.ID})
	}

	data := shellData{
		Title: in.Title,
		// #nosec G203 -- stylesheets are sanitized against </style> break-out
		Base: template.CSS(sanitizeCSS(in.Styles.Base)),
		// #nosec G203 -- see above
		Math: template.CSS(sanitizeCSS(in.Styles.Math)),
		// #nosec G203 -- see above
		Themes:     template.CSS(sanitizeCSS(in.Styles.Theme)),
		Options:    options,
		CustomCSS:  in.CustomCSS,
		Text:       in.Text,
		ThemeClass: in.Theme.ClassName,
		FontFamily: in.Theme.FontFamily,
		ProseClass: in.Theme.ProseClass,
		// #nosec G203 -- preview markup is the renderer's own escaped output
		Preview: template.HTML(in.Preview),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplate, err)
	}

	p, err := Parse(&buf)
	if err != nil {
		return nil, err
	}
	p.ApplyCustomStyle(in.Theme.ID, in.CustomCSS)
	return p, nil
}

// Parse reads a full HTML document, such as a page snapshot posted by the
// browser.
func Parse(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Page{doc: doc}, nil
}

// SetPreview replaces the print container's content with markup.
func (p *Page) SetPreview(markup string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	container := findByID(p.doc, export.PrintContainerID)
	if container == nil {
		return fmt.Errorf("%w: #%s missing", ErrParse, export.PrintContainerID)
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), container)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}

	for c := container.FirstChild; c != nil; {
		next := c.NextSibling
		container.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return nil
}

// SetTheme restyles the preview pane and print container for d.
func (p *Page) SetTheme(d theme.Descriptor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := findByID(p.doc, PreviewID); n != nil {
		setAttr(n, "class", strings.TrimSpace(d.ClassName+" "+d.FontFamily))
	}
	if n := findByID(p.doc, export.PrintContainerID); n != nil {
		setAttr(n, "class", d.ProseClass)
	}
	if sel := findByID(p.doc, ThemeSelectID); sel != nil {
		for c := sel.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != "option" {
				continue
			}
			removeAttr(c, "selected")
			if attr(c, "value") == d.ID {
				c.Attr = append(c.Attr, html.Attribute{Key: "selected"})
			}
		}
	}
}

// ApplyCustomStyle enforces the custom style node for themeID and reports
// what changed.
func (p *Page) ApplyCustomStyle(themeID, css string) styleinject.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return styleinject.Apply(p.doc, themeID, css)
}

// Capture returns the print container's inner markup.
func (p *Page) Capture() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return export.Capture(p.doc)
}

// WriteTo serializes the page. Managed style text is escaped against
// </style> break-out on the way out; the DOM keeps it byte-for-byte.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	type saved struct {
		n    *html.Node
		text string
	}
	var restore []saved
	for _, n := range styleinject.Find(p.doc) {
		if t := n.FirstChild; t != nil && t.Type == html.TextNode {
			restore = append(restore, saved{t, t.Data})
			t.Data = sanitizeCSS(t.Data)
		}
	}
	defer func() {
		for _, s := range restore {
			s.n.Data = s.text
		}
	}()

	cw := &countingWriter{w: w}
	err := html.Render(cw, p.doc)
	return cw.n, err
}

// String renders the page, for tests and logging.
func (p *Page) String() string {
	var b strings.Builder
	_, _ = p.WriteTo(&b)
	return b.String()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
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

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			kept = append(kept, a)
		}
	}
	n.Attr = kept
}
