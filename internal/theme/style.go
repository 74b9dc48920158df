package theme

// Style is the per-element presentation derived from a Descriptor.
// Renderers read it; they never branch on theme identifiers themselves.
type Style struct {
	// Headings holds the classes for h1..h4 (index 0 is h1).
	Headings [4]string

	InlineCode   string
	TableWrapper string
	Table        string
	TableHead    string
	TableCell    string
	Strong       string

	// StrongColor is the inline color for strong text, empty to inherit.
	StrongColor string

	CodeBlock       string
	CodeBlockHeader string
	CodeLanguage    string
	CodeBody        string
	CopyButton      string

	CodeBackground string
	CodeText       string
	HeaderColor    string
	BorderColor    string
	WindowControls bool

	// SyntaxStyle and SyntaxPrefix select the chroma palette and the class
	// prefix that scopes it to this theme.
	SyntaxStyle  string
	SyntaxPrefix string
}

// Heading classes shared by every category for h1 and h2.
const (
	h1Class = "md-h1"
	h2Class = "md-h2"
)

// headingsByCategory is the lookup table for h3/h4 decoration.
var headingsByCategory = map[Category][2]string{
	Decorated: {"md-h3 md-accent-bar", "md-h4 md-accent-bar-thin"},
	Minimal:   {"md-h3", "md-h4 md-underline-dotted"},
}

// StyleFor returns the element styling for d. It is a pure function of d.
func StyleFor(d Descriptor) Style {
	sub, ok := headingsByCategory[d.Category]
	if !ok {
		sub = headingsByCategory[Decorated]
	}

	return Style{
		Headings:        [4]string{h1Class, h2Class, sub[0], sub[1]},
		InlineCode:      "md-code-inline",
		TableWrapper:    "md-table-wrap",
		Table:           "md-table",
		TableHead:       "md-th",
		TableCell:       "md-td",
		Strong:          "md-strong",
		StrongColor:     d.BoldColor,
		CodeBlock:       "code-block",
		CodeBlockHeader: "code-block-header",
		CodeLanguage:    "code-lang",
		CodeBody:        "code-body",
		CopyButton:      "copy-button export-hidden",
		CodeBackground:  d.CodeBlockBackground,
		CodeText:        d.CodeBlockTextColor,
		HeaderColor:     d.WindowHeaderColor,
		BorderColor:     d.WindowBorderColor,
		WindowControls:  d.ShowWindowControls,
		SyntaxStyle:     d.SyntaxStyle,
		SyntaxPrefix:    SyntaxPrefix(d),
	}
}

// SyntaxPrefix is the highlight class prefix for d, so several chroma
// palettes can share one stylesheet.
func SyntaxPrefix(d Descriptor) string {
	return "hl-" + d.ID + "-"
}
