// Package theme holds the static catalog of preview themes and the pure
// lookup table that turns a theme into per-element class and color choices.
package theme

// Category groups themes by how much decoration their headings carry.
type Category string

const (
	// Decorated themes draw accent bars next to h3/h4 headings.
	Decorated Category = "decorated"
	// Minimal themes suppress accent bars and underline h4 instead.
	Minimal Category = "minimal"
)

// Identifiers of the built-in themes.
const (
	DefaultID     = "default"
	GitHubLightID = "github-light"
	AcademicID    = "academic"
	DraculaID     = "dracula"
	SolarizedID   = "solarized"
	CyberpunkID   = "cyberpunk"
	CustomID      = "custom"
)

// Font family classes understood by the base stylesheet.
const (
	FontSans  = "font-sans"
	FontSerif = "font-serif"
	FontMono  = "font-mono"
)

// Descriptor is an immutable styling record selected by identifier.
type Descriptor struct {
	ID         string
	Name       string
	ClassName  string // container background and text color
	ProseClass string // typography overrides applied to the print container
	FontFamily string
	Category   Category

	CodeBlockBackground string
	CodeBlockTextColor  string
	WindowHeaderColor   string
	WindowBorderColor   string
	ShowWindowControls  bool

	// BoldColor overrides the color of strong text. Empty inherits.
	BoldColor string

	// SyntaxStyle names the chroma style used for code highlighting.
	SyntaxStyle string
}

// IsCustom reports whether the descriptor is the user-styled variant.
func (d Descriptor) IsCustom() bool {
	return d.ID == CustomID
}

// registry is ordered; the first entry is the fallback theme.
var registry = []Descriptor{
	{
		ID:                  DefaultID,
		Name:                "Classic White",
		ClassName:           "theme-default",
		ProseClass:          "prose-default",
		FontFamily:          FontSans,
		Category:            Decorated,
		CodeBlockBackground: "#1e1e1e",
		CodeBlockTextColor:  "#e4e4e7",
		WindowHeaderColor:   "#2d2d2d",
		WindowBorderColor:   "rgba(0,0,0,0.1)",
		ShowWindowControls:  true,
		BoldColor:           "#2563eb",
		SyntaxStyle:         "github",
	},
	{
		ID:                  GitHubLightID,
		Name:                "GitHub",
		ClassName:           "theme-github-light",
		ProseClass:          "prose-github-light",
		FontFamily:          FontSans,
		Category:            Decorated,
		CodeBlockBackground: "#f6f8fa",
		CodeBlockTextColor:  "#24292f",
		WindowHeaderColor:   "#f6f8fa",
		WindowBorderColor:   "#d0d7de",
		ShowWindowControls:  true,
		BoldColor:           "#2563eb",
		SyntaxStyle:         "github",
	},
	{
		ID:                  AcademicID,
		Name:                "Academic Paper",
		ClassName:           "theme-academic",
		ProseClass:          "prose-academic",
		FontFamily:          FontSerif,
		Category:            Minimal,
		CodeBlockBackground: "#f5f5f5",
		CodeBlockTextColor:  "#333",
		WindowHeaderColor:   "#e5e5e5",
		WindowBorderColor:   "#ccc",
		ShowWindowControls:  false,
		BoldColor:           "#2563eb",
		SyntaxStyle:         "friendly",
	},
	{
		ID:                  DraculaID,
		Name:                "Dracula",
		ClassName:           "theme-dracula",
		ProseClass:          "prose-dracula",
		FontFamily:          FontSans,
		Category:            Decorated,
		CodeBlockBackground: "#44475a",
		CodeBlockTextColor:  "#f8f8f2",
		WindowHeaderColor:   "#6272a4",
		WindowBorderColor:   "#6272a4",
		ShowWindowControls:  true,
		BoldColor:           "#ff79c6",
		SyntaxStyle:         "dracula",
	},
	{
		ID:                  SolarizedID,
		Name:                "Solarized",
		ClassName:           "theme-solarized",
		ProseClass:          "prose-solarized",
		FontFamily:          FontSans,
		Category:            Decorated,
		CodeBlockBackground: "#eee8d5",
		CodeBlockTextColor:  "#586e75",
		WindowHeaderColor:   "#e0d8c0",
		WindowBorderColor:   "#d6ceb8",
		ShowWindowControls:  true,
		BoldColor:           "#2563eb",
		SyntaxStyle:         "solarized-light",
	},
	{
		ID:                  CyberpunkID,
		Name:                "Cyberpunk",
		ClassName:           "theme-cyberpunk",
		ProseClass:          "prose-cyberpunk",
		FontFamily:          FontMono,
		Category:            Minimal,
		CodeBlockBackground: "#1a1a1a",
		CodeBlockTextColor:  "#00ff41",
		WindowHeaderColor:   "#333",
		WindowBorderColor:   "#00ff41",
		ShowWindowControls:  false,
		BoldColor:           "#ffff00",
		SyntaxStyle:         "monokai",
	},
	{
		// Visual rules come from the user's stylesheet.
		ID:                  CustomID,
		Name:                "Custom CSS",
		ClassName:           "theme-custom",
		ProseClass:          "prose-custom",
		FontFamily:          FontSans,
		Category:            Decorated,
		CodeBlockBackground: "#1e1e1e",
		CodeBlockTextColor:  "#e4e4e7",
		WindowHeaderColor:   "#2d2d2d",
		WindowBorderColor:   "rgba(0,0,0,0.1)",
		ShowWindowControls:  true,
		SyntaxStyle:         "monokai",
	},
}

// All returns a copy of the registry in display order.
func All() []Descriptor {
	out := make([]Descriptor, len(registry))
	copy(out, registry)
	return out
}

// IDs returns the registered identifiers in display order.
func IDs() []string {
	ids := make([]string, len(registry))
	for i, d := range registry {
		ids[i] = d.ID
	}
	return ids
}

// Exists reports whether id names a registered theme.
func Exists(id string) bool {
	_, ok := find(id)
	return ok
}

// Lookup resolves id to its descriptor.
// Unknown identifiers resolve to the first registered theme.
func Lookup(id string) Descriptor {
	if d, ok := find(id); ok {
		return d
	}
	return registry[0]
}

// Default returns the fallback theme.
func Default() Descriptor {
	return registry[0]
}

func find(id string) (Descriptor, bool) {
	for _, d := range registry {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
