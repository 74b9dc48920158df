package assets

import (
	"fmt"
	"strings"
)

// AssetLoader defines the contract for loading stylesheets and templates.
type AssetLoader interface {
	// LoadStyle loads a stylesheet by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadTemplate loads an HTML template by name (without .html extension).
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(name string) (string, error)
}

// Names of the bundled stylesheets, in export order.
const (
	StyleBase   = "base"
	StyleMath   = "math"
	StyleThemes = "themes"
)

// Names of the bundled templates.
const (
	TemplateEditor = "editor"
	TemplateExport = "export"
)

// ValidateAssetName rejects empty names and names containing path
// separators or dots, which could escape the asset directory or swap the
// extension.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// Stylesheets loads the three inlined stylesheets through loader.
func Stylesheets(loader AssetLoader) (base, math, themes string, err error) {
	if base, err = loader.LoadStyle(StyleBase); err != nil {
		return "", "", "", err
	}
	if math, err = loader.LoadStyle(StyleMath); err != nil {
		return "", "", "", err
	}
	if themes, err = loader.LoadStyle(StyleThemes); err != nil {
		return "", "", "", err
	}
	return base, math, themes, nil
}
