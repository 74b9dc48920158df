package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matnoble/mdeditor/internal/theme"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	idStyle      = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	defaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// runThemes lists the theme catalog.
func runThemes(args []string, w io.Writer) error {
	if len(args) > 0 {
		if args[0] == "-h" || args[0] == "--help" {
			printThemesUsage(w)
			return nil
		}
		return fmt.Errorf("%w: themes takes no arguments", ErrUsage)
	}
	printThemes(w, theme.All())
	return nil
}

// printThemes writes one aligned row per theme.
func printThemes(w io.Writer, themes []theme.Descriptor) {
	idWidth, nameWidth := len("ID"), len("NAME")
	for _, d := range themes {
		idWidth = max(idWidth, len(d.ID))
		nameWidth = max(nameWidth, len(d.Name))
	}
	col := func(s string, width int) string {
		return s + strings.Repeat(" ", width-len(s)+2)
	}

	fmt.Fprintln(w, headerStyle.Render(col("ID", idWidth)+col("NAME", nameWidth)+col("CATEGORY", len("decorated"))+"SYNTAX"))
	for i, d := range themes {
		line := idStyle.Render(col(d.ID, idWidth)) +
			col(d.Name, nameWidth) +
			mutedStyle.Render(col(string(d.Category), len("decorated"))) +
			syntaxLabel(d)
		if i == 0 {
			line += " " + defaultStyle.Render("(default)")
		}
		fmt.Fprintln(w, line)
	}
}

func syntaxLabel(d theme.Descriptor) string {
	if d.SyntaxStyle == "" {
		return "-"
	}
	return d.SyntaxStyle
}
