// Package mdeditor is a Markdown editor with a live, themed preview.
//
// An Editor owns the document text, the active theme, an optional custom
// stylesheet and the flags of the text transforms that may be running:
//
//	ed, err := mdeditor.New(
//		mdeditor.WithText("# Notes\n\nEuler: $e^{i\\pi} + 1 = 0$"),
//		mdeditor.WithTheme("dracula"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	res, err := ed.Preview(ctx)
//
// Rendering understands GitHub-flavored Markdown, ==highlight== marks and
// TeX math delimited by $...$ or $$...$$. Fenced code blocks are highlighted
// with a palette matching the theme and carry a copy control.
//
// Exports capture the print container of the live page and inline every
// active stylesheet, so the resulting HTML file renders identically without
// network access to the editor:
//
//	doc, err := ed.ExportCurrent(ctx)
//	_, err = export.FileDeliverer{Dir: "."}.Deliver(ctx, doc)
//
// Format pretty-prints the Markdown locally. Polish and Typeset send the
// document to a language model configured with WithProvider; without one
// they fail with ErrMissingAPIKey. Only one transform runs at a time, and a
// result is discarded with ErrStale when the document changed meanwhile.
package mdeditor
