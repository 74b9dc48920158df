package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// marginUnset detects if --margin was explicitly set, since 0 is a valid margin.
const marginUnset = -1.0

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// editorFlags select the initial document appearance.
type editorFlags struct {
	theme     string
	customCSS string
	assetPath string
}

// pageFlags holds PDF page layout flags.
type pageFlags struct {
	size        string
	orientation string
	margin      float64
}

// aiFlags select the hosted model used by polish and typeset.
type aiFlags struct {
	provider string
	model    string
	timeout  string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	editor    editorFlags
	page      pageFlags
	ai        aiFlags
	addr      string
	seed      string
	origins   []string
	clipboard bool
	noPDF     bool
	workers   int
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common    commonFlags
	editor    editorFlags
	page      pageFlags
	output    string
	workers   int
	pdf       bool
	noClobber bool
}

// transformFlags holds flags for format, polish and typeset.
type transformFlags struct {
	common commonFlags
	ai     aiFlags
	write  bool
	output string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed logs and timing")
}

// addEditorFlags adds theme and asset flags to a FlagSet.
func addEditorFlags(fs *flag.FlagSet, f *editorFlags) {
	fs.StringVarP(&f.theme, "theme", "t", "", "theme ID (see 'mdeditor themes')")
	fs.StringVar(&f.customCSS, "custom-css", "", "stylesheet for the custom theme")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", marginUnset, "page margin in inches (0-3)")
}

// addAIFlags adds AI provider flags to a FlagSet.
func addAIFlags(fs *flag.FlagSet, f *aiFlags) {
	fs.StringVar(&f.provider, "ai-provider", "", "AI provider: gemini, openai")
	fs.StringVar(&f.model, "ai-model", "", "AI model (provider default when empty)")
	fs.StringVar(&f.timeout, "ai-timeout", "", "AI request timeout (e.g., 60s, 2m)")
}

// newFlagSet creates a FlagSet that reports to w and prints usage on -h.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parse runs fs.Parse and marks failures as usage errors. flag.ErrHelp is
// returned unwrapped.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

// parseServeFlags parses serve command flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (host:port)")
	fs.StringVarP(&f.seed, "seed", "s", "", "initial document: embedded, URL or file")
	fs.StringSliceVar(&f.origins, "allow-origin", nil, "extra allowed browser origin (repeatable)")
	fs.BoolVar(&f.clipboard, "clipboard", false, "mirror copied code to the system clipboard")
	fs.BoolVar(&f.noPDF, "no-pdf", false, "disable PDF export")
	fs.IntVarP(&f.workers, "workers", "w", 0, "PDF browsers (0 = auto)")

	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)
	addPageFlags(fs, &f.page)
	addAIFlags(fs, &f.ai)

	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, fs.Args())
	}
	return f, nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, w io.Writer) (*exportFlags, []string, error) {
	f := &exportFlags{}
	fs := newFlagSet("export", w, printExportUsage)

	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.BoolVar(&f.pdf, "pdf", false, "also print each document to PDF")
	fs.BoolVar(&f.noClobber, "no-clobber", false, "keep existing files, add a numeric suffix")

	addCommonFlags(fs, &f.common)
	addEditorFlags(fs, &f.editor)
	addPageFlags(fs, &f.page)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseTransformFlags parses format, polish and typeset flags.
func parseTransformFlags(name string, args []string, w io.Writer) (*transformFlags, []string, error) {
	f := &transformFlags{}
	fs := newFlagSet(name, w, func(w io.Writer) { printTransformUsage(w, name) })

	fs.BoolVarP(&f.write, "write", "w", false, "write the result back to the input file")
	fs.StringVarP(&f.output, "output", "o", "", "write the result to this file")

	addCommonFlags(fs, &f.common)
	addAIFlags(fs, &f.ai)

	if err := parse(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses the config command flags.
func parseConfigFlags(args []string, w io.Writer) (*commonFlags, error) {
	f := &commonFlags{}
	fs := newFlagSet("config", w, printConfigUsage)
	addCommonFlags(fs, f)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return f, nil
}
