package mdeditor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/export"
	"github.com/matnoble/mdeditor/internal/page"
	"github.com/matnoble/mdeditor/internal/render"
	"github.com/matnoble/mdeditor/internal/theme"
	"github.com/matnoble/mdeditor/internal/transform"
)

// State is a snapshot of the editor.
type State struct {
	Text      string
	ThemeID   string
	CustomCSS string
	Flags     Flags
	Version   uint64
}

// Editor owns the document, the active theme, the custom stylesheet and the
// transform flags. Methods are safe for concurrent use.
type Editor struct {
	mu        sync.Mutex
	text      string
	themeID   string
	customCSS string
	flags     Flags
	version   uint64

	cfg       editorConfig
	loader    assets.AssetLoader
	renderer  *render.Renderer
	formatter *transform.Formatter
	rewriter  *transform.Rewriter
	assembler *export.Assembler
	shell     *page.Shell
	styles    export.Stylesheets
	notifier  Notifier
	logger    *slog.Logger
	listeners listeners
}

// New creates an Editor. Returns an error if assets fail to load.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		themeID: theme.Default().ID,
		cfg:     editorConfig{aiTimeout: transform.DefaultTimeout},
		loader:  assets.NewEmbeddedLoader(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.themeID = theme.Lookup(e.themeID).ID

	if e.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(e.cfg.assetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
		}
		e.loader = resolver
	}
	if e.renderer == nil {
		e.renderer = render.New()
	}
	if e.formatter == nil {
		e.formatter = transform.NewFormatter(e.logger)
	}
	e.rewriter = transform.NewRewriter(e.cfg.provider,
		transform.WithModel(e.cfg.aiModel),
		transform.WithTimeout(e.cfg.aiTimeout),
	)

	if err := e.loadAssets(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Editor) loadAssets() error {
	base, math, themes, err := assets.Stylesheets(e.loader)
	if err != nil {
		return fmt.Errorf("loading stylesheets: %w", err)
	}
	highlight, err := render.HighlightCSS()
	if err != nil {
		return err
	}
	e.styles = export.Stylesheets{Base: base, Math: math, Theme: themes + "\n" + highlight}

	exportShell, err := e.loader.LoadTemplate(assets.TemplateExport)
	if err != nil {
		return fmt.Errorf("loading export template: %w", err)
	}
	if e.assembler, err = export.NewAssembler(exportShell); err != nil {
		return err
	}

	editorShell, err := e.loader.LoadTemplate(assets.TemplateEditor)
	if err != nil {
		return fmt.Errorf("loading editor template: %w", err)
	}
	if e.shell, err = page.NewShell(editorShell); err != nil {
		return err
	}
	return nil
}

// State returns a snapshot.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Editor) stateLocked() State {
	return State{
		Text:      e.text,
		ThemeID:   e.themeID,
		CustomCSS: e.customCSS,
		Flags:     e.flags,
		Version:   e.version,
	}
}

// Theme returns the active theme.
func (e *Editor) Theme() theme.Descriptor {
	return theme.Lookup(e.State().ThemeID)
}

// Stylesheets returns the inlined stylesheets used by pages and exports.
func (e *Editor) Stylesheets() export.Stylesheets {
	return e.styles
}

// AIAvailable reports whether polish and typeset can run.
func (e *Editor) AIAvailable() bool {
	return e.rewriter.Available()
}

// Subscribe registers fn for every subsequent event and returns a function
// that removes it. fn runs on the goroutine that made the change and must
// not block.
func (e *Editor) Subscribe(fn func(Event)) (cancel func()) {
	return e.listeners.add(fn)
}

// SetText replaces the document.
func (e *Editor) SetText(text string) {
	e.SetTextFrom("", text)
}

// SetTextFrom replaces the document on behalf of origin, which is echoed
// in the resulting event so the sender can skip it.
func (e *Editor) SetTextFrom(origin, text string) {
	e.mu.Lock()
	if e.text == text {
		e.mu.Unlock()
		return
	}
	e.text = text
	e.version++
	st := e.stateLocked()
	e.mu.Unlock()

	e.listeners.emit(Event{Kind: EventText, State: st, Origin: origin})
}

// SetTheme activates the theme identified by id and returns it. Unknown
// identifiers activate the first registered theme.
func (e *Editor) SetTheme(id string) theme.Descriptor {
	d := theme.Lookup(id)

	e.mu.Lock()
	if e.themeID == d.ID {
		e.mu.Unlock()
		return d
	}
	e.themeID = d.ID
	st := e.stateLocked()
	e.mu.Unlock()

	e.listeners.emit(Event{Kind: EventTheme, State: st})
	return d
}

// SetCustomCSS replaces the custom stylesheet wholesale.
func (e *Editor) SetCustomCSS(css string) {
	e.mu.Lock()
	if e.customCSS == css {
		e.mu.Unlock()
		return
	}
	e.customCSS = css
	st := e.stateLocked()
	e.mu.Unlock()

	e.listeners.emit(Event{Kind: EventCustomCSS, State: st})
}

// Preview renders the current document with the active theme.
func (e *Editor) Preview(ctx context.Context) (render.Result, error) {
	st := e.State()
	return e.renderer.Render(ctx, st.Text, st.ThemeID)
}

// Page builds the live editor page for the current state.
func (e *Editor) Page(ctx context.Context) (*page.Page, error) {
	st := e.State()
	res, err := e.renderer.Render(ctx, st.Text, st.ThemeID)
	if err != nil {
		return nil, err
	}
	return e.shell.Build(page.Input{
		Title:     "MatNoble Editor",
		Styles:    e.styles,
		Theme:     theme.Lookup(st.ThemeID),
		Text:      st.Text,
		Preview:   res.HTML,
		CustomCSS: st.CustomCSS,
	})
}

// Export assembles print-container markup captured from a browser page with
// the active theme and stylesheets. Its math is already typeset.
func (e *Editor) Export(markup string) (export.Document, error) {
	return e.assemble(markup, false)
}

func (e *Editor) assemble(markup string, typesetMath bool) (export.Document, error) {
	st := e.State()
	return e.assembler.Assemble(export.Input{
		Markup:      markup,
		Theme:       theme.Lookup(st.ThemeID),
		CustomCSS:   st.CustomCSS,
		Styles:      e.styles,
		TypesetMath: typesetMath,
	})
}

// ExportPage captures p's print container and assembles it. It returns
// ErrNoContainer when the container is absent.
func (e *Editor) ExportPage(p *page.Page) (export.Document, error) {
	markup, ok := p.Capture()
	if !ok {
		return export.Document{}, ErrNoContainer
	}
	return e.Export(markup)
}

// ExportCurrent renders the current state into a page and exports it. The
// document loads MathJax to typeset its math when opened.
func (e *Editor) ExportCurrent(ctx context.Context) (export.Document, error) {
	p, err := e.Page(ctx)
	if err != nil {
		return export.Document{}, err
	}
	markup, ok := p.Capture()
	if !ok {
		return export.Document{}, ErrNoContainer
	}
	return e.assemble(markup, true)
}

// Format pretty-prints the document. Formatter failures leave the text
// unchanged.
func (e *Editor) Format(ctx context.Context) error {
	return e.run(ctx, OpFormat, func(ctx context.Context, text string) (string, error) {
		return e.formatter.Format(ctx, text), nil
	})
}

// Polish rewrites the document for grammar and flow.
func (e *Editor) Polish(ctx context.Context) error {
	return e.rewrite(ctx, OpPolish, transform.Polish)
}

// Typeset fixes spacing and punctuation without changing wording.
func (e *Editor) Typeset(ctx context.Context) error {
	return e.rewrite(ctx, OpTypeset, transform.Typeset)
}

// Run dispatches op by name.
func (e *Editor) Run(ctx context.Context, op Operation) error {
	switch op {
	case OpFormat:
		return e.Format(ctx)
	case OpPolish:
		return e.Polish(ctx)
	case OpTypeset:
		return e.Typeset(ctx)
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func (e *Editor) rewrite(ctx context.Context, op Operation, mode transform.Mode) error {
	if !e.rewriter.Available() {
		e.notify(Notice{Level: LevelError, Message: "Set GEMINI_API_KEY (or OPENAI_API_KEY) to use AI features."})
		return ErrMissingAPIKey
	}
	return e.run(ctx, op, func(ctx context.Context, text string) (string, error) {
		return e.rewriter.Rewrite(ctx, mode, text)
	})
}

// run executes fn with op's flag raised. The result replaces the document
// only if no other change landed while fn ran.
func (e *Editor) run(ctx context.Context, op Operation, fn func(context.Context, string) (string, error)) error {
	e.mu.Lock()
	if e.flags.Busy() {
		e.mu.Unlock()
		e.notify(Notice{Level: LevelInfo, Message: "Another operation is still running."})
		return ErrBusy
	}
	e.flags.set(op, true)
	text, version := e.text, e.version
	st := e.stateLocked()
	e.mu.Unlock()
	e.listeners.emit(Event{Kind: EventFlags, State: st})

	out, err := fn(ctx, text)

	e.mu.Lock()
	e.flags.set(op, false)
	changed := false
	if err == nil && out != text {
		if e.version != version {
			err = ErrStale
		} else {
			e.text = out
			e.version++
			changed = true
		}
	}
	st = e.stateLocked()
	e.mu.Unlock()

	e.listeners.emit(Event{Kind: EventFlags, State: st})
	if changed {
		e.listeners.emit(Event{Kind: EventText, State: st})
		e.logger.Info("document transformed", "operation", op, "change", transform.Summarize(text, out).String())
	}
	if err != nil {
		e.logger.Warn("operation failed", "operation", op, "error", err)
		e.notify(failureNotice(op, err))
	}
	return err
}

func failureNotice(op Operation, err error) Notice {
	switch {
	case errors.Is(err, ErrStale):
		return Notice{Level: LevelInfo, Message: fmt.Sprintf("The document changed while %s was running; its result was discarded.", op)}
	case errors.Is(err, context.DeadlineExceeded):
		return Notice{Level: LevelError, Message: fmt.Sprintf("%s timed out. Try again later.", capitalize(string(op)))}
	default:
		return Notice{Level: LevelError, Message: fmt.Sprintf("%s failed. Check your network and try again.", capitalize(string(op)))}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (e *Editor) notify(n Notice) {
	if e.notifier != nil {
		e.notifier.Notify(n)
	}
	e.listeners.emit(Event{Kind: EventNotice, State: e.State(), Notice: n})
}
