package mdeditor

import (
	"log/slog"
	"time"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/llm"
	"github.com/matnoble/mdeditor/internal/render"
	"github.com/matnoble/mdeditor/internal/transform"
)

// Option configures an Editor.
type Option func(*Editor)

// editorConfig holds settings resolved during New.
type editorConfig struct {
	assetPath string
	aiTimeout time.Duration
	aiModel   string
	provider  llm.Provider
}

// WithText sets the initial document.
func WithText(text string) Option {
	return func(e *Editor) { e.text = text }
}

// WithTheme sets the initial theme. Unknown identifiers fall back to the
// first registered theme.
func WithTheme(id string) Option {
	return func(e *Editor) { e.themeID = id }
}

// WithCustomCSS sets the initial custom stylesheet.
func WithCustomCSS(css string) Option {
	return func(e *Editor) { e.customCSS = css }
}

// WithRenderer replaces the Markdown renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(e *Editor) { e.renderer = r }
}

// WithFormatter replaces the deterministic formatter.
func WithFormatter(f *transform.Formatter) Option {
	return func(e *Editor) { e.formatter = f }
}

// WithProvider enables AI rewrites through p. A nil provider leaves AI
// features disabled.
func WithProvider(p llm.Provider) Option {
	return func(e *Editor) { e.cfg.provider = p }
}

// WithAIModel overrides the provider's default model.
func WithAIModel(model string) Option {
	return func(e *Editor) { e.cfg.aiModel = model }
}

// WithAITimeout bounds each AI request.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithAITimeout(d time.Duration) Option {
	if d <= 0 {
		panic("mdeditor: WithAITimeout duration must be positive")
	}
	return func(e *Editor) { e.cfg.aiTimeout = d }
}

// WithNotifier receives every user-visible notice.
func WithNotifier(n Notifier) Option {
	return func(e *Editor) { e.notifier = n }
}

// WithLogger sets the logger for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) { e.logger = l }
}

// WithAssetLoader loads stylesheets and templates through loader.
func WithAssetLoader(loader assets.AssetLoader) Option {
	return func(e *Editor) { e.loader = loader }
}

// WithAssetPath overlays a directory of stylesheets and templates on the
// embedded assets.
func WithAssetPath(path string) Option {
	return func(e *Editor) { e.cfg.assetPath = path }
}
