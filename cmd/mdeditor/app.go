package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/config"
	"github.com/matnoble/mdeditor/internal/hints"
	"github.com/matnoble/mdeditor/internal/llm"
	"github.com/matnoble/mdeditor/internal/pdf"
	"github.com/matnoble/mdeditor/internal/render"
	"github.com/matnoble/mdeditor/internal/theme"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage              = errors.New("invalid usage")
	ErrNoInput            = errors.New("no input specified")
	ErrReadMarkdown       = errors.New("failed to read markdown file")
	ErrWriteOutput        = errors.New("failed to write output")
	ErrUnknownTheme       = errors.New("unknown theme")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// loadConfig resolves the config file (flag, then MDEDITOR_CONFIG) and
// layers environment overrides on top.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			return nil, err
		}
	}
	applyEnvConfig(env, cfg)
	return cfg, nil
}

// mergeEditorFlags applies theme and asset flags over cfg.
func mergeEditorFlags(f editorFlags, cfg *config.Config) error {
	if f.theme != "" {
		if !theme.Exists(f.theme) {
			return fmt.Errorf("%w: %q", ErrUnknownTheme, f.theme)
		}
		cfg.Editor.Theme = f.theme
	}
	if f.customCSS != "" {
		cfg.Editor.CustomCSS = f.customCSS
	}
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	return nil
}

// mergePageFlags applies page layout flags over cfg.
func mergePageFlags(f pageFlags, cfg *config.Config) {
	if f.size != "" {
		cfg.Export.PDF.Size = f.size
	}
	if f.orientation != "" {
		cfg.Export.PDF.Orientation = f.orientation
	}
	if f.margin != marginUnset {
		cfg.Export.PDF.Margin = f.margin
	}
}

// mergeAIFlags applies AI flags over cfg.
func mergeAIFlags(f aiFlags, cfg *config.Config) {
	if f.provider != "" {
		cfg.AI.Provider = f.provider
	}
	if f.model != "" {
		cfg.AI.Model = f.model
	}
	if f.timeout != "" {
		cfg.AI.Timeout = f.timeout
	}
}

// resolveWorkers picks the flag value, then MDEDITOR_WORKERS, then auto.
func resolveWorkers(flagWorkers int, env *envConfig) (int, error) {
	if err := validateWorkers(flagWorkers); err != nil {
		return 0, err
	}
	if flagWorkers == 0 {
		flagWorkers = env.Workers
	}
	return pdf.ResolvePoolSize(flagWorkers), nil
}

// validateWorkers rejects negative or oversized worker counts.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0)", ErrInvalidWorkerCount, n)
	}
	if n > pdf.MaxPoolSize {
		return fmt.Errorf("%w: %d (max %d)", ErrInvalidWorkerCount, n, pdf.MaxPoolSize)
	}
	return nil
}

// newLogger builds the structured logger shared by every component.
func newLogger(w io.Writer, f commonFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case f.quiet:
		level = slog.LevelError
	case f.verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveProvider builds the AI provider named by cfg. A missing key is not
// fatal: the editor runs with AI features disabled.
func resolveProvider(ctx context.Context, env *Environment, cfg *config.Config, logger *slog.Logger) (llm.Provider, error) {
	p, err := env.NewProvider(ctx, llm.Settings{
		Provider: cfg.AI.Provider,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	})
	if errors.Is(err, llm.ErrMissingAPIKey) {
		logger.Debug("AI features disabled", "reason", err)
		return nil, nil
	}
	return p, err
}

// editorOptions translates cfg into Editor options.
func editorOptions(cfg *config.Config, env *Environment, logger *slog.Logger, r *render.Renderer) []mdeditor.Option {
	opts := []mdeditor.Option{
		mdeditor.WithTheme(cfg.Editor.Theme),
		mdeditor.WithAITimeout(cfg.AITimeout()),
		mdeditor.WithAIModel(cfg.AI.Model),
		mdeditor.WithLogger(logger),
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdeditor.WithAssetPath(cfg.Assets.BasePath))
	} else if env.AssetLoader != nil {
		opts = append(opts, mdeditor.WithAssetLoader(env.AssetLoader))
	}
	if r != nil {
		opts = append(opts, mdeditor.WithRenderer(r))
	}
	return opts
}

// hintFor returns an actionable hint for err, or "".
func hintFor(err error, provider string) string {
	switch {
	case errors.Is(err, pdf.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mdeditor.ErrMissingAPIKey):
		return hints.ForMissingAPIKey(provider)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(userConfigPaths())
	case errors.Is(err, ErrUnknownTheme):
		return hints.ForThemeNotFound(theme.IDs())
	case errors.Is(err, ErrWriteOutput):
		return hints.ForOutputDirectory()
	case errors.Is(err, syscall.EADDRINUSE):
		return hints.ForAddressInUse()
	}
	return ""
}

// userConfigPaths lists where a default config would be found.
func userConfigPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "mdeditor", "config.yaml")}
}

// elapsed formats a duration for verbose output.
func elapsed(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
