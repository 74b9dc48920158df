package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/matnoble/mdeditor"
	"github.com/matnoble/mdeditor/internal/config"
	"github.com/matnoble/mdeditor/internal/copyfeedback"
	"github.com/matnoble/mdeditor/internal/pdf"
	"github.com/matnoble/mdeditor/internal/seed"
	"github.com/matnoble/mdeditor/internal/server"
)

var urlStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

// runServe starts the editor server and blocks until ctx ends.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := mergeServeFlags(f, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.common)

	customCSS, err := cfg.LoadCustomCSS()
	if err != nil {
		return err
	}
	provider, err := resolveProvider(ctx, env, cfg, logger)
	if err != nil {
		return err
	}

	loader := seed.Loader{Logger: logger}
	opts := append(editorOptions(cfg, env, logger, nil),
		mdeditor.WithText(loader.Load(ctx, cfg.Editor.Seed)),
		mdeditor.WithCustomCSS(customCSS),
		mdeditor.WithProvider(provider),
	)
	ed, err := mdeditor.New(opts...)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Addr:           cfg.ListenAddr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Verbose:        f.common.verbose,
		Clipboard:      copyfeedback.NewClipboard(cfg.Clipboard.System),
	}
	if !f.noPDF {
		workers, err := resolveWorkers(f.workers, envCfg)
		if err != nil {
			return err
		}
		pool, err := pdf.NewPool(workers, cfg.PDFSettings())
		if err != nil {
			return err
		}
		defer func() {
			if err := pool.Close(); err != nil {
				logger.Warn("closing PDF browsers", "error", err)
			}
		}()
		srvCfg.PDF = pool
	}

	logger.Debug("editor ready",
		"theme", ed.Theme().ID,
		"ai", ed.AIAvailable(),
		"pdf", srvCfg.PDF != nil,
	)

	srv := server.New(ed, srvCfg, logger)
	return srv.ListenAndServe(ctx, func(addr string) {
		if f.common.quiet {
			return
		}
		url := "http://" + addr
		if cfg.Server.Open {
			url = urlStyle.Render(url)
		}
		fmt.Fprintf(env.Stdout, "MatNoble Editor running at %s\n", url)
	})
}

// mergeServeFlags applies serve flags over cfg.
func mergeServeFlags(f *serveFlags, cfg *config.Config) error {
	if err := mergeEditorFlags(f.editor, cfg); err != nil {
		return err
	}
	mergePageFlags(f.page, cfg)
	mergeAIFlags(f.ai, cfg)

	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.seed != "" {
		cfg.Editor.Seed = f.seed
	}
	if len(f.origins) > 0 {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, f.origins...)
	}
	if f.clipboard {
		cfg.Clipboard.System = true
	}
	return nil
}
