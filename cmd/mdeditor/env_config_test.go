package main

// Notes:
// - Tests use t.Setenv() which prevents t.Parallel().
// - Invalid durations and worker counts are ignored, not errors.

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/matnoble/mdeditor/internal/config"
)

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Environment variable loading
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("MDEDITOR_CONFIG", "/path/to/config.yaml")
	t.Setenv("MDEDITOR_ADDR", "127.0.0.1:9000")
	t.Setenv("MDEDITOR_THEME", "dracula")
	t.Setenv("MDEDITOR_AI_TIMEOUT", "2m")
	t.Setenv("MDEDITOR_SEED", "notes.md")
	t.Setenv("MDEDITOR_OUTPUT_DIR", "/out")
	t.Setenv("MDEDITOR_AI_PROVIDER", "openai")
	t.Setenv("MDEDITOR_PAGE_SIZE", "letter")
	t.Setenv("MDEDITOR_WORKERS", "3")

	cfg := loadEnvConfig()

	checks := []struct {
		field, got, want string
	}{
		{"ConfigPath", cfg.ConfigPath, "/path/to/config.yaml"},
		{"Addr", cfg.Addr, "127.0.0.1:9000"},
		{"Theme", cfg.Theme, "dracula"},
		{"Seed", cfg.Seed, "notes.md"},
		{"OutputDir", cfg.OutputDir, "/out"},
		{"AIProvider", cfg.AIProvider, "openai"},
		{"PageSize", cfg.PageSize, "letter"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if cfg.AITimeout != 2*time.Minute {
		t.Errorf("AITimeout = %v, want 2m", cfg.AITimeout)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
}

func TestLoadEnvConfig_InvalidNumbersIgnored(t *testing.T) {
	tests := []struct {
		name    string
		timeout string
		workers string
	}{
		{"garbage", "soon", "many"},
		{"non-positive", "-5s", "0"},
		{"negative workers", "0s", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MDEDITOR_AI_TIMEOUT", tt.timeout)
			t.Setenv("MDEDITOR_WORKERS", tt.workers)

			cfg := loadEnvConfig()
			if cfg.AITimeout != 0 || cfg.Workers != 0 {
				t.Errorf("AITimeout = %v, Workers = %d; want zero values", cfg.AITimeout, cfg.Workers)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWarnUnknownEnvVars - Typo detection
// ---------------------------------------------------------------------------

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Setenv("MDEDITOR_THEMES", "dracula")
	t.Setenv("MDEDITOR_THEME", "dracula")

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf)
	out := buf.String()

	if !strings.Contains(out, "MDEDITOR_THEMES (typo?)") {
		t.Errorf("expected typo warning, got %q", out)
	}
	if strings.Contains(out, "MDEDITOR_THEME ") {
		t.Errorf("known variable reported: %q", out)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env over file, empty env keeps file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set values override", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		applyEnvConfig(&envConfig{
			Addr:        "0.0.0.0:80",
			Theme:       "academic",
			AITimeout:   90 * time.Second,
			AIModel:     "gpt-4o",
			Orientation: "landscape",
		}, cfg)

		if cfg.Server.Addr != "0.0.0.0:80" || cfg.Editor.Theme != "academic" {
			t.Errorf("server/editor = %q/%q", cfg.Server.Addr, cfg.Editor.Theme)
		}
		if cfg.AITimeout() != 90*time.Second {
			t.Errorf("AITimeout() = %v", cfg.AITimeout())
		}
		if cfg.AI.Model != "gpt-4o" || cfg.Export.PDF.Orientation != "landscape" {
			t.Errorf("ai.model = %q, orientation = %q", cfg.AI.Model, cfg.Export.PDF.Orientation)
		}
	})

	t.Run("empty values keep config", func(t *testing.T) {
		t.Parallel()

		cfg := config.DefaultConfig()
		cfg.Editor.Seed = "file.md"
		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Editor.Seed != "file.md" || cfg.Server.Addr != config.DefaultAddr {
			t.Errorf("config changed: seed=%q addr=%q", cfg.Editor.Seed, cfg.Server.Addr)
		}
	})
}
