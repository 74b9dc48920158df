package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matnoble/mdeditor/internal/pdf"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mdeditor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  addr: "127.0.0.1:9000"
  allowedOrigins: ["http://example.test"]
editor:
  theme: dracula
  seed: embedded
export:
  outputDir: out
  pdf:
    size: letter
ai:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
clipboard:
  system: true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	want := &Config{
		Server:    ServerConfig{Addr: "127.0.0.1:9000", AllowedOrigins: []string{"http://example.test"}},
		Editor:    EditorConfig{Theme: "dracula", Seed: "embedded"},
		Export:    ExportConfig{OutputDir: "out", PDF: PDFConfig{Size: "letter", Orientation: "portrait", Margin: 0.5}},
		AI:        AIConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", Timeout: "30s"},
		Clipboard: ClipboardConfig{System: true},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AITimeout(); got != 30*time.Second {
		t.Errorf("AITimeout() = %v, want 30s", got)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "unknown field", content: "editor:\n  colour: red\n", wantErr: ErrConfigParse},
		{name: "empty file", content: "", wantErr: ErrConfigParse},
		{name: "unknown theme", content: "editor:\n  theme: neon\n", wantErr: ErrInvalidValue},
		{name: "bad page size", content: "export:\n  pdf:\n    size: a3\n", wantErr: ErrInvalidValue},
		{name: "bad orientation", content: "export:\n  pdf:\n    orientation: sideways\n", wantErr: ErrInvalidValue},
		{name: "margin too large", content: "export:\n  pdf:\n    margin: 4\n", wantErr: ErrInvalidValue},
		{name: "bad provider", content: "ai:\n  provider: llama\n", wantErr: ErrInvalidValue},
		{name: "bad timeout", content: "ai:\n  timeout: soon\n", wantErr: ErrInvalidValue},
		{name: "negative timeout", content: "ai:\n  timeout: -5s\n", wantErr: ErrInvalidValue},
		{name: "model too long", content: "ai:\n  model: " + strings.Repeat("m", MaxModelLength+1) + "\n", wantErr: ErrFieldTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfig(writeConfig(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPDFSettings(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Export.PDF = PDFConfig{Orientation: "landscape", Margin: 1}

	want := pdf.Settings{Size: pdf.PageSizeA4, Orientation: "landscape", Margin: 1}
	if diff := cmp.Diff(want, cfg.PDFSettings()); diff != "" {
		t.Errorf("PDFSettings() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_Resolution(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("LoadConfig(\"\") error = %v, want ErrEmptyConfigName", err)
	}
	if _, err := LoadConfig("definitely-missing-config-xyz"); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig(name) error = %v, want ErrConfigNotFound", err)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig(path) error = %v, want ErrConfigNotFound", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if cfg.ListenAddr() != DefaultAddr {
		t.Errorf("ListenAddr() = %q", cfg.ListenAddr())
	}
	if cfg.AITimeout() != DefaultAITimeout {
		t.Errorf("AITimeout() = %v", cfg.AITimeout())
	}
}

func TestLoadCustomCSS(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.css")
	if err := os.WriteFile(path, []byte("h1 { color: teal; }"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := &Config{Editor: EditorConfig{CustomCSS: path}}
	got, err := cfg.LoadCustomCSS()
	if err != nil || got != "h1 { color: teal; }" {
		t.Errorf("LoadCustomCSS() = %q, %v", got, err)
	}

	empty, err := (&Config{}).LoadCustomCSS()
	if err != nil || empty != "" {
		t.Errorf("LoadCustomCSS(unset) = %q, %v", empty, err)
	}
}

func TestMarshal_RoundTripsThroughStrictDecode(t *testing.T) {
	t.Parallel()

	out, err := Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	cfg, err := LoadConfig(writeConfig(t, string(out)))
	if err != nil {
		t.Fatalf("LoadConfig(marshaled) error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
