// Package config loads the editor's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matnoble/mdeditor/internal/fileutil"
	"github.com/matnoble/mdeditor/internal/pdf"
	"github.com/matnoble/mdeditor/internal/theme"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength     = 255
	MaxPathLength     = 4096
	MaxURLLength      = 2048
	MaxModelLength    = 100
	MaxOriginLength   = 255
	MaxCustomCSSBytes = 256 << 10
)

// AI providers understood by the llm package.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultAddr is where the editor listens when nothing else is configured.
const DefaultAddr = "127.0.0.1:4173"

// DefaultAITimeout bounds a single rewrite request.
const DefaultAITimeout = 60 * time.Second

// Config holds all configuration for the editor.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Editor    EditorConfig    `yaml:"editor"`
	Export    ExportConfig    `yaml:"export"`
	AI        AIConfig        `yaml:"ai"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// ServerConfig defines the local HTTP listener.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`                     // host:port (default: 127.0.0.1:4173)
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"` // extra CORS origins besides localhost
	Open           bool     `yaml:"open"`                     // print the URL prominently on start
}

// EditorConfig defines initial editor state.
type EditorConfig struct {
	Theme     string `yaml:"theme"`     // theme ID (default: first registered)
	Seed      string `yaml:"seed"`      // "", "embedded", http(s) URL or file path
	CustomCSS string `yaml:"customCSS"` // path to a stylesheet loaded into the custom theme
}

// ExportConfig defines export destinations.
type ExportConfig struct {
	OutputDir string    `yaml:"outputDir"` // empty = current directory
	PDF       PDFConfig `yaml:"pdf"`
}

// PDFConfig defines print settings for PDF export.
type PDFConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "a4")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// AIConfig defines the hosted language model used for rewrites. Credentials
// come from the environment only.
type AIConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai" (default: gemini)
	Model    string `yaml:"model"`    // provider default when empty
	BaseURL  string `yaml:"baseURL"`  // OpenAI-compatible endpoint override
	Timeout  string `yaml:"timeout"`  // Go duration, default 60s
}

// ClipboardConfig controls system clipboard mirroring of copied code.
type ClipboardConfig struct {
	System bool `yaml:"system"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets
}

var providers = []string{ProviderGemini, ProviderOpenAI}

// Validate checks field lengths and enumerated values. Called by LoadConfig,
// and by callers who build a Config by hand.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		value string
		max   int
	}{
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"editor.seed", c.Editor.Seed, MaxURLLength},
		{"editor.customCSS", c.Editor.CustomCSS, MaxPathLength},
		{"export.outputDir", c.Export.OutputDir, MaxPathLength},
		{"ai.model", c.AI.Model, MaxModelLength},
		{"ai.baseURL", c.AI.BaseURL, MaxURLLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
	}
	for _, chk := range checks {
		if err := validateFieldLength(chk.field, chk.value, chk.max); err != nil {
			return err
		}
	}
	for i, origin := range c.Server.AllowedOrigins {
		if err := validateFieldLength(fmt.Sprintf("server.allowedOrigins[%d]", i), origin, MaxOriginLength); err != nil {
			return err
		}
	}

	if c.Editor.Theme != "" && !theme.Exists(c.Editor.Theme) {
		return fmt.Errorf("%w: editor.theme %q (available: %s)", ErrInvalidValue, c.Editor.Theme, strings.Join(theme.IDs(), ", "))
	}
	if err := c.PDFSettings().Validate(); err != nil {
		return fmt.Errorf("%w: export.pdf: %v", ErrInvalidValue, err)
	}
	if err := validateEnum("ai.provider", c.AI.Provider, providers); err != nil {
		return err
	}
	if c.AI.Timeout != "" {
		d, err := time.ParseDuration(c.AI.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: ai.timeout %q is not a positive duration", ErrInvalidValue, c.AI.Timeout)
		}
	}
	return nil
}

// AITimeout returns the configured rewrite timeout or DefaultAITimeout.
func (c *Config) AITimeout() time.Duration {
	if d, err := time.ParseDuration(c.AI.Timeout); err == nil && d > 0 {
		return d
	}
	return DefaultAITimeout
}

// PDFSettings returns the print settings, with pdf defaults for empty
// size and orientation.
func (c *Config) PDFSettings() pdf.Settings {
	s := pdf.DefaultSettings()
	if c.Export.PDF.Size != "" {
		s.Size = c.Export.PDF.Size
	}
	if c.Export.PDF.Orientation != "" {
		s.Orientation = c.Export.PDF.Orientation
	}
	s.Margin = c.Export.PDF.Margin
	return s
}

// ListenAddr returns the configured address or DefaultAddr.
func (c *Config) ListenAddr() string {
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return DefaultAddr
}

func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func validateEnum(fieldName, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr},
		Editor: EditorConfig{Theme: theme.DefaultID},
		Export: ExportConfig{PDF: PDFConfig{Size: pdf.PageSizeA4, Orientation: pdf.OrientationPortrait, Margin: 0.5}},
		AI:     AIConfig{Provider: ProviderGemini, Timeout: DefaultAITimeout.String()},
	}
}

// LoadConfig loads configuration from a file path or config name.
// A value containing a path separator is a file path; anything else is a
// name searched in the current directory, then ~/.config/mdeditor/.
// A missing file is an error; there is no silent fallback.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCustomCSS reads the stylesheet named by editor.customCSS. An empty
// path yields an empty stylesheet.
func (c *Config) LoadCustomCSS() (string, error) {
	if c.Editor.CustomCSS == "" {
		return "", nil
	}
	info, err := os.Stat(c.Editor.CustomCSS)
	if err != nil {
		return "", fmt.Errorf("reading custom stylesheet: %w", err)
	}
	if info.Size() > MaxCustomCSSBytes {
		return "", fmt.Errorf("%w: editor.customCSS is %d bytes (max %d)", ErrFieldTooLong, info.Size(), MaxCustomCSSBytes)
	}
	data, err := os.ReadFile(c.Editor.CustomCSS) // #nosec G304 -- path is user-provided
	if err != nil {
		return "", fmt.Errorf("reading custom stylesheet: %w", err)
	}
	return string(data), nil
}

// resolveConfigPath tries .yaml then .yml, in the current directory first.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	tried := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		local := name + ext
		if fileExists(local) {
			return local, nil
		}
		tried = append(tried, local)
	}

	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(dir, "mdeditor", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
