package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matnoble/mdeditor/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // MDEDITOR_CONFIG: config file path
	Addr       string        // MDEDITOR_ADDR: listen address
	Theme      string        // MDEDITOR_THEME: initial theme ID
	AITimeout  time.Duration // MDEDITOR_AI_TIMEOUT: rewrite timeout

	// Tier 2 - Documents
	Seed      string // MDEDITOR_SEED: initial document source
	CustomCSS string // MDEDITOR_CUSTOM_CSS: custom theme stylesheet path
	OutputDir string // MDEDITOR_OUTPUT_DIR: export directory
	AssetPath string // MDEDITOR_ASSET_PATH: asset override directory

	// Tier 3 - Extended
	AIProvider  string // MDEDITOR_AI_PROVIDER: gemini, openai
	AIModel     string // MDEDITOR_AI_MODEL: model override
	AIBaseURL   string // MDEDITOR_AI_BASE_URL: OpenAI-compatible endpoint
	PageSize    string // MDEDITOR_PAGE_SIZE: a4, letter, legal
	Orientation string // MDEDITOR_ORIENTATION: portrait, landscape
	Workers     int    // MDEDITOR_WORKERS: parallel export workers
}

// knownEnvVars lists valid MDEDITOR_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"MDEDITOR_CONFIG":     true,
	"MDEDITOR_ADDR":       true,
	"MDEDITOR_THEME":      true,
	"MDEDITOR_AI_TIMEOUT": true,
	// Tier 2 - Documents
	"MDEDITOR_SEED":       true,
	"MDEDITOR_CUSTOM_CSS": true,
	"MDEDITOR_OUTPUT_DIR": true,
	"MDEDITOR_ASSET_PATH": true,
	// Tier 3 - Extended
	"MDEDITOR_AI_PROVIDER": true,
	"MDEDITOR_AI_MODEL":    true,
	"MDEDITOR_AI_BASE_URL": true,
	"MDEDITOR_PAGE_SIZE":   true,
	"MDEDITOR_ORIENTATION": true,
	"MDEDITOR_WORKERS":     true,
}

// loadEnvConfig reads configuration from environment variables.
// Returns a struct with all recognized MDEDITOR_* values.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		// Tier 1
		ConfigPath: os.Getenv("MDEDITOR_CONFIG"),
		Addr:       os.Getenv("MDEDITOR_ADDR"),
		Theme:      os.Getenv("MDEDITOR_THEME"),
		// Tier 2
		Seed:      os.Getenv("MDEDITOR_SEED"),
		CustomCSS: os.Getenv("MDEDITOR_CUSTOM_CSS"),
		OutputDir: os.Getenv("MDEDITOR_OUTPUT_DIR"),
		AssetPath: os.Getenv("MDEDITOR_ASSET_PATH"),
		// Tier 3
		AIProvider:  os.Getenv("MDEDITOR_AI_PROVIDER"),
		AIModel:     os.Getenv("MDEDITOR_AI_MODEL"),
		AIBaseURL:   os.Getenv("MDEDITOR_AI_BASE_URL"),
		PageSize:    os.Getenv("MDEDITOR_PAGE_SIZE"),
		Orientation: os.Getenv("MDEDITOR_ORIENTATION"),
	}

	if timeout := os.Getenv("MDEDITOR_AI_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.AITimeout = d
		}
	}

	if workers := os.Getenv("MDEDITOR_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDEDITOR_* variables.
// Helps catch typos like MDEDITOR_THEMES instead of MDEDITOR_THEME.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDEDITOR_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// A set variable replaces the file value, because DefaultConfig already
// fills most fields. Resulting order: CLI flags > env vars > config file >
// defaults (CLI flags are applied later by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	// Tier 1
	setIf(&cfg.Server.Addr, env.Addr)
	setIf(&cfg.Editor.Theme, env.Theme)
	if env.AITimeout > 0 {
		cfg.AI.Timeout = env.AITimeout.String()
	}

	// Tier 2
	setIf(&cfg.Editor.Seed, env.Seed)
	setIf(&cfg.Editor.CustomCSS, env.CustomCSS)
	setIf(&cfg.Export.OutputDir, env.OutputDir)
	setIf(&cfg.Assets.BasePath, env.AssetPath)

	// Tier 3
	setIf(&cfg.AI.Provider, env.AIProvider)
	setIf(&cfg.AI.Model, env.AIModel)
	setIf(&cfg.AI.BaseURL, env.AIBaseURL)
	setIf(&cfg.Export.PDF.Size, env.PageSize)
	setIf(&cfg.Export.PDF.Orientation, env.Orientation)
}
