// Package llm talks to hosted language models used for AI rewrites.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for provider operations.
var (
	ErrMissingAPIKey       = errors.New("API key is not configured")
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	ErrProvider            = errors.New("AI provider request failed")
)

// Provider sends completion requests to a model.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Provider names.
const (
	Gemini = "gemini"
	OpenAI = "openai"
)

// Default models per provider.
const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// defaultMaxTokens bounds a rewrite. Longer answers come back unfinished
// and are rejected by the caller.
const defaultMaxTokens = 8192

// Settings selects and configures a provider.
type Settings struct {
	Provider string // Gemini (default) or OpenAI
	Model    string
	BaseURL  string
	APIKey   string // overrides the environment when set
}

// NewProvider builds the provider named by s. Keys come from s.APIKey or,
// failing that, from GEMINI_API_KEY / API_KEY for Gemini and OPENAI_API_KEY
// for OpenAI. An absent key yields ErrMissingAPIKey without any network use.
func NewProvider(ctx context.Context, s Settings) (Provider, error) {
	return newProvider(ctx, s, os.Getenv)
}

func newProvider(ctx context.Context, s Settings, getenv func(string) string) (Provider, error) {
	switch s.Provider {
	case "", Gemini:
		key := firstNonEmpty(s.APIKey, getenv("GEMINI_API_KEY"), getenv("API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: set GEMINI_API_KEY", ErrMissingAPIKey)
		}
		return NewGeminiProvider(ctx, key, firstNonEmpty(s.Model, DefaultGeminiModel), s.BaseURL)
	case OpenAI:
		key := firstNonEmpty(s.APIKey, getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(key, firstNonEmpty(s.Model, DefaultOpenAIModel), s.BaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, s.Provider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
