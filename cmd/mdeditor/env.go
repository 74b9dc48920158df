package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/llm"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, asset loading and the AI provider factory.
type Environment struct {
	Now         func() time.Time
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	AssetLoader assets.AssetLoader
	NewProvider func(ctx context.Context, s llm.Settings) (llm.Provider, error)
}

// DefaultEnv returns production environment with embedded assets.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		AssetLoader: assets.NewEmbeddedLoader(),
		NewProvider: llm.NewProvider,
	}
}
