package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/llm"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment, buffers and a fake AI provider
// ---------------------------------------------------------------------------

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// fakeProvider answers every completion with reply.
type fakeProvider struct {
	reply string
	err   error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.reply}, nil
}

type testEnv struct {
	*Environment
	stdout *syncBuffer
	stderr *syncBuffer
}

// newTestEnv builds an Environment with captured output, the given stdin
// and no AI key unless provider is non-nil.
func newTestEnv(t *testing.T, stdin string, provider llm.Provider) *testEnv {
	t.Helper()

	stdout, stderr := &syncBuffer{}, &syncBuffer{}
	return &testEnv{
		Environment: &Environment{
			Now:         func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
			Stdin:       strings.NewReader(stdin),
			Stdout:      stdout,
			Stderr:      stderr,
			AssetLoader: assets.NewEmbeddedLoader(),
			NewProvider: func(context.Context, llm.Settings) (llm.Provider, error) {
				if provider == nil {
					return nil, llm.ErrMissingAPIKey
				}
				return provider, nil
			},
		},
		stdout: stdout,
		stderr: stderr,
	}
}
