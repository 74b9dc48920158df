// Package seed supplies the document shown when the editor opens.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/fileutil"
)

// Embedded names the bundled default document.
const Embedded = "embedded"

// MaxSize bounds a fetched or read seed document.
const MaxSize = 4 << 20

var errTooLarge = errors.New("seed document too large")

// Loader resolves seed sources.
type Loader struct {
	Client *http.Client
	Logger *slog.Logger
}

// Load returns the initial text for source: the bundled document for ""
// or "embedded", a GET for http(s) URLs, a file read otherwise. Failures
// are logged and yield "", so the editor starts empty.
func (l *Loader) Load(ctx context.Context, source string) string {
	text, err := l.fetch(ctx, source)
	if err != nil {
		l.logger().Warn("seed document unavailable", "source", source, "error", err)
		return ""
	}
	return text
}

func (l *Loader) fetch(ctx context.Context, source string) (string, error) {
	switch {
	case source == "" || source == Embedded:
		return assets.DefaultDocument(), nil
	case fileutil.IsURL(source):
		return l.get(ctx, source)
	default:
		return readFile(source)
	}
}

func (l *Loader) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")

	resp, err := l.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return readLimited(resp.Body)
}

func readFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 -- path is user-provided
	if err != nil {
		return "", err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("%w: more than %d bytes", errTooLarge, MaxSize)
	}
	return string(data), nil
}

func (l *Loader) client() *http.Client {
	if l.Client != nil {
		return l.Client
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
