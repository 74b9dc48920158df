// Package pdf prints assembled export documents to PDF through headless
// Chrome.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/matnoble/mdeditor/internal/fileutil"
	"github.com/matnoble/mdeditor/internal/process"
)

// Sentinel errors for PDF printing.
var (
	ErrBrowserConnect     = errors.New("failed to connect to browser")
	ErrPageCreate         = errors.New("failed to create browser page")
	ErrPageLoad           = errors.New("failed to load page")
	ErrPDFGeneration      = errors.New("PDF generation failed")
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidMargin      = errors.New("invalid margin")
)

// Page sizes.
const (
	PageSizeLetter = "letter"
	PageSizeA4     = "a4"
	PageSizeLegal  = "legal"
)

// Orientations.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// DefaultTimeout bounds page load and printing.
const DefaultTimeout = 30 * time.Second

// Extension is the suffix of printed files.
const Extension = ".pdf"

// Margin bounds in inches.
const (
	MinMargin = 0.0
	MaxMargin = 3.0
)

// paper dimensions in inches, portrait.
var paperSizes = map[string][2]float64{
	PageSizeLetter: {8.5, 11},
	PageSizeA4:     {8.27, 11.69},
	PageSizeLegal:  {8.5, 14},
}

// Settings controls the printed page.
type Settings struct {
	Size        string  // PageSizeLetter, PageSizeA4 or PageSizeLegal
	Orientation string  // OrientationPortrait or OrientationLandscape
	Margin      float64 // inches, on every side
}

// DefaultSettings returns A4 portrait with half-inch margins.
func DefaultSettings() Settings {
	return Settings{Size: PageSizeA4, Orientation: OrientationPortrait, Margin: 0.5}
}

// Validate checks s. Size and orientation are case-insensitive.
func (s Settings) Validate() error {
	if _, ok := paperSizes[strings.ToLower(s.Size)]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, s.Size)
	}
	switch strings.ToLower(s.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, s.Orientation)
	}
	if s.Margin < MinMargin || s.Margin > MaxMargin {
		return fmt.Errorf("%w: %.2f (must be between %.0f and %.0f inches)", ErrInvalidMargin, s.Margin, MinMargin, MaxMargin)
	}
	return nil
}

// printOptions maps s onto Chrome's print parameters. Backgrounds are
// always printed so theme colors survive.
func (s Settings) printOptions() *proto.PagePrintToPDF {
	dims := paperSizes[strings.ToLower(s.Size)]
	return &proto.PagePrintToPDF{
		Landscape:       strings.EqualFold(s.Orientation, OrientationLandscape),
		PaperWidth:      floatPtr(dims[0]),
		PaperHeight:     floatPtr(dims[1]),
		MarginTop:       floatPtr(s.Margin),
		MarginBottom:    floatPtr(s.Margin),
		MarginLeft:      floatPtr(s.Margin),
		MarginRight:     floatPtr(s.Margin),
		PrintBackground: true,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

// Filename swaps the extension of an exported HTML name for .pdf.
func Filename(htmlName string) string {
	name := htmlName
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name + Extension
}

// fileRenderer prints a local HTML file. It exists so Converter can be
// tested without a browser.
type fileRenderer interface {
	RenderFile(ctx context.Context, path string, s Settings) ([]byte, error)
	Close() error
}

var _ fileRenderer = (*rodRenderer)(nil)

// rodRenderer prints through go-rod. Chromium is downloaded on first use
// when no browser is found.
type rodRenderer struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
}

func (r *rodRenderer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// Containers and CI runners have no usable sandbox.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	r.launcher, r.browser = l, browser
	return nil
}

// Close shuts the browser down and reaps its process tree.
func (r *rodRenderer) Close() error {
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	// Leftover helpers are gone once the group is dead; launcher.Kill covers the rest.
	_ = process.KillTree(r.launcher.PID())
	r.launcher.Kill()
	r.browser, r.launcher = nil, nil
	return err
}

// mathReady resolves once MathJax, when the document loads it, has
// finished typesetting.
const mathReady = `() => (window.MathJax && window.MathJax.startup && window.MathJax.startup.promise) || null`

func (r *rodRenderer) RenderFile(ctx context.Context, path string, s Settings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer func() { _ = page.Close() }()

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	page = page.Context(ctx).Timeout(timeout)

	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if _, err := page.Eval(mathReady); err != nil {
		return nil, fmt.Errorf("%w: waiting for math: %v", ErrPageLoad, err)
	}

	reader, err := page.PDF(s.printOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

// Converter prints HTML documents with fixed page settings. One browser is
// shared by all calls, which are serialized; use a Pool for parallelism.
type Converter struct {
	mu       sync.Mutex
	renderer fileRenderer
	settings Settings
}

// NewConverter creates a Converter. The browser starts on first use.
// Returns an error if settings are invalid.
func NewConverter(settings Settings, timeout time.Duration) (*Converter, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Converter{
		renderer: &rodRenderer{timeout: timeout},
		settings: settings,
	}, nil
}

// Settings returns the page settings.
func (c *Converter) Settings() Settings {
	return c.settings
}

// Convert prints the HTML document doc.
func (c *Converter) Convert(ctx context.Context, doc []byte) ([]byte, error) {
	path, cleanup, err := fileutil.WriteTempFile(string(doc), "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.RenderFile(ctx, path, c.settings)
}

// Close releases the browser.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderer.Close()
}
