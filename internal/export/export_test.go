package export

// Notes:
// - FileDeliverer is exercised on temp dirs only; rename failures across
//   devices are not reproducible in unit tests.

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/matnoble/mdeditor/internal/assets"
	"github.com/matnoble/mdeditor/internal/theme"
)

// ---------------------------------------------------------------------------
// TestTitleAndFilename - Title and file names
// ---------------------------------------------------------------------------

func TestTitleAndFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		markup    string
		wantTitle string
		wantFile  string
	}{
		{
			name:      "illegal characters stripped",
			markup:    `<p>intro</p><h1 id="x" class="md-h1">My Report: v1/2</h1>`,
			wantTitle: "My Report: v1/2",
			wantFile:  "My-Report-v12.html",
		},
		{
			name:      "no heading",
			markup:    `<p>just text</p>`,
			wantTitle: DefaultTitle,
			wantFile:  "matnoble-editor-export.html",
		},
		{
			name:      "first heading in document order wins",
			markup:    `<h3>Third</h3><h1>First</h1>`,
			wantTitle: "Third",
			wantFile:  "Third.html",
		},
		{
			name:      "nested markup and entities",
			markup:    `<div><h2>A <strong>bold</strong> &amp; brave   plan</h2></div>`,
			wantTitle: "A bold & brave   plan",
			wantFile:  "A-bold-&-brave-plan.html",
		},
		{
			name:      "empty heading falls back",
			markup:    `<h1>  </h1>`,
			wantTitle: DefaultTitle,
			wantFile:  "matnoble-editor-export.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			title := Title(tt.markup)
			if title != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", title, tt.wantTitle)
			}
			if got := FilenameFor(tt.markup); got != tt.wantFile {
				t.Errorf("FilenameFor() = %q, want %q", got, tt.wantFile)
			}
		})
	}
}

func TestFileStem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{title: "My Report: v1/2", want: "My-Report-v12"},
		{title: `<>:"/\|?*`, want: DefaultFileStem},
		{title: "", want: DefaultFileStem},
		{title: "  spaced \t out\n", want: "spaced-out"},
		{title: "数学 笔记", want: "数学-笔记"},
		{title: " - edge - ", want: "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()

			if got := FileStem(tt.title); got != tt.want {
				t.Errorf("FileStem(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func newAssembler(t *testing.T) *Assembler {
	t.Helper()

	shell, err := assets.NewEmbeddedLoader().LoadTemplate("export")
	if err != nil {
		t.Fatalf("LoadTemplate() error = %v", err)
	}
	a, err := NewAssembler(shell)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	return a
}

// ---------------------------------------------------------------------------
// TestAssemble - Document assembly
// ---------------------------------------------------------------------------

func TestAssemble(t *testing.T) {
	t.Parallel()

	styles := Stylesheets{Base: "/*BASE*/", Math: "/*MATH*/", Theme: "/*THEME*/"}
	markup := `<h1>Hello &lt;World&gt;</h1><div class="code-block"><button class="copy-button export-hidden">Copy</button></div>`

	tests := []struct {
		name       string
		theme      theme.Descriptor
		customCSS  string
		wantCustom bool
	}{
		{name: "custom theme includes user css", theme: theme.Lookup(theme.CustomID), customCSS: "/*USER*/", wantCustom: true},
		{name: "other theme excludes user css", theme: theme.Lookup(theme.DraculaID), customCSS: "/*USER*/", wantCustom: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := newAssembler(t).Assemble(Input{
				Markup:    markup,
				Theme:     tt.theme,
				CustomCSS: tt.customCSS,
				Styles:    styles,
			})
			if err != nil {
				t.Fatalf("Assemble() error = %v", err)
			}
			out := string(doc.HTML)

			order := []string{"/*BASE*/", "/*MATH*/", "/*THEME*/"}
			if tt.wantCustom {
				order = append(order, "/*USER*/")
			}
			order = append(order, hiddenRule, preRule)
			last := -1
			for _, part := range order {
				idx := strings.Index(out, part)
				if idx < 0 {
					t.Fatalf("output missing %q", part)
				}
				if idx < last {
					t.Errorf("%q out of order", part)
				}
				last = idx
			}
			if !tt.wantCustom && strings.Contains(out, "/*USER*/") {
				t.Error("custom css leaked into non-custom export")
			}

			for _, want := range []string{
				`<meta charset="UTF-8" />`,
				`name="viewport"`,
				"<title>Hello &lt;World&gt;</title>",
				`class="export-body ` + tt.theme.ClassName + " " + tt.theme.FontFamily + `"`,
				markup,
			} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q", want)
				}
			}
			if doc.Filename != "Hello-World.html" {
				t.Errorf("Filename = %q", doc.Filename)
			}
		})
	}
}

func TestAssemble_SanitizesStyleBreakout(t *testing.T) {
	t.Parallel()

	doc, err := newAssembler(t).Assemble(Input{
		Theme:     theme.Lookup(theme.CustomID),
		CustomCSS: "a{}</style><script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if strings.Contains(string(doc.HTML), "<script>") {
		t.Errorf("style break-out survived:\n%s", doc.HTML)
	}
}

func TestNewAssembler_InvalidTemplate(t *testing.T) {
	t.Parallel()

	if _, err := NewAssembler("{{.Title"); !errors.Is(err, ErrTemplate) {
		t.Errorf("NewAssembler() error = %v, want ErrTemplate", err)
	}
}

// ---------------------------------------------------------------------------
// TestCapture
// ---------------------------------------------------------------------------

func TestCapture(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		doc, _ := html.Parse(strings.NewReader(
			`<html><body><nav>x</nav><div id="print-container"><h1>T</h1><p>a &amp; b</p></div></body></html>`))
		got, ok := Capture(doc)
		if !ok {
			t.Fatal("Capture() ok = false")
		}
		if got != "<h1>T</h1><p>a &amp; b</p>" {
			t.Errorf("Capture() = %q", got)
		}
	})

	t.Run("absent is a no-op", func(t *testing.T) {
		t.Parallel()

		doc, _ := html.Parse(strings.NewReader(`<html><body><p>x</p></body></html>`))
		if got, ok := Capture(doc); ok || got != "" {
			t.Errorf("Capture() = %q, %v; want empty, false", got, ok)
		}
	})
}

// ---------------------------------------------------------------------------
// TestFileDeliverer - Delivery
// ---------------------------------------------------------------------------

func TestFileDeliverer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := FileDeliverer{Dir: dir}
	doc := Document{Filename: "Report.html", HTML: []byte("<html></html>")}

	first, err := d.Deliver(context.Background(), doc)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	second, err := d.Deliver(context.Background(), doc)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if filepath.Base(first) != "Report.html" || filepath.Base(second) != "Report-1.html" {
		t.Errorf("paths = %q, %q", first, second)
	}
	data, err := os.ReadFile(first) // #nosec G304 -- test temp dir
	if err != nil || string(data) != "<html></html>" {
		t.Errorf("content = %q, %v", data, err)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".mdeditor-export-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileDeliverer_Overwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := FileDeliverer{Dir: dir, Overwrite: true}

	for _, body := range []string{"old", "new"} {
		path, err := d.Deliver(context.Background(), Document{Filename: "notes.html", HTML: []byte(body)})
		if err != nil {
			t.Fatalf("Deliver() error = %v", err)
		}
		if filepath.Base(path) != "notes.html" {
			t.Errorf("path = %q", path)
		}
	}
	data, _ := os.ReadFile(filepath.Join(dir, "notes.html")) // #nosec G304 -- test temp dir
	if string(data) != "new" {
		t.Errorf("content = %q, want new", data)
	}
}

func TestFileDeliverer_MissingDir(t *testing.T) {
	t.Parallel()

	d := FileDeliverer{Dir: filepath.Join(t.TempDir(), "missing")}
	_, err := d.Deliver(context.Background(), Document{Filename: "x.html"})
	if !errors.Is(err, ErrDeliver) {
		t.Errorf("Deliver() error = %v, want ErrDeliver", err)
	}
}

func TestHTTPDeliverer(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	doc := Document{Filename: "数学.html", HTML: []byte("<html></html>")}

	if _, err := (HTTPDeliverer{W: rec}).Deliver(context.Background(), doc); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if got := rec.Header().Get("Content-Type"); got != ContentType {
		t.Errorf("Content-Type = %q", got)
	}
	cd := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment;") || !strings.Contains(cd, "filename*=utf-8''") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "<html></html>" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestAssemble_TypesetMath(t *testing.T) {
	t.Parallel()

	for _, typeset := range []bool{false, true} {
		doc, err := newAssembler(t).Assemble(Input{
			Markup:      `<p><span class="math math-inline">\(x\)</span></p>`,
			Theme:       theme.Default(),
			TypesetMath: typeset,
		})
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if got := strings.Contains(string(doc.HTML), MathJaxURL); got != typeset {
			t.Errorf("TypesetMath=%v: script present = %v", typeset, got)
		}
	}
}
