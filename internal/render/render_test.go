package render

// Notes:
// - Highlight colors come from chroma; tests assert class names and structure,
//   not palette values.
// - Math is checked as markup only. Typesetting happens in the browser.

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matnoble/mdeditor/internal/theme"
)

func render(t *testing.T, text, themeID string) Result {
	t.Helper()

	res, err := New().Render(context.Background(), text, themeID)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return res
}

// ---------------------------------------------------------------------------
// TestRender_Headings - Element overrides
// ---------------------------------------------------------------------------

func TestRender_Headings(t *testing.T) {
	t.Parallel()

	src := "# One\n\n## Two\n\n### Three\n\n#### Four\n\n##### Five\n"

	tests := []struct {
		name    string
		themeID string
		want    []string
		notWant []string
	}{
		{
			name:    "decorated theme",
			themeID: theme.DefaultID,
			want: []string{
				`<h1 id="one" class="md-h1">`,
				`<h2 id="two" class="md-h2">`,
				`<h3 id="three" class="md-h3 md-accent-bar">`,
				`<h4 id="four" class="md-h4 md-accent-bar-thin">`,
				`<h5 id="five">`,
			},
		},
		{
			name:    "minimal theme",
			themeID: theme.AcademicID,
			want: []string{
				`<h3 id="three" class="md-h3">`,
				`<h4 id="four" class="md-h4 md-underline-dotted">`,
			},
			notWant: []string{"md-accent-bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, src, tt.themeID).HTML
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\n%s", want, got)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(got, bad) {
					t.Errorf("output contains %q\n%s", bad, got)
				}
			}
		})
	}
}

func TestRender_CodeBlocks(t *testing.T) {
	t.Parallel()

	src := "```go\nfmt.Println(\"hi\")\n```\n\n```\nplain <text>\n```\n"

	t.Run("collects blocks in document order", func(t *testing.T) {
		t.Parallel()

		res := render(t, src, theme.DefaultID)
		if len(res.Blocks) != 2 {
			t.Fatalf("len(Blocks) = %d, want 2", len(res.Blocks))
		}
		if res.Blocks[0].Language != "go" || res.Blocks[0].Code != "fmt.Println(\"hi\")\n" {
			t.Errorf("Blocks[0] = %+v", res.Blocks[0])
		}
		if res.Blocks[1].Language != "" || res.Blocks[1].Code != "plain <text>\n" {
			t.Errorf("Blocks[1] = %+v", res.Blocks[1])
		}
		if res.Blocks[0].ID == res.Blocks[1].ID {
			t.Errorf("duplicate block id %q", res.Blocks[0].ID)
		}
		for _, b := range res.Blocks {
			if !strings.Contains(res.HTML, `data-copy-target="`+b.ID+`"`) {
				t.Errorf("no copy button wired to %s", b.ID)
			}
			if _, ok := res.Block(b.ID); !ok {
				t.Errorf("Block(%q) not found", b.ID)
			}
		}
	})

	t.Run("chrome", func(t *testing.T) {
		t.Parallel()

		got := render(t, src, theme.DefaultID).HTML
		for _, want := range []string{
			`<span class="code-lang">go</span>`,
			`<span class="code-lang">text</span>`,
			`class="copy-button export-hidden"`,
			`class="window-controls"`,
			`<pre><code class="language-text">plain &lt;text&gt;`,
			`background-color:#1e1e1e`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output missing %q\n%s", want, got)
			}
		}
	})

	t.Run("window controls follow theme flag", func(t *testing.T) {
		t.Parallel()

		got := render(t, src, theme.CyberpunkID).HTML
		if strings.Contains(got, "window-controls") {
			t.Error("cyberpunk theme should hide window controls")
		}
	})
}

func TestRender_InlineElements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		themeID string
		want    string
	}{
		{
			name:    "inline code",
			src:     "use `go test` here",
			themeID: theme.DefaultID,
			want:    `<code class="md-code-inline">go test</code>`,
		},
		{
			name:    "strong with theme color",
			src:     "**bold**",
			themeID: theme.DraculaID,
			want:    `<strong class="md-strong" style="color:#ff79c6">bold</strong>`,
		},
		{
			name:    "strong inherits without override",
			src:     "**bold**",
			themeID: theme.CustomID,
			want:    `<strong class="md-strong">bold</strong>`,
		},
		{
			name:    "highlight marks",
			src:     "a ==marked== word",
			themeID: theme.DefaultID,
			want:    "<mark>marked</mark>",
		},
		{
			name:    "table wrapper",
			src:     "| a | b |\n|---|:-:|\n| 1 | 2 |\n",
			themeID: theme.DefaultID,
			want:    `<div class="md-table-wrap">` + "\n" + `<table class="md-table">`,
		},
		{
			name:    "table head cells",
			src:     "| a |\n|---|\n| 1 |\n",
			themeID: theme.DefaultID,
			want:    `<th class="md-th">a</th>`,
		},
		{
			name:    "table data cells",
			src:     "| a |\n|---|\n| 1 |\n",
			themeID: theme.DefaultID,
			want:    `<td class="md-td">1</td>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, tt.src, tt.themeID).HTML
			if !strings.Contains(got, tt.want) {
				t.Errorf("output missing %q\n%s", tt.want, got)
			}
		})
	}
}

func TestRender_HighlightSkipsFencedCode(t *testing.T) {
	t.Parallel()

	res := render(t, "```\nif a ==b== c {}\n```\n", theme.DefaultID)
	if strings.Contains(res.HTML, "<mark>") {
		t.Errorf("fenced code should not be marked:\n%s", res.HTML)
	}
	if res.Blocks[0].Code != "if a ==b== c {}\n" {
		t.Errorf("Code = %q", res.Blocks[0].Code)
	}
}

// ---------------------------------------------------------------------------
// TestRender_Math
// ---------------------------------------------------------------------------

func TestRender_Math(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		want    []string
		notWant []string
	}{
		{
			name: "inline",
			src:  "area $\\pi r^2$ here",
			want: []string{`<span class="math math-inline">\(\pi r^2\)</span>`},
		},
		{
			name: "inline display",
			src:  "see $$x+y$$ now",
			want: []string{`<span class="math math-display">\[x+y\]</span>`},
		},
		{
			name: "block",
			src:  "$$\n\\frac{a}{b}\n$$\n\nafter",
			want: []string{`<div class="math math-display">\[\frac{a}{b}\]</div>`, "<p>after</p>"},
		},
		{
			name: "escapes markup",
			src:  "$a<b$",
			want: []string{`\(a&lt;b\)`},
		},
		{
			name:    "currency is not math",
			src:     "costs $5 and $6 total",
			want:    []string{"costs $5 and $6 total"},
			notWant: []string{"math"},
		},
		{
			name:    "unbalanced braces stay inert",
			src:     "bad $\\frac{1}{2$ then **fine**",
			want:    []string{`<code class="math-error" title="unbalanced braces">$\frac{1}{2$</code>`, "fine</strong>"},
			notWant: []string{"math-inline"},
		},
		{
			name: "unterminated block",
			src:  "$$\nx^2\n",
			want: []string{`class="math-error"`},
		},
		{
			name: "left without right",
			src:  "$\\left( x$",
			want: []string{`class="math-error"`},
		},
		{
			name:    "leftarrow is not left",
			src:     "$a \\leftarrow b$",
			want:    []string{"math-inline"},
			notWant: []string{"math-error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := render(t, tt.src, theme.DefaultID).HTML
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\n%s", want, got)
				}
			}
			for _, bad := range tt.notWant {
				if strings.Contains(got, bad) {
					t.Errorf("output contains %q\n%s", bad, got)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRenderer_Memo - Memoization and cancellation
// ---------------------------------------------------------------------------

func TestRenderer_Memo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := New()
	src := "# Title\n\n```sh\necho hi\n```\n"

	first, err := r.Render(ctx, src, theme.DefaultID)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	t.Run("identical call reuses result", func(t *testing.T) {
		again, err := r.Render(ctx, src, theme.DefaultID)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if again.HTML != first.HTML || again.Blocks[0].ID != first.Blocks[0].ID {
			t.Error("memoized render differs")
		}
	})

	t.Run("unknown theme resolves to fallback key", func(t *testing.T) {
		fallback, err := r.Render(ctx, src, "no-such-theme")
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if fallback.HTML != first.HTML {
			t.Error("fallback theme output differs from first registered theme")
		}
		if fallback.ThemeID != theme.DefaultID {
			t.Errorf("ThemeID = %q, want %q", fallback.ThemeID, theme.DefaultID)
		}
	})

	t.Run("result is a copy", func(t *testing.T) {
		res, _ := r.Render(ctx, src, theme.DefaultID)
		res.Blocks[0].ID = "mutated"

		again, _ := r.Render(ctx, src, theme.DefaultID)
		if again.Blocks[0].ID == "mutated" {
			t.Error("caller mutation leaked into memo")
		}
	})

	t.Run("new text re-renders", func(t *testing.T) {
		other, err := r.Render(ctx, src+"\nmore\n", theme.DefaultID)
		if err != nil {
			t.Fatalf("Render() error = %v", err)
		}
		if other.Blocks[0].ID == first.Blocks[0].ID {
			t.Error("block ids should be scoped to a render pass")
		}
	})
}

func TestRender_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Render(ctx, "# hi", theme.DefaultID)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestPreprocess - Source preprocessing
// ---------------------------------------------------------------------------

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "crlf", input: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "blank lines", input: "a\n\n\n\n\nb", want: "a\n\nb"},
		{name: "highlight", input: "==x==", want: markStart + "x" + markEnd},
		{name: "tilde fence", input: "~~~\n==x==\n~~~\n==y==", want: "~~~\n==x==\n~~~\n" + markStart + "y" + markEnd},
		{name: "no highlight", input: "a == b", want: "a == b"},
		{name: "leading blank lines", input: "\n\n\nx", want: "\n\nx"},
		{name: "fence keeps blank lines", input: "```\nline1\n\n\n\nline5\n```\n\n\n\nafter", want: "```\nline1\n\n\n\nline5\n```\n\nafter"},
		{name: "code span keeps equals", input: "`a==b==c` and ==hot==", want: "`a==b==c` and " + markStart + "hot" + markEnd},
		{name: "double backtick span", input: "``x ==y== `z` ==w==`` ==v==", want: "``x ==y== `z` ==w==`` " + markStart + "v" + markEnd},
		{name: "unmatched backtick", input: "it`s ==on==", want: "it`s " + markStart + "on" + markEnd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := preprocess(tt.input); got != tt.want {
				t.Errorf("preprocess(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRender_CodeIsVerbatim(t *testing.T) {
	t.Parallel()

	r := New()
	res, err := r.Render(context.Background(), "```\nline1\n\n\n\nline5\n```\n\nUse `a==b==c` here.", theme.DefaultID)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(res.Blocks) != 1 || res.Blocks[0].Code != "line1\n\n\n\nline5\n" {
		t.Errorf("Blocks = %+v, want the fence body unchanged", res.Blocks)
	}
	if strings.Contains(res.HTML, "<mark>") {
		t.Errorf("code span was highlighted: %s", res.HTML)
	}
	if !strings.Contains(res.HTML, "a==b==c") {
		t.Errorf("code span text lost: %s", res.HTML)
	}
}

// ---------------------------------------------------------------------------
// TestHighlightCSS - Syntax stylesheets
// ---------------------------------------------------------------------------

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	css, err := HighlightCSS()
	if err != nil {
		t.Fatalf("HighlightCSS() error = %v", err)
	}
	for _, d := range theme.All() {
		if !strings.Contains(css, "."+theme.SyntaxPrefix(d)) {
			t.Errorf("HighlightCSS() has no rules for %q", d.ID)
		}
	}
}

func TestRender_ScopesHighlightClasses(t *testing.T) {
	t.Parallel()

	res, err := New().Render(context.Background(), "```go\nfunc main() {}\n```\n", theme.DraculaID)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(res.HTML, "hl-dracula-") {
		t.Errorf("highlight classes not scoped to the theme:\n%s", res.HTML)
	}
}
