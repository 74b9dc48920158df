package mdeditor

// Notes:
// - Providers are fakes; real Gemini and OpenAI calls live in internal/llm.
// - Busy and stale paths hold the fake provider on a channel so the second
//   operation overlaps the first without sleeping.

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matnoble/mdeditor/internal/llm"
	"github.com/matnoble/mdeditor/internal/theme"
)

// fakeProvider answers every completion with reply, optionally waiting for
// release first.
type fakeProvider struct {
	reply   string
	finish  string
	err     error
	started chan struct{}
	release chan struct{}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Complete(ctx context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.started != nil {
		close(p.started)
	}
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.reply, FinishReason: p.finish}, nil
}

// recorder collects notices and events.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
	events  []Event
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recorder) lastNotice() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()

	ed, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return ed
}

// ---------------------------------------------------------------------------
// TestNew_Defaults - Construction and options
// ---------------------------------------------------------------------------

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	ed := newEditor(t)
	st := ed.State()

	if st.ThemeID != theme.Default().ID {
		t.Errorf("ThemeID = %q, want %q", st.ThemeID, theme.Default().ID)
	}
	if st.Text != "" || st.Flags.Busy() || st.Version != 0 {
		t.Errorf("State() = %+v, want empty idle state", st)
	}
	if ed.AIAvailable() {
		t.Error("AIAvailable() = true without provider")
	}
	styles := ed.Stylesheets()
	if styles.Base == "" || styles.Math == "" || !strings.Contains(styles.Theme, ".hl-dracula-") {
		t.Error("Stylesheets() missing base, math or highlight rules")
	}
}

func TestNew_UnknownThemeFallsBack(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithTheme("no-such-theme"))
	if got := ed.Theme().ID; got != theme.Default().ID {
		t.Errorf("Theme().ID = %q, want %q", got, theme.Default().ID)
	}
}

func TestNew_InvalidAssetPath(t *testing.T) {
	t.Parallel()

	_, err := New(WithAssetPath("/definitely/not/here"))
	if !errors.Is(err, ErrInvalidAssetPath) {
		t.Errorf("New() error = %v, want ErrInvalidAssetPath", err)
	}
}

func TestWithAITimeout_PanicsOnNonPositive(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithAITimeout(0) did not panic")
		}
	}()
	WithAITimeout(0)
}

// ---------------------------------------------------------------------------
// TestSetters_EmitOnChangeOnly - State changes and events
// ---------------------------------------------------------------------------

func TestSetters_EmitOnChangeOnly(t *testing.T) {
	t.Parallel()

	ed := newEditor(t)
	rec := &recorder{}
	cancel := ed.Subscribe(rec.record)

	ed.SetText("a")
	ed.SetText("a")
	ed.SetTextFrom("client-1", "b")
	ed.SetTheme(theme.DraculaID)
	ed.SetTheme(theme.DraculaID)
	ed.SetCustomCSS("p{}")
	ed.SetCustomCSS("p{}")

	want := []EventKind{EventText, EventText, EventTheme, EventCustomCSS}
	got := rec.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if rec.events[1].Origin != "client-1" {
		t.Errorf("Origin = %q, want client-1", rec.events[1].Origin)
	}
	if v := ed.State().Version; v != 2 {
		t.Errorf("Version = %d, want 2", v)
	}

	cancel()
	ed.SetText("c")
	if n := len(rec.kinds()); n != len(want) {
		t.Errorf("events after cancel = %d, want %d", n, len(want))
	}
}

func TestSetTheme_ReturnsResolvedDescriptor(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithTheme(theme.DraculaID))
	d := ed.SetTheme("bogus")
	if d.ID != theme.Default().ID || ed.State().ThemeID != d.ID {
		t.Errorf("SetTheme(bogus) = %q, state %q", d.ID, ed.State().ThemeID)
	}
}

// ---------------------------------------------------------------------------
// TestPreview - Preview, page and export
// ---------------------------------------------------------------------------

func TestPreview(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithText("# Title\n\n==mark== and $x^2$"), WithTheme(theme.DraculaID))
	res, err := ed.Preview(context.Background())
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if res.ThemeID != theme.DraculaID {
		t.Errorf("ThemeID = %q", res.ThemeID)
	}
	for _, want := range []string{"<h1", "<mark>mark</mark>", "math-inline"} {
		if !strings.Contains(res.HTML, want) {
			t.Errorf("preview missing %q:\n%s", want, res.HTML)
		}
	}
}

func TestPage(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithText("# Hello"), WithTheme(theme.CustomID), WithCustomCSS("h1{color:red}"))
	p, err := ed.Page(context.Background())
	if err != nil {
		t.Fatalf("Page() error = %v", err)
	}
	out := p.String()
	for _, want := range []string{`id="theme-select"`, `id="print-container"`, "h1{color:red}", "Hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestExportCurrent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		theme      string
		wantCustom bool
	}{
		{name: "custom theme inlines user css", theme: theme.CustomID, wantCustom: true},
		{name: "preset theme omits user css", theme: theme.GitHubLightID, wantCustom: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ed := newEditor(t,
				WithText("# Quarterly Report\n\n```go\nfmt.Println(1)\n```"),
				WithTheme(tt.theme),
				WithCustomCSS(".marker-rule{}"),
			)
			doc, err := ed.ExportCurrent(context.Background())
			if err != nil {
				t.Fatalf("ExportCurrent() error = %v", err)
			}
			if doc.Filename != "Quarterly-Report.html" {
				t.Errorf("Filename = %q", doc.Filename)
			}
			out := string(doc.HTML)
			if got := strings.Contains(out, ".marker-rule{}"); got != tt.wantCustom {
				t.Errorf("custom css present = %v, want %v", got, tt.wantCustom)
			}
			if strings.Contains(out, "theme-select") {
				t.Error("export contains editor chrome")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestFormat - Text transforms
// ---------------------------------------------------------------------------

func TestFormat(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithText("Title\n=====\n\n*  one\n*  two\n"))
	rec := &recorder{}
	ed.Subscribe(rec.record)

	if err := ed.Format(context.Background()); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	st := ed.State()
	if !strings.HasPrefix(st.Text, "# Title") {
		t.Errorf("Text = %q, want ATX heading", st.Text)
	}
	if st.Flags.Busy() {
		t.Error("flags still raised")
	}

	kinds := rec.kinds()
	want := []EventKind{EventFlags, EventFlags, EventText}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	if !rec.events[0].State.Flags.Format || rec.events[1].State.Flags.Format {
		t.Error("format flag not raised then cleared")
	}
}

func TestRewrite_MissingAPIKey(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ed := newEditor(t, WithText("text"), WithNotifier(rec))
	events := &recorder{}
	ed.Subscribe(events.record)

	for _, run := range []func(context.Context) error{ed.Polish, ed.Typeset} {
		if err := run(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("error = %v, want ErrMissingAPIKey", err)
		}
	}
	for _, k := range events.kinds() {
		if k == EventFlags {
			t.Error("flags raised without API key")
		}
	}
	if n, ok := rec.lastNotice(); !ok || n.Level != LevelError || !strings.Contains(n.Message, "API_KEY") {
		t.Errorf("notice = %+v", n)
	}
}

func TestPolish(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithText("teh text"), WithProvider(&fakeProvider{reply: "  The text.\n"}))
	if err := ed.Polish(context.Background()); err != nil {
		t.Fatalf("Polish() error = %v", err)
	}
	if got := ed.State().Text; got != "The text." {
		t.Errorf("Text = %q", got)
	}
}

func TestTypeset_StripsFence(t *testing.T) {
	t.Parallel()

	ed := newEditor(t, WithText("a ,b"), WithProvider(&fakeProvider{reply: "```markdown\na, b\n```"}))
	if err := ed.Typeset(context.Background()); err != nil {
		t.Fatalf("Typeset() error = %v", err)
	}
	if got := ed.State().Text; got != "a, b" {
		t.Errorf("Text = %q", got)
	}
}

func TestRewrite_ProviderFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	ed := newEditor(t,
		WithText("original"),
		WithNotifier(rec),
		WithProvider(&fakeProvider{err: errors.New("boom")}),
	)
	if err := ed.Polish(context.Background()); err == nil {
		t.Fatal("Polish() error = nil")
	}
	st := ed.State()
	if st.Text != "original" || st.Flags.Busy() {
		t.Errorf("State() = %+v, want unchanged idle", st)
	}
	if n, ok := rec.lastNotice(); !ok || n.Level != LevelError {
		t.Errorf("notice = %+v", n)
	}
}

func TestRewrite_TruncatedReplyKeepsDocument(t *testing.T) {
	t.Parallel()

	original := "# Chapter 1\n\n" + strings.Repeat("A long paragraph. ", 30) + "\n\n## Part 2\n\nMore."
	rec := &recorder{}
	ed := newEditor(t,
		WithText(original),
		WithNotifier(rec),
		WithProvider(&fakeProvider{reply: "# Chapter 1\n\nFirst half only", finish: "MAX_TOKENS"}),
	)
	if err := ed.Polish(context.Background()); err == nil {
		t.Fatal("Polish() error = nil")
	}
	if got := ed.State().Text; got != original {
		t.Errorf("Text = %q, want the original document", got)
	}
	if n, ok := rec.lastNotice(); !ok || n.Level != LevelError {
		t.Errorf("notice = %+v, want an error notice", n)
	}
}

func TestRewrite_BusyAndStale(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{reply: "rewritten", started: make(chan struct{}), release: make(chan struct{})}
	rec := &recorder{}
	ed := newEditor(t, WithText("draft"), WithProvider(p), WithNotifier(rec))

	done := make(chan error, 1)
	go func() { done <- ed.Polish(context.Background()) }()

	select {
	case <-p.started:
	case <-time.After(5 * time.Second):
		t.Fatal("provider never called")
	}

	if !ed.State().Flags.Polish {
		t.Error("polish flag not raised")
	}
	if err := ed.Format(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("Format() during polish error = %v, want ErrBusy", err)
	}

	ed.SetText("edited meanwhile")
	close(p.release)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Errorf("Polish() error = %v, want ErrStale", err)
	}
	st := ed.State()
	if st.Text != "edited meanwhile" || st.Flags.Busy() {
		t.Errorf("State() = %+v", st)
	}
	if n, ok := rec.lastNotice(); !ok || n.Level != LevelInfo {
		t.Errorf("notice = %+v", n)
	}
}

func TestRun_UnknownOperation(t *testing.T) {
	t.Parallel()

	ed := newEditor(t)
	if err := ed.Run(context.Background(), Operation("shout")); err == nil {
		t.Error("Run(shout) error = nil")
	}
}
