package scroll

// Notes:
// - Panes are fakes that can raise their own scroll notification, either
//   inside ScrollTo or later, to mimic browser event timing.

import (
	"math"
	"testing"
)

// fakePane records writes and can raise its own scroll notification the way
// a browser does after a programmatic scrollTop assignment.
type fakePane struct {
	m        Metrics
	writes   []float64
	onScroll func()
}

func (p *fakePane) Metrics() Metrics { return p.m }

func (p *fakePane) ScrollTo(offset float64) {
	p.m.Offset = offset
	p.writes = append(p.writes, offset)
	if p.onScroll != nil {
		p.onScroll()
	}
}

// ---------------------------------------------------------------------------
// TestMetrics_Ratio - Ratio math
// ---------------------------------------------------------------------------

func TestMetrics_Ratio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		m      Metrics
		want   float64
		wantOK bool
	}{
		{name: "top", m: Metrics{Offset: 0, ScrollHeight: 1000, ClientHeight: 200}, want: 0, wantOK: true},
		{name: "middle", m: Metrics{Offset: 400, ScrollHeight: 1000, ClientHeight: 200}, want: 0.5, wantOK: true},
		{name: "bottom", m: Metrics{Offset: 800, ScrollHeight: 1000, ClientHeight: 200}, want: 1, wantOK: true},
		{name: "overscroll clamps", m: Metrics{Offset: 900, ScrollHeight: 1000, ClientHeight: 200}, want: 1, wantOK: true},
		{name: "zero range", m: Metrics{Offset: 0, ScrollHeight: 200, ClientHeight: 200}, wantOK: false},
		{name: "content shorter than viewport", m: Metrics{ScrollHeight: 100, ClientHeight: 200}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := tt.m.Ratio()
			if ok != tt.wantOK {
				t.Fatalf("Ratio() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Ratio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTarget_Extremes(t *testing.T) {
	t.Parallel()

	for _, rng := range []float64{1, 7.5, 333.3, 12345} {
		m := Metrics{ScrollHeight: rng + 100, ClientHeight: 100}
		if got := Target(0, m); got != 0 {
			t.Errorf("Target(0) on range %v = %v, want 0", rng, got)
		}
		if got := Target(1, m); got != m.Range() {
			t.Errorf("Target(1) on range %v = %v, want %v", rng, got, m.Range())
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	a := Metrics{ScrollHeight: 5300, ClientHeight: 700}
	b := Metrics{ScrollHeight: 1210, ClientHeight: 700}

	for x := 0.0; x <= a.Range(); x += 37 {
		a.Offset = x
		ratio, _ := a.Ratio()
		b.Offset = Target(ratio, b)

		back, _ := b.Ratio()
		if got := Target(back, a); math.Abs(got-x) > 1e-6 {
			t.Fatalf("round trip from %v came back as %v", x, got)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSynchronizer_DrivesOtherPane - Synchronizer
// ---------------------------------------------------------------------------

func TestSynchronizer_DrivesOtherPane(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		from      Side
		src       Metrics
		dst       Metrics
		wantMoved bool
		wantDst   float64
	}{
		{
			name:      "editor to preview",
			from:      Editor,
			src:       Metrics{Offset: 150, ScrollHeight: 400, ClientHeight: 100},
			dst:       Metrics{ScrollHeight: 1100, ClientHeight: 100},
			wantMoved: true,
			wantDst:   500,
		},
		{
			name:      "preview to editor",
			from:      Preview,
			src:       Metrics{Offset: 1000, ScrollHeight: 1100, ClientHeight: 100},
			dst:       Metrics{ScrollHeight: 400, ClientHeight: 100},
			wantMoved: true,
			wantDst:   300,
		},
		{
			name: "zero range source is ignored",
			from: Editor,
			src:  Metrics{ScrollHeight: 100, ClientHeight: 100},
			dst:  Metrics{Offset: 42, ScrollHeight: 1100, ClientHeight: 100},
		},
		{
			name: "zero range destination is ignored",
			from: Editor,
			src:  Metrics{Offset: 10, ScrollHeight: 400, ClientHeight: 100},
			dst:  Metrics{ScrollHeight: 50, ClientHeight: 100},
		},
		{
			name: "already aligned",
			from: Editor,
			src:  Metrics{Offset: 300, ScrollHeight: 400, ClientHeight: 100},
			dst:  Metrics{Offset: 1000, ScrollHeight: 1100, ClientHeight: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			panes := [2]*fakePane{}
			panes[tt.from] = &fakePane{m: tt.src}
			panes[tt.from.Other()] = &fakePane{m: tt.dst}
			s := NewSynchronizer(panes[Editor], panes[Preview])

			moved := s.HandleScroll(tt.from)
			if moved != tt.wantMoved {
				t.Fatalf("HandleScroll() = %v, want %v", moved, tt.wantMoved)
			}
			dst := panes[tt.from.Other()]
			if !tt.wantMoved {
				if len(dst.writes) != 0 {
					t.Errorf("unexpected writes %v", dst.writes)
				}
				return
			}
			if dst.m.Offset != tt.wantDst {
				t.Errorf("destination offset = %v, want %v", dst.m.Offset, tt.wantDst)
			}
		})
	}
}

func TestSynchronizer_NoFeedbackLoop(t *testing.T) {
	t.Parallel()

	editor := &fakePane{m: Metrics{ScrollHeight: 400, ClientHeight: 100}}
	preview := &fakePane{m: Metrics{ScrollHeight: 1100, ClientHeight: 100}}
	s := NewSynchronizer(editor, preview)

	// Each programmatic write fires the receiving pane's handler at once.
	editor.onScroll = func() { s.HandleScroll(Editor) }
	preview.onScroll = func() { s.HandleScroll(Preview) }

	editor.m.Offset = 123
	if !s.HandleScroll(Editor) {
		t.Fatal("first scroll should move the preview")
	}

	if len(preview.writes) != 1 {
		t.Errorf("preview writes = %v, want exactly one", preview.writes)
	}
	if len(editor.writes) != 0 {
		t.Errorf("echo bounced back to editor: %v", editor.writes)
	}
	if editor.m.Offset != 123 {
		t.Errorf("editor offset drifted to %v", editor.m.Offset)
	}
}

func TestSynchronizer_DeferredEcho(t *testing.T) {
	t.Parallel()

	editor := &fakePane{m: Metrics{Offset: 100, ScrollHeight: 400, ClientHeight: 100}}
	preview := &fakePane{m: Metrics{ScrollHeight: 1100, ClientHeight: 100}}
	s := NewSynchronizer(editor, preview)

	s.HandleScroll(Editor)

	t.Run("rounded echo is swallowed", func(t *testing.T) {
		preview.m.Offset = math.Round(preview.m.Offset + 0.4)
		if s.HandleScroll(Preview) {
			t.Error("echo should not move the editor")
		}
	})

	t.Run("genuine scroll after echo is handled", func(t *testing.T) {
		preview.m.Offset = 1000
		if !s.HandleScroll(Preview) {
			t.Fatal("user scroll should move the editor")
		}
		if editor.m.Offset != 300 {
			t.Errorf("editor offset = %v, want 300", editor.m.Offset)
		}
	})
}

func TestSynchronizer_ReadsCurrentMetrics(t *testing.T) {
	t.Parallel()

	editor := &fakePane{m: Metrics{Offset: 0, ScrollHeight: 400, ClientHeight: 100}}
	preview := &fakePane{m: Metrics{ScrollHeight: 1100, ClientHeight: 100}}
	s := NewSynchronizer(editor, preview)

	for _, off := range []float64{30, 60, 300, 0} {
		editor.m.Offset = off
		s.HandleScroll(Editor)
		s.HandleScroll(Preview) // echo
		want := off / 300 * 1000
		if math.Abs(preview.m.Offset-want) > 1e-9 {
			t.Errorf("after editor at %v preview = %v, want %v", off, preview.m.Offset, want)
		}
	}
}

func TestParseSide(t *testing.T) {
	t.Parallel()

	for _, side := range []Side{Editor, Preview} {
		got, ok := ParseSide(side.String())
		if !ok || got != side {
			t.Errorf("ParseSide(%q) = %v, %v", side.String(), got, ok)
		}
	}
	if _, ok := ParseSide("sidebar"); ok {
		t.Error("ParseSide accepted unknown side")
	}
}

// ---------------------------------------------------------------------------
// TestSynchronizer_StaleEchoDuringContinuousScroll - Echoes under continuous scrolling
// ---------------------------------------------------------------------------

func TestSynchronizer_StaleEchoDuringContinuousScroll(t *testing.T) {
	t.Parallel()

	editor := &fakePane{m: Metrics{ScrollHeight: 400, ClientHeight: 100}}
	preview := &fakePane{m: Metrics{ScrollHeight: 1100, ClientHeight: 100}}
	s := NewSynchronizer(editor, preview)

	// Two editor events land before the preview reports either write.
	editor.m.Offset = 30
	s.HandleScroll(Editor)
	editor.m.Offset = 60
	s.HandleScroll(Editor)
	if len(preview.writes) != 2 || preview.writes[0] != 100 || preview.writes[1] != 200 {
		t.Fatalf("preview writes = %v, want [100 200]", preview.writes)
	}

	for _, echo := range []float64{100, 200} {
		preview.m.Offset = echo
		if s.HandleScroll(Preview) {
			t.Errorf("echo of %v moved the editor", echo)
		}
	}
	if len(editor.writes) != 0 {
		t.Errorf("editor writes = %v, want none", editor.writes)
	}
	if editor.m.Offset != 60 {
		t.Errorf("editor offset = %v, want 60", editor.m.Offset)
	}

	t.Run("user scroll after echoes is handled", func(t *testing.T) {
		preview.m.Offset = 500
		if !s.HandleScroll(Preview) {
			t.Fatal("user scroll should move the editor")
		}
		if editor.m.Offset != 150 {
			t.Errorf("editor offset = %v, want 150", editor.m.Offset)
		}
	})
}

func TestSynchronizer_OnlyLatestEchoArrives(t *testing.T) {
	t.Parallel()

	editor := &fakePane{m: Metrics{ScrollHeight: 400, ClientHeight: 100}}
	preview := &fakePane{m: Metrics{ScrollHeight: 1100, ClientHeight: 100}}
	s := NewSynchronizer(editor, preview)

	// Browsers coalesce scroll events, so the first write may never echo.
	for _, off := range []float64{30, 60, 90} {
		editor.m.Offset = off
		s.HandleScroll(Editor)
	}
	preview.m.Offset = 300
	if s.HandleScroll(Preview) {
		t.Error("echo of the newest write moved the editor")
	}

	// Older writes were retired with the newest echo.
	preview.m.Offset = 100
	if !s.HandleScroll(Preview) {
		t.Error("scroll back to a retired offset should be handled")
	}
}
