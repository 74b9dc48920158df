// Package scroll couples two independently scrollable panes by proportional
// position.
package scroll

import (
	"math"
	"sync"
)

// Metrics is a snapshot of a pane's scroll geometry, in pixels.
type Metrics struct {
	Offset       float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// Range is the scrollable distance. Content shorter than the viewport has
// a range of zero.
func (m Metrics) Range() float64 {
	return math.Max(0, m.ScrollHeight-m.ClientHeight)
}

// Ratio is the relative position in [0, 1]. It reports false for a zero
// range, in which case the pane is treated as already synchronized.
func (m Metrics) Ratio() (float64, bool) {
	r := m.Range()
	if r <= 0 {
		return 0, false
	}
	return clamp01(m.Offset / r), true
}

// Target returns the offset that places m at ratio. Ratios 0 and 1 map
// exactly onto 0 and m.Range().
func Target(ratio float64, m Metrics) float64 {
	switch {
	case ratio <= 0:
		return 0
	case ratio >= 1:
		return m.Range()
	}
	return ratio * m.Range()
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// Side names one of the two coupled panes.
type Side int

const (
	// Editor is the raw-text surface.
	Editor Side = iota
	// Preview is the rendered surface.
	Preview
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Editor {
		return Preview
	}
	return Editor
}

func (s Side) String() string {
	if s == Editor {
		return "editor"
	}
	return "preview"
}

// ParseSide maps a wire name to a Side.
func ParseSide(name string) (Side, bool) {
	switch name {
	case "editor":
		return Editor, true
	case "preview":
		return Preview, true
	}
	return Editor, false
}

// Pane is a scrollable surface. Metrics must reflect the state at call time.
// ScrollTo may raise a scroll notification for the pane, synchronously or
// later; the Synchronizer recognizes it as an echo.
type Pane interface {
	Metrics() Metrics
	ScrollTo(offset float64)
}

// DefaultEpsilon is the tolerance, in pixels, for matching an echo against
// the offset that was written. Browsers round scroll offsets to device pixels.
const DefaultEpsilon = 1.0

// maxPending bounds the outstanding writes remembered per pane. Older ones
// are forgotten first.
const maxPending = 8

// Synchronizer drives either pane from the other. Safe for concurrent use.
type Synchronizer struct {
	mu      sync.Mutex
	panes   [2]Pane
	pending [2][]float64 // offsets written to a pane whose echoes are outstanding, oldest first
	epsilon float64
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithEpsilon overrides DefaultEpsilon.
func WithEpsilon(eps float64) Option {
	return func(s *Synchronizer) {
		if eps >= 0 {
			s.epsilon = eps
		}
	}
}

// NewSynchronizer couples the editor and preview panes.
func NewSynchronizer(editor, preview Pane, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		panes:   [2]Pane{editor, preview},
		epsilon: DefaultEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleScroll processes a scroll notification raised by the pane on side
// from and reports whether the opposite pane was moved. The echo of a
// programmatic write is swallowed even when later writes to the same pane
// are still in flight, so a write never bounces back to its origin.
func (s *Synchronizer) HandleScroll(from Side) bool {
	s.mu.Lock()
	src, dst := s.panes[from], s.panes[from.Other()]
	m := src.Metrics()

	if s.consumeEcho(from, m.Offset) {
		s.mu.Unlock()
		return false
	}

	ratio, ok := m.Ratio()
	if !ok {
		s.mu.Unlock()
		return false
	}

	dm := dst.Metrics()
	if dm.Range() <= 0 {
		s.mu.Unlock()
		return false
	}
	target := Target(ratio, dm)
	if dm.Offset == target {
		s.mu.Unlock()
		return false
	}

	s.expectEcho(from.Other(), target)
	s.mu.Unlock()

	// Outside the lock: ScrollTo may re-enter HandleScroll with the echo.
	dst.ScrollTo(target)
	return true
}

// consumeEcho reports whether offset matches a write still outstanding on
// side. Echoes arrive in write order, so the match and every older write
// are retired together.
func (s *Synchronizer) consumeEcho(side Side, offset float64) bool {
	for i, want := range s.pending[side] {
		if math.Abs(offset-want) <= s.epsilon {
			s.pending[side] = s.pending[side][i+1:]
			return true
		}
	}
	return false
}

func (s *Synchronizer) expectEcho(side Side, offset float64) {
	q := append(s.pending[side], offset)
	if len(q) > maxPending {
		q = q[len(q)-maxPending:]
	}
	s.pending[side] = q
}

// Reset forgets outstanding echoes, e.g. after the preview content was
// replaced and its geometry changed.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = [2][]float64{}
}
