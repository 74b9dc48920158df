// Package copyfeedback tracks which code block was copied most recently and
// reverts the indicator after a short delay.
package copyfeedback

import (
	"sync"
	"time"
)

// DefaultRevertDelay is how long the copied indicator stays on.
const DefaultRevertDelay = 2 * time.Second

// Tracker holds the transient copied state. A newer copy cancels the pending
// revert of the older one, so reverts never stack and each copy action
// reverts at most once. Safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	delay    time.Duration
	copied   string
	timer    *time.Timer
	seq      uint64
	onChange func(blockID string)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithDelay overrides DefaultRevertDelay.
func WithDelay(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.delay = d
		}
	}
}

// WithOnChange registers a callback invoked with the copied block ID on every
// transition; an empty ID means the indicator reverted.
func WithOnChange(fn func(blockID string)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// NewTracker creates a Tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{delay: DefaultRevertDelay}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Copy marks blockID as copied and schedules its revert.
func (t *Tracker) Copy(blockID string) {
	if blockID == "" {
		return
	}

	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.copied = blockID
	t.timer = time.AfterFunc(t.delay, func() { t.revert(seq) })
	notify := t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify(blockID)
	}
}

// revert clears the indicator unless a newer copy superseded seq.
func (t *Tracker) revert(seq uint64) {
	t.mu.Lock()
	if seq != t.seq || t.copied == "" {
		t.mu.Unlock()
		return
	}
	t.copied = ""
	t.timer = nil
	notify := t.onChange
	t.mu.Unlock()

	if notify != nil {
		notify("")
	}
}

// Copied returns the block currently shown as copied, or "".
func (t *Tracker) Copied() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copied
}

// Stop cancels any pending revert without notifying.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.seq++
	t.copied = ""
}
