// Package scrollspy turns raw viewport scroll events into a throttled
// offset and the id of the section currently under the navigation bar.
package scrollspy

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajemaa/portfolio/internal/clock"
)

const (
	DefaultThreshold     = 100
	DefaultScrolledAfter = 50
	DefaultFrameInterval = time.Second / 60
)

// FrameScheduler runs fn once on the next display refresh.
type FrameScheduler interface {
	RequestFrame(fn func()) (cancel func())
}

// ClockFrames emulates a refresh cycle with a fixed interval.
type ClockFrames struct {
	Clock    clock.Clock
	Interval time.Duration
}

func (f ClockFrames) RequestFrame(fn func()) func() {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	c := f.Clock
	if c == nil {
		c = clock.Real()
	}
	t := c.AfterFunc(interval, fn)
	return func() { t.Stop() }
}

// Options tune the tracker.
type Options struct {
	// Threshold is the distance in pixels from the viewport top a section
	// must reach before it counts as active.
	Threshold int
	// ScrolledAfter sets State.Scrolled once the offset passes it.
	ScrolledAfter int
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.ScrolledAfter <= 0 {
		o.ScrolledAfter = DefaultScrolledAfter
	}
	return o
}

// State is what the page reacts to.
type State struct {
	Offset   int
	Active   string
	Scrolled bool
}

// ActiveSection scans ids from last to first and returns the first whose
// top, relative to the viewport, is at or above threshold. Sections
// missing from tops are skipped. It returns "" when none qualify.
func ActiveSection(ids []string, tops map[string]int, offset, threshold int) string {
	for i := len(ids) - 1; i >= 0; i-- {
		top, ok := tops[ids[i]]
		if !ok {
			continue
		}
		if top-offset <= threshold {
			return ids[i]
		}
	}
	return ""
}

// Tracker coalesces scroll events into at most one update per frame.
type Tracker struct {
	mu       sync.Mutex
	ids      []string
	known    map[string]bool
	opts     Options
	frames   FrameScheduler
	tops     map[string]int
	pending  int
	cancel   func()
	state    State
	updates  int
	onChange func(State)

	closed atomic.Bool
	emitMu sync.Mutex
}

// New creates a tracker for ids in document order.
func New(ids []string, frames FrameScheduler, opts Options) *Tracker {
	if frames == nil {
		frames = ClockFrames{Clock: clock.Real()}
	}
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &Tracker{
		ids:    append([]string(nil), ids...),
		known:  known,
		opts:   opts.withDefaults(),
		frames: frames,
		tops:   make(map[string]int),
	}
}

// OnChange registers fn to receive each per-frame update. fn must not
// call Close.
func (t *Tracker) OnChange(fn func(State)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// SetLayout records the document offsets of section tops and schedules a
// re-evaluation on the next frame.
func (t *Tracker) SetLayout(tops map[string]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return
	}
	t.tops = make(map[string]int, len(tops))
	for id, top := range tops {
		if t.known[id] {
			t.tops[id] = top
		}
	}
	t.requestLocked()
}

// Layout returns a copy of the current section tops.
func (t *Tracker) Layout() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.tops)
}

// Scroll records a raw scroll event.
func (t *Tracker) Scroll(offset int) {
	if offset < 0 {
		offset = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return
	}
	t.pending = offset
	t.requestLocked()
}

func (t *Tracker) requestLocked() {
	if t.cancel != nil {
		return
	}
	t.cancel = t.frames.RequestFrame(t.flush)
}

func (t *Tracker) flush() {
	t.mu.Lock()
	if t.closed.Load() {
		t.mu.Unlock()
		return
	}
	t.cancel = nil
	offset := t.pending
	t.state = State{
		Offset:   offset,
		Active:   ActiveSection(t.ids, t.tops, offset, t.opts.Threshold),
		Scrolled: offset > t.opts.ScrolledAfter,
	}
	t.updates++
	st := t.state
	fn := t.onChange
	t.mu.Unlock()

	if fn == nil {
		return
	}
	t.emitMu.Lock()
	defer t.emitMu.Unlock()
	if !t.closed.Load() {
		fn(st)
	}
}

// State returns the state as of the last frame.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Updates counts the frames that produced a state update.
func (t *Tracker) Updates() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates
}

// Close cancels the pending frame. No callback runs after Close returns.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed.Store(true)
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()

	t.emitMu.Lock()
	t.emitMu.Unlock()
}
