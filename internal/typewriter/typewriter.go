// Package typewriter cycles a list of phrases through a type, pause and
// delete loop driven by a single timer.
package typewriter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ajemaa/portfolio/internal/clock"
)

// Mode is the phase of the typing loop.
type Mode int

const (
	Typing Mode = iota
	PausedAtFull
	Deleting
)

func (m Mode) String() string {
	switch m {
	case Typing:
		return "typing"
	case PausedAtFull:
		return "paused"
	case Deleting:
		return "deleting"
	default:
		return "unknown"
	}
}

const (
	DefaultTypingSpeed   = 80 * time.Millisecond
	DefaultDeletingSpeed = 50 * time.Millisecond
	DefaultPauseDuration = 2000 * time.Millisecond
)

// Options holds the per-character delays and the pause at a full phrase.
type Options struct {
	TypingSpeed   time.Duration
	DeletingSpeed time.Duration
	PauseDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.TypingSpeed <= 0 {
		o.TypingSpeed = DefaultTypingSpeed
	}
	if o.DeletingSpeed <= 0 {
		o.DeletingSpeed = DefaultDeletingSpeed
	}
	if o.PauseDuration <= 0 {
		o.PauseDuration = DefaultPauseDuration
	}
	return o
}

// State is a snapshot of the engine.
type State struct {
	Index     int
	Displayed string
	Mode      Mode
	Mounted   bool
}

// cursor is the position inside the phrase list. n counts runes.
type cursor struct {
	index int
	n     int
	mode  Mode
}

// settle applies the zero-delay transitions: a fully typed phrase pauses
// and a fully deleted phrase moves on to the next one.
func (c cursor) settle(phrases [][]rune) cursor {
	for {
		switch {
		case c.mode == Typing && c.n >= len(phrases[c.index]):
			c.n = len(phrases[c.index])
			c.mode = PausedAtFull
		case c.mode == Deleting && c.n <= 0:
			c.n = 0
			c.index = (c.index + 1) % len(phrases)
			c.mode = Typing
			if len(phrases[c.index]) > 0 {
				return c
			}
		default:
			return c
		}
	}
}

func (c cursor) delay(o Options) time.Duration {
	switch c.mode {
	case Typing:
		return o.TypingSpeed
	case PausedAtFull:
		return o.PauseDuration
	default:
		return o.DeletingSpeed
	}
}

func (c cursor) advance(phrases [][]rune) cursor {
	switch c.mode {
	case Typing:
		c.n++
	case PausedAtFull:
		c.mode = Deleting
	case Deleting:
		c.n--
	}
	return c.settle(phrases)
}

// Static returns the text shown before the engine is mounted: the first
// phrase in full, or "" for an empty list.
func Static(phrases []string) string {
	if len(phrases) == 0 {
		return ""
	}
	return phrases[0]
}

// Engine drives the loop. The zero value is not usable; call New.
type Engine struct {
	mu       sync.Mutex
	clk      clock.Clock
	opts     Options
	phrases  [][]rune
	cur      cursor
	mounted  bool
	timer    clock.Timer
	gen      uint64
	onChange func(State)

	stopped atomic.Bool
	emitMu  sync.Mutex
}

// New creates an unmounted engine. The phrase list is copied.
func New(phrases []string, opts Options, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	rs := make([][]rune, len(phrases))
	for i, p := range phrases {
		rs[i] = []rune(p)
	}
	return &Engine{
		clk:     clk,
		opts:    opts.withDefaults(),
		phrases: rs,
	}
}

// OnChange registers fn to receive every state change after mount. fn is
// called outside the engine lock but must not call Stop.
func (e *Engine) OnChange(fn func(State)) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

// Options returns the effective delays.
func (e *Engine) Options() Options { return e.opts }

// Start mounts the engine and schedules the first tick. It does nothing
// for an empty phrase list, a running engine, or one already stopped.
func (e *Engine) Start() {
	e.mu.Lock()
	if len(e.phrases) == 0 || e.mounted || e.stopped.Load() {
		e.mu.Unlock()
		return
	}
	e.mounted = true
	e.cur = cursor{mode: Typing}.settle(e.phrases)
	e.scheduleLocked()
	st := e.snapshotLocked()
	fn := e.onChange
	e.mu.Unlock()

	e.emit(fn, st)
}

// Stop cancels the pending timer. After Stop returns no callback runs.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.stopped.Store(true)
	e.gen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.mu.Unlock()

	// wait out a notification already in flight
	e.emitMu.Lock()
	e.emitMu.Unlock()
}

// State returns the current snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Text returns the string to display right now.
func (e *Engine) Text() string {
	return e.State().Displayed
}

func (e *Engine) snapshotLocked() State {
	if len(e.phrases) == 0 {
		return State{}
	}
	if !e.mounted {
		return State{Displayed: string(e.phrases[0]), Mode: PausedAtFull}
	}
	return State{
		Index:     e.cur.index,
		Displayed: string(e.phrases[e.cur.index][:e.cur.n]),
		Mode:      e.cur.mode,
		Mounted:   true,
	}
}

func (e *Engine) scheduleLocked() {
	gen := e.gen
	e.timer = e.clk.AfterFunc(e.cur.delay(e.opts), func() { e.tick(gen) })
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.stopped.Load() || gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.gen++
	e.cur = e.cur.advance(e.phrases)
	e.scheduleLocked()
	st := e.snapshotLocked()
	fn := e.onChange
	e.mu.Unlock()

	e.emit(fn, st)
}

func (e *Engine) emit(fn func(State), st State) {
	if fn == nil {
		return
	}
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	if e.stopped.Load() {
		return
	}
	fn(st)
}
