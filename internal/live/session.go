// Package live runs the page's interactive state on the server. Every
// open page holds one WebSocket session that owns a typewriter, a scroll
// tracker and a label field for as long as the page is mounted.
package live

import (
	"context"
	"encoding/json"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ajemaa/portfolio/internal/floating"
	"github.com/ajemaa/portfolio/internal/scrollspy"
	"github.com/ajemaa/portfolio/internal/typewriter"
)

const (
	writeWait   = 5 * time.Second
	outboxSize  = 64
	maxReadSize = 64 << 10
)

// Inbound message types.
const (
	MsgMount  = "mount"
	MsgLayout = "layout"
	MsgScroll = "scroll"
)

// Outbound message types.
const (
	MsgTypewriter = "typewriter"
	MsgLabels     = "labels"
	MsgError      = "error"
)

type inbound struct {
	Type     string         `json:"type"`
	Y        int            `json:"y"`
	Sections map[string]int `json:"sections,omitempty"`
}

// TypewriterMessage carries the hero text.
type TypewriterMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Index int    `json:"index"`
	Mode  string `json:"mode"`
}

// ScrollMessage carries the navigation highlight and parallax offsets.
type ScrollMessage struct {
	Type     string                  `json:"type"`
	Offset   int                     `json:"offset"`
	Active   string                  `json:"active"`
	Scrolled bool                    `json:"scrolled"`
	Parallax map[string]float64      `json:"parallax"`
	Hero     scrollspy.HeroTransform `json:"hero"`
}

// LabelsMessage carries the floating label layout.
type LabelsMessage struct {
	Type   string               `json:"type"`
	Phase  string               `json:"phase"`
	Labels []floating.Placement `json:"labels"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Session is one mounted page.
type Session struct {
	ID string

	hub    *Hub
	conn   *websocket.Conn
	typer  *typewriter.Engine
	spy    *scrollspy.Tracker
	field  *floating.Field
	outbox chan any
	done   chan struct{}

	// The newest scroll and labels messages are kept apart from outbox so
	// a backlog of typewriter frames cannot drop them. wake signals the
	// writer that one of them changed.
	latestMu     sync.Mutex
	latestScroll *ScrollMessage
	latestLabels *LabelsMessage
	wake         chan struct{}

	mu      sync.Mutex
	mounted bool
	active  string
}

func newSession(h *Hub, id string, conn *websocket.Conn, rng *rand.Rand) *Session {
	content := h.content()
	s := &Session{
		ID:     id,
		hub:    h,
		conn:   conn,
		typer:  typewriter.New(content.Personal.Phrases(), h.opts.Typewriter, h.clk),
		spy:    scrollspy.New(h.sections, scrollspy.ClockFrames{Clock: h.clk, Interval: h.opts.FrameInterval}, h.opts.Scroll),
		field:  floating.NewField(content.FloatingLabels(), rng),
		outbox: make(chan any, outboxSize),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
	}
	s.typer.OnChange(s.onTypewriter)
	s.spy.OnChange(s.onScroll)
	return s
}

// run blocks until the connection closes, then releases everything the
// session owns.
func (s *Session) run() {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	s.readLoop()

	s.typer.Stop()
	s.spy.Close()
	close(s.done)
	<-writerDone
	s.conn.Close()
}

func (s *Session) readLoop() {
	s.conn.SetReadLimit(maxReadSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[Live] session %s read: %v", s.ID, err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(errorMessage{Type: MsgError, Error: "invalid message format"})
			continue
		}
		s.handle(msg)
	}
}

func (s *Session) handle(msg inbound) {
	switch msg.Type {
	case MsgMount:
		s.mount()
	case MsgLayout:
		s.spy.SetLayout(msg.Sections)
	case MsgScroll:
		s.spy.Scroll(msg.Y)
	default:
		if s.hub.debug {
			log.Printf("[Live] session %s: ignoring message type %q", s.ID, msg.Type)
		}
	}
}

// mount is the post-first-paint transition. A second mount is ignored.
func (s *Session) mount() {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.mu.Unlock()

	if s.field.Randomize() {
		s.sendLatest(nil, &LabelsMessage{Type: MsgLabels, Phase: s.field.Phase().String(), Labels: s.field.Placements()})
	}
	s.typer.Start()
}

func (s *Session) onTypewriter(st typewriter.State) {
	s.send(TypewriterMessage{
		Type:  MsgTypewriter,
		Text:  st.Displayed,
		Index: st.Index,
		Mode:  st.Mode.String(),
	})
}

func (s *Session) onScroll(st scrollspy.State) {
	s.sendLatest(&ScrollMessage{
		Type:     MsgScroll,
		Offset:   st.Offset,
		Active:   st.Active,
		Scrolled: st.Scrolled,
		Parallax: scrollspy.Offsets(st.Offset, scrollspy.BackgroundLayers),
		Hero:     scrollspy.Hero(st.Offset, s.hub.opts.HeroHeight),
	}, nil)

	s.mu.Lock()
	changed := st.Active != "" && st.Active != s.active
	s.active = st.Active
	s.mu.Unlock()
	if changed && s.hub.recorder != nil {
		id, section := s.ID, st.Active
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.hub.recorder.RecordSectionView(ctx, id, section); err != nil {
				log.Printf("[Live] recording section view: %v", err)
			}
		}()
	}
}

// send queues msg for the writer. Messages are dropped rather than
// blocking the engine when the client falls behind; the next typewriter
// frame carries the full text again.
func (s *Session) send(msg any) {
	select {
	case s.outbox <- msg:
	case <-s.done:
	default:
		if s.hub.debug {
			log.Printf("[Live] session %s: outbox full, dropping message", s.ID)
		}
	}
}

// sendLatest replaces the pending scroll or labels message, whichever is
// non-nil, and wakes the writer. An older unsent message of the same kind
// is superseded, never lost behind the outbox.
func (s *Session) sendLatest(scroll *ScrollMessage, labels *LabelsMessage) {
	s.latestMu.Lock()
	if scroll != nil {
		s.latestScroll = scroll
	}
	if labels != nil {
		s.latestLabels = labels
	}
	s.latestMu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// takeLatest returns the pending replaceable messages, labels first, and
// clears them.
func (s *Session) takeLatest() []any {
	s.latestMu.Lock()
	defer s.latestMu.Unlock()
	var out []any
	if s.latestLabels != nil {
		out = append(out, *s.latestLabels)
		s.latestLabels = nil
	}
	if s.latestScroll != nil {
		out = append(out, *s.latestScroll)
		s.latestScroll = nil
	}
	return out
}

func (s *Session) write(msg any) bool {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(msg); err != nil {
		log.Printf("[Live] session %s write: %v", s.ID, err)
		// unblock the reader so the session tears down
		s.conn.Close()
		return false
	}
	return true
}

func (s *Session) writeLoop() {
	for {
		select {
		case msg := <-s.outbox:
			if !s.write(msg) {
				return
			}
		case <-s.wake:
			for _, msg := range s.takeLatest() {
				if !s.write(msg) {
					return
				}
			}
		case <-s.done:
			return
		}
	}
}
