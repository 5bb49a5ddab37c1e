package live

import (
	"context"
	"log"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ajemaa/portfolio/internal/clock"
	"github.com/ajemaa/portfolio/internal/portfolio"
	"github.com/ajemaa/portfolio/internal/scrollspy"
	"github.com/ajemaa/portfolio/internal/typewriter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SectionRecorder is told the first time each session reaches a section.
type SectionRecorder interface {
	RecordSectionView(ctx context.Context, sessionID, section string) error
}

// Options configure the engines created for each session.
type Options struct {
	Typewriter    typewriter.Options
	Scroll        scrollspy.Options
	FrameInterval time.Duration
	HeroHeight    int
	Debug         bool
}

// Hub tracks the live sessions.
type Hub struct {
	opts     Options
	clk      clock.Clock
	content  func() *portfolio.Portfolio
	recorder SectionRecorder
	sections []string
	debug    bool
	newRand  func() *rand.Rand

	mu       sync.Mutex
	sessions map[string]*Session
	closing  bool
	wg       sync.WaitGroup
}

// NewHub creates a hub. content is called once per session so content
// reloads apply to new page views. recorder may be nil.
func NewHub(opts Options, clk clock.Clock, content func() *portfolio.Portfolio, recorder SectionRecorder) *Hub {
	if clk == nil {
		clk = clock.Real()
	}
	return &Hub{
		opts:     opts,
		clk:      clk,
		content:  content,
		recorder: recorder,
		sections: portfolio.SectionIDs(),
		debug:    opts.Debug,
		newRand:  func() *rand.Rand { return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) },
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and runs a session until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Live] websocket upgrade: %v", err)
		return
	}

	s := newSession(h, uuid.NewString(), conn, h.newRand())
	if !h.add(s) {
		closeGoingAway(conn)
		return
	}
	defer h.remove(s)

	if h.debug {
		log.Printf("[Live] session %s connected", s.ID)
	}
	s.run()
	if h.debug {
		log.Printf("[Live] session %s closed", s.ID)
	}
}

// add registers s. It refuses once Shutdown has begun.
func (h *Hub) add(s *Session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closing {
		return false
	}
	h.sessions[s.ID] = s
	h.wg.Add(1)
	return true
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.ID]; ok {
		delete(h.sessions, s.ID)
		h.wg.Done()
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session and waits for them to release their
// engines or for ctx to expire. Connections upgraded afterwards are
// closed immediately.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closing = true
	conns := make([]*websocket.Conn, 0, len(h.sessions))
	for _, s := range h.sessions {
		conns = append(conns, s.conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		closeGoingAway(conn)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closeGoingAway(conn *websocket.Conn) {
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	conn.Close()
}
