// Package pushserver streams the latest published book snapshot JSON to
// websocket clients, each on its own symbol and push-interval schedule. A
// client's requested depth is stored and acknowledged but does not trim
// the pushed snapshot.
package pushserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mbostream/mbobook/pkg/middleware"
	"github.com/mbostream/mbobook/pkg/snapstore"
)

const (
	defaultSymbol = "CLX5"
	defaultDepth  = 10
	defaultPushMs = 50

	minDepth  = 1
	maxDepth  = 200
	minPushMs = 10
	maxPushMs = 5000
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server accepts websocket connections and drives one session per
// connection off the shared snapshot store.
type Server struct {
	logger  *zap.Logger
	store   *snapstore.Store
	monitor *middleware.Monitor
}

// New creates a Server that reads snapshots from store. flags controls
// which events the server logs individually; MonitorNone disables it.
func New(logger *zap.Logger, store *snapstore.Store, flags middleware.MonitorFlags) *Server {
	return &Server{logger: logger, store: store, monitor: middleware.NewMonitor(logger, flags)}
}

// HandleWS upgrades the HTTP request to a websocket and runs the
// connection's session until the client disconnects.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	sess := &session{
		conn:    conn,
		store:   s.store,
		logger:  s.logger,
		monitor: s.monitor,
		symbol:  defaultSymbol,
		depth:   defaultDepth,
		pushMs:  defaultPushMs,
	}
	sess.run()
}

// session holds one client connection's control-plane state (symbol,
// depth, push interval, guarded by mu) and data-plane bookkeeping
// (lastSent, inFlight). writeMu serializes the two physical writers
// (ack replies and snapshot pushes) since gorilla/websocket forbids
// concurrent writes to one connection.
type session struct {
	conn    *websocket.Conn
	store   *snapstore.Store
	logger  *zap.Logger
	monitor *middleware.Monitor

	mu     sync.Mutex
	symbol string
	depth  int
	pushMs int

	writeMu  sync.Mutex
	lastSent *string
	inFlight atomic.Bool

	closed atomic.Bool
}

func (s *session) run() {
	defer s.conn.Close()

	done := make(chan struct{})
	go s.readLoop(done)
	s.writeLoop(done)
}

func (s *session) readLoop(done chan struct{}) {
	defer close(done)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.closed.Store(true)
			return
		}
		msg, ok := parseControlMessage(string(data))
		if !ok {
			continue
		}
		s.applyControl(msg)
		s.sendAck()
		s.monitor.LogControl(msg.Type, msg.Symbol, msg.Depth, msg.PushMs)
	}
}

func (s *session) applyControl(msg controlMessage) {
	s.mu.Lock()
	if msg.HasSym {
		s.symbol = msg.Symbol
	}
	if msg.HasDepth {
		s.depth = msg.Depth
	}
	if msg.HasPush {
		s.pushMs = msg.PushMs
	}
	s.mu.Unlock()
}

type ackFrame struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
	Depth  int    `json:"depth"`
	PushMs int    `json:"push_ms"`
}

func (s *session) sendAck() {
	s.mu.Lock()
	ack := ackFrame{Type: "ack", Symbol: s.symbol, Depth: s.depth, PushMs: s.pushMs}
	s.mu.Unlock()

	body, err := json.Marshal(ack)
	if err != nil {
		return
	}
	s.writeMu.Lock()
	_ = s.conn.WriteMessage(websocket.TextMessage, body)
	s.writeMu.Unlock()
}

func (s *session) currentPushMs() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Duration(s.pushMs) * time.Millisecond
}

func (s *session) currentSymbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.symbol
}

func (s *session) writeLoop(done chan struct{}) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-done:
			return
		case <-timer.C:
			s.tick()
			timer.Reset(s.currentPushMs())
		}
	}
}

func (s *session) tick() {
	if s.closed.Load() {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return // previous send still in flight: drop this tick
	}

	cur := s.store.LoadSymbol(s.currentSymbol())
	if cur == s.lastSent {
		s.inFlight.Store(false)
		return
	}

	go s.send(cur)
}

func (s *session) send(cur *string) {
	defer s.inFlight.Store(false)

	s.writeMu.Lock()
	err := s.conn.WriteMessage(websocket.TextMessage, []byte(*cur))
	s.writeMu.Unlock()

	if err != nil {
		s.closed.Store(true)
		return
	}
	s.lastSent = cur
}
