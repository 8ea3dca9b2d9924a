// Package preview mirrors the strip to websocket clients so effects can be
// watched without the tree.
package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/coreman2200/funtimes-treelights/internal/diagnostics"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
	"github.com/coreman2200/funtimes-treelights/internal/power"
)

const writeWait = 200 * time.Millisecond

type Server struct {
	layout layout.Layout
	stats  func() led.Stats
	log    zerolog.Logger

	mu          sync.RWMutex
	frameID     uint64
	amps        float64
	startTime   time.Time
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool

	latest chan published
	diagMu sync.Mutex // one diagnostics writer at a time
}

type published struct {
	id    uint64
	frame ledcolor.Frame
}

// NewServer serves frames for l. stats may be nil.
func NewServer(l layout.Layout, stats func() led.Stats, log zerolog.Logger) *Server {
	return &Server{
		layout:      l,
		stats:       stats,
		log:         log,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
		latest:      make(chan published, 1),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/frames", s.HandleFramesWS)
	mux.HandleFunc("/ws/diag", s.HandleDiagWS)
	mux.HandleFunc("/healthz", s.HandleHealth)
	return mux
}

// Publish records f as the newest frame. It never blocks: a frame nobody
// has sent yet is replaced.
func (s *Server) Publish(f ledcolor.Frame) {
	s.mu.Lock()
	s.frameID++
	s.amps = EstimateCurrent(f)
	p := published{id: s.frameID, frame: f.Clone()}
	s.mu.Unlock()

	for {
		select {
		case s.latest <- p:
			return
		default:
		}
		select {
		case <-s.latest:
		default:
		}
	}
}

// Run broadcasts published frames until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case p := <-s.latest:
			s.broadcastFrame(p)
		}
	}
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade")
		return nil, false
	}
	return conn, true
}

// readUntilClosed drains client messages and unregisters conn when it goes.
func (s *Server) readUntilClosed(conn *websocket.Conn, set map[*websocket.Conn]bool) {
	defer func() {
		s.mu.Lock()
		delete(set, conn)
		s.mu.Unlock()
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	// Topology goes out before registration so the broadcaster is the only
	// writer afterwards.
	s.sendTopology(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()
	go s.readUntilClosed(conn, s.clients)
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, ok := s.upgrade(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go s.readUntilClosed(conn, s.diagClients)
}

type Health struct {
	FrameID uint64     `json:"frame_id"`
	UptimeS float64    `json:"uptime_s"`
	Count   int        `json:"count"`
	Amps    float64    `json:"est_amps"`
	Clients int        `json:"clients"`
	Stats   *led.Stats `json:"stats,omitempty"`
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := Health{
		FrameID: s.frameID,
		UptimeS: time.Since(s.startTime).Seconds(),
		Count:   s.layout.Count(),
		Amps:    s.amps,
		Clients: len(s.clients),
	}
	s.mu.RUnlock()
	if s.stats != nil {
		st := s.stats()
		resp.Stats = &st
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Topology is sent once per frames client: where every led sits.
type Topology struct {
	Count  int          `json:"count"`
	Points [][3]float64 `json:"points"`
}

type Frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (s *Server) sendTopology(conn *websocket.Conn) {
	top := Topology{Count: s.layout.Count(), Points: make([][3]float64, s.layout.Count())}
	for i, p := range s.layout.Points {
		top.Points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	b, _ := json.Marshal(top)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) broadcastFrame(p published) {
	rgb := make([]byte, 0, len(p.frame)*3)
	for _, c := range p.frame {
		rgb = append(rgb, c.R, c.G, c.B)
	}
	b, _ := json.Marshal(Frame{T: time.Now().UnixNano(), FrameID: p.id, RGB: rgb})
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("write frame")
		}
	}
}

// PushDiag sends d to every diagnostics client. It is safe to call from
// several goroutines.
func (s *Server) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.diagClients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

func (s *Server) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, set := range []map[*websocket.Conn]bool{s.clients, s.diagClients} {
		for c := range set {
			_ = c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
		}
	}
}

// EstimateCurrent returns estimated amps for f at full strip brightness.
func EstimateCurrent(f ledcolor.Frame) float64 {
	return power.EstimateMA(f, power.DefaultChanMA, 1) / 1000
}
