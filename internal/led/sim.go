package led

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

// Sim is a headless strip. It keeps the last shown frame and, when given a
// logger, prints a compact summary every Every frames.
type Sim struct {
	Log   zerolog.Logger
	Every int

	mu     sync.Mutex
	staged []uint32
	last   ledcolor.Frame
	shows  int
	closed bool
}

func NewSim(count int, log zerolog.Logger) *Sim {
	return &Sim{Log: log, Every: 35, staged: make([]uint32, count)}
}

func (s *Sim) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = false
	return nil
}

func (s *Sim) SetPixelColor(i int, c uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.staged) {
		s.staged[i] = c
	}
}

func (s *Sim) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := make(ledcolor.Frame, len(s.staged))
	var r, g, b float64
	for i, w := range s.staged {
		frame[i] = Unpack(w)
		r += float64(frame[i].R)
		g += float64(frame[i].G)
		b += float64(frame[i].B)
	}
	s.last = frame
	s.shows++
	if s.Every > 0 && s.shows%s.Every == 0 && len(frame) > 0 {
		n := float64(len(frame))
		s.Log.Debug().
			Int("frame", s.shows).
			Str("avg", fmtRGB(r/n, g/n, b/n)).
			Str("first", fmtRGB(float64(frame[0].R), float64(frame[0].G), float64(frame[0].B))).
			Msg("sim frame")
	}
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Last returns a copy of the most recently shown frame.
func (s *Sim) Last() ledcolor.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last.Clone()
}

func (s *Sim) Shows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shows
}

func (s *Sim) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func fmtRGB(r, g, b float64) string {
	return fmt.Sprintf("(%.2f,%.2f,%.2f)", r, g, b)
}
