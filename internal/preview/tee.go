package preview

import (
	"sync"

	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

// Tee is a strip that drives inner and publishes every shown frame.
type Tee struct {
	inner led.Strip
	srv   *Server

	mu     sync.Mutex
	staged ledcolor.Frame
}

var _ led.Strip = (*Tee)(nil)

func NewTee(inner led.Strip, count int, srv *Server) *Tee {
	return &Tee{inner: inner, srv: srv, staged: ledcolor.NewFrame(count)}
}

func (t *Tee) Begin() error { return t.inner.Begin() }

func (t *Tee) SetPixelColor(i int, c uint32) {
	t.inner.SetPixelColor(i, c)
	t.mu.Lock()
	if i >= 0 && i < len(t.staged) {
		t.staged[i] = led.Unpack(c)
	}
	t.mu.Unlock()
}

func (t *Tee) Show() error {
	if err := t.inner.Show(); err != nil {
		return err
	}
	t.mu.Lock()
	t.srv.Publish(t.staged)
	t.mu.Unlock()
	return nil
}

func (t *Tee) Close() error { return t.inner.Close() }
