package led

import (
	"fmt"
	"sync"

	"periph.io/x/extra/devices/screen"
)

// Term paints the strip as a row of ANSI colored cells on the console.
type Term struct {
	mu  sync.Mutex
	dev *screen.Dev
	buf []byte // RGB
}

func NewTerm(count int) *Term {
	return &Term{dev: screen.New(count), buf: make([]byte, 3*count)}
}

func (t *Term) Begin() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return fmt.Errorf("term: closed")
	}
	return nil
}

func (t *Term) SetPixelColor(i int, c uint32) {
	if i < 0 || 3*i+2 >= len(t.buf) {
		return
	}
	px := Unpack(c)
	t.mu.Lock()
	t.buf[3*i], t.buf[3*i+1], t.buf[3*i+2] = px.R, px.G, px.B
	t.mu.Unlock()
}

func (t *Term) Show() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return fmt.Errorf("term: closed")
	}
	_, err := t.dev.Write(t.buf)
	return err
}

func (t *Term) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dev == nil {
		return nil
	}
	err := t.dev.Halt()
	t.dev = nil
	return err
}
