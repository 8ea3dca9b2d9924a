//go:build linux && ws2811

package led

/*
#cgo LDFLAGS: -lws2811
#include <stdlib.h>
#include <stdint.h>
#include <ws2811/ws2811.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"
)

// WS2811 drives the strip through the rpi_ws281x PWM/DMA library.
type WS2811 struct {
	count int

	mu  sync.Mutex
	dev *C.ws2811_t
	ch  int
}

type WS2811Options struct {
	Count      int
	GPIO       int
	DMA        int
	Channel    int
	FreqHz     int
	Invert     bool
	Brightness int
}

func NewWS2811(o WS2811Options) (*WS2811, error) {
	if o.Channel < 0 || o.Channel > 1 {
		return nil, fmt.Errorf("ws2811: channel must be 0 or 1, got %d", o.Channel)
	}
	s := &WS2811{count: o.Count, ch: o.Channel}
	s.dev = (*C.ws2811_t)(C.calloc(1, C.size_t(unsafe.Sizeof(*s.dev))))
	if s.dev == nil {
		return nil, fmt.Errorf("ws2811: calloc failed")
	}
	s.dev.freq = C.uint32_t(o.FreqHz)
	s.dev.dmanum = C.int(o.DMA)

	ch := &s.dev.channel[o.Channel]
	ch.gpionum = C.int(o.GPIO)
	ch.count = C.int(o.Count)
	if o.Invert {
		ch.invert = 1
	}
	// Words arrive already packed in wire order, so the library must not
	// reorder them.
	ch.strip_type = C.WS2811_STRIP_RGB
	ch.brightness = C.uint8_t(o.Brightness & 0xFF)
	return s, nil
}

func (s *WS2811) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("ws2811: closed")
	}
	if st := C.ws2811_init(s.dev); st != C.WS2811_SUCCESS {
		return fmt.Errorf("ws2811_init failed: %d", int(st))
	}
	return nil
}

func (s *WS2811) leds() []C.ws2811_led_t {
	ch := &s.dev.channel[s.ch]
	return unsafe.Slice((*C.ws2811_led_t)(unsafe.Pointer(ch.leds)), s.count)
}

func (s *WS2811) SetPixelColor(i int, c uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil || i < 0 || i >= s.count {
		return
	}
	s.leds()[i] = C.ws2811_led_t(c)
}

func (s *WS2811) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("ws2811: closed")
	}
	if st := C.ws2811_render(s.dev); st != C.WS2811_SUCCESS {
		return fmt.Errorf("ws2811_render failed: %d", int(st))
	}
	return nil
}

func (s *WS2811) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev != nil {
		C.ws2811_fini(s.dev)
		C.free(unsafe.Pointer(s.dev))
		s.dev = nil
	}
	return nil
}
