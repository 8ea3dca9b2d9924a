//go:build !(linux && ws2811)

package led

import "errors"

var errNoWS2811 = errors.New("ws2811 driver not built; rebuild on linux with -tags ws2811")

type WS2811 struct{}

type WS2811Options struct {
	Count      int
	GPIO       int
	DMA        int
	Channel    int
	FreqHz     int
	Invert     bool
	Brightness int
}

func NewWS2811(o WS2811Options) (*WS2811, error) { return nil, errNoWS2811 }

func (s *WS2811) Begin() error                  { return errNoWS2811 }
func (s *WS2811) SetPixelColor(i int, c uint32) {}
func (s *WS2811) Show() error                   { return errNoWS2811 }
func (s *WS2811) Close() error                  { return nil }
