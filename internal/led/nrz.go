package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// NRZ drives WS281x pixels over an SPI port using periph's nrzled encoder.
type NRZ struct {
	mu         sync.Mutex
	dev        *nrzled.Dev
	port       spi.PortCloser
	buf        []byte // RGB, 3 bytes per pixel
	brightness uint16
}

type NRZOptions struct {
	Count      int
	FreqHz     int
	Brightness int // 0..255, scales every channel
}

// NewNRZ wraps an already opened port. Close releases the port when it is a
// spi.PortCloser.
func NewNRZ(p spi.Port, o NRZOptions) (*NRZ, error) {
	if o.Count <= 0 {
		return nil, fmt.Errorf("nrz: invalid pixel count %d", o.Count)
	}
	freq := physic.Frequency(o.FreqHz) * physic.Hertz
	if freq == 0 {
		freq = 800 * physic.KiloHertz
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: o.Count,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrz: %w", err)
	}
	s := &NRZ{
		dev:        dev,
		buf:        make([]byte, 3*o.Count),
		brightness: uint16(o.Brightness),
	}
	if pc, ok := p.(spi.PortCloser); ok {
		s.port = pc
	}
	return s, nil
}

// OpenNRZ initialises the host drivers and opens the named SPI bus ("" for
// the first available).
func OpenNRZ(bus string, o NRZOptions) (*NRZ, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("nrz: host init: %w", err)
	}
	p, err := spireg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("nrz: open spi %q: %w", bus, err)
	}
	s, err := NewNRZ(p, o)
	if err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

func (s *NRZ) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("nrz: closed")
	}
	return s.dev.Halt()
}

func (s *NRZ) SetPixelColor(i int, c uint32) {
	if i < 0 || 3*i+2 >= len(s.buf) {
		return
	}
	px := Unpack(c)
	s.mu.Lock()
	s.buf[3*i] = s.scale(px.R)
	s.buf[3*i+1] = s.scale(px.G)
	s.buf[3*i+2] = s.scale(px.B)
	s.mu.Unlock()
}

func (s *NRZ) scale(v uint8) uint8 {
	return uint8((uint16(v)*s.brightness + 127) / 255)
}

func (s *NRZ) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return fmt.Errorf("nrz: closed")
	}
	_, err := s.dev.Write(s.buf)
	return err
}

func (s *NRZ) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev == nil {
		return nil
	}
	err := s.dev.Halt()
	s.dev = nil
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
