package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

type Strip struct {
	Driver     string `yaml:"driver"` // "nrz" | "ws2811" | "term" | "sim"
	Count      int    `yaml:"count"`
	SPIBus     string `yaml:"spi_bus,omitempty"` // "" picks the first registered port
	GPIO       int    `yaml:"gpio"`
	DMA        int    `yaml:"dma"`
	Channel    int    `yaml:"channel"`
	FreqHz     int    `yaml:"freq_hz"`
	Invert     bool   `yaml:"invert"`
	Brightness int    `yaml:"brightness"` // 0..255
}

type Gamma struct {
	Red   float64 `yaml:"red"`
	Green float64 `yaml:"green"`
	Blue  float64 `yaml:"blue"`
}

type Calibration struct {
	VerticalCenter float64 `yaml:"vertical_center"`
	Pattern        string  `yaml:"pattern"`
}

// Power bounds current draw. Zero values disable each stage.
type Power struct {
	LimitAmps float64 `yaml:"limit_amps"`
	WhiteCap  float64 `yaml:"white_cap"` // 0..1 of full white per led
	ChanMA    float64 `yaml:"chan_ma,omitempty"`
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"`
}

// Config is loaded once at startup and passed by value afterwards.
type Config struct {
	Strip       Strip       `yaml:"strip"`
	RefreshHz   int         `yaml:"refresh_hz"`
	QueueSize   int         `yaml:"queue_size"`
	Gamma       Gamma       `yaml:"gamma"`
	Power       Power       `yaml:"power"`
	BadLEDs     []int       `yaml:"bad_leds,omitempty"`
	CoordsPath  string      `yaml:"coords_path"`
	Calibration Calibration `yaml:"calibration"`
	Preview     Preview     `yaml:"preview,omitempty"`
	ProgramPath string      `yaml:"program_path,omitempty"`
}

// Default mirrors the production tree: 650 LEDs on GPIO 18, GRB, 35 Hz.
func Default() Config {
	return Config{
		Strip: Strip{
			Driver:     "nrz",
			Count:      650,
			GPIO:       18,
			DMA:        10,
			Channel:    0,
			FreqHz:     800000,
			Brightness: 40,
		},
		RefreshHz:  35,
		QueueSize:  120,
		Gamma:      Gamma{Red: 2.0, Green: 1.8, Blue: 1.9},
		Power:      Power{LimitAmps: 10, WhiteCap: 0.85, ChanMA: 20},
		BadLEDs:    []int{395},
		CoordsPath: "coords/auto_corrected_coordinates.txt",
		Calibration: Calibration{
			VerticalCenter: 256,
			Pattern:        "%d_auto.txt",
		},
	}
}

// Load overlays the file at path on top of Default and validates the result.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

var ErrInvalid = errors.New("invalid config")

func (c Config) Validate() error {
	switch {
	case c.Strip.Count <= 0:
		return fmt.Errorf("%w: strip.count must be positive, got %d", ErrInvalid, c.Strip.Count)
	case c.RefreshHz <= 0:
		return fmt.Errorf("%w: refresh_hz must be positive, got %d", ErrInvalid, c.RefreshHz)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalid, c.QueueSize)
	case c.Strip.Brightness < 0 || c.Strip.Brightness > 255:
		return fmt.Errorf("%w: strip.brightness out of range 0..255: %d", ErrInvalid, c.Strip.Brightness)
	case c.Gamma.Red <= 0 || c.Gamma.Green <= 0 || c.Gamma.Blue <= 0:
		return fmt.Errorf("%w: gamma exponents must be positive", ErrInvalid)
	case c.Power.LimitAmps < 0 || c.Power.WhiteCap < 0 || c.Power.WhiteCap > 1:
		return fmt.Errorf("%w: power.limit_amps must be >= 0 and power.white_cap within 0..1", ErrInvalid)
	}
	for _, i := range c.BadLEDs {
		if i < 0 || i >= c.Strip.Count {
			return fmt.Errorf("%w: bad led %d outside 0..%d", ErrInvalid, i, c.Strip.Count-1)
		}
	}
	return nil
}

// RefreshInterval is the worker's pacing period.
func (c Config) RefreshInterval() time.Duration {
	return time.Second / time.Duration(c.RefreshHz)
}

// SortedBadLEDs returns a sorted, de-duplicated copy of BadLEDs.
func (c Config) SortedBadLEDs() []int {
	seen := make(map[int]struct{}, len(c.BadLEDs))
	out := make([]int, 0, len(c.BadLEDs))
	for _, i := range c.BadLEDs {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
