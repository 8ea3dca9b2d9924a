package led

import (
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-treelights/internal/config"
	"github.com/coreman2200/funtimes-treelights/internal/power"
)

// Open builds the strip named by c.Driver. Hardware that fails to open
// falls back to a Sim so the show still runs; the returned name is the
// driver actually in use.
func Open(c config.Strip, log zerolog.Logger) (Strip, string) {
	switch c.Driver {
	case "sim":
		return NewSim(c.Count, log), "sim"
	case "term":
		return NewTerm(c.Count), "term"
	case "nrz", "":
		s, err := OpenNRZ(c.SPIBus, NRZOptions{Count: c.Count, FreqHz: c.FreqHz, Brightness: c.Brightness})
		if err == nil {
			return s, "nrz"
		}
		log.Warn().Err(err).Str("driver", "nrz").Str("spi_bus", c.SPIBus).Msg("SPI init failed; falling back to SIM")
		// TODO: fall back to Term instead once the console output can be
		// throttled below refresh_hz.
	case "ws2811":
		s, err := NewWS2811(WS2811Options{
			Count:      c.Count,
			GPIO:       c.GPIO,
			DMA:        c.DMA,
			Channel:    c.Channel,
			FreqHz:     c.FreqHz,
			Invert:     c.Invert,
			Brightness: c.Brightness,
		})
		if err == nil {
			return s, "ws2811"
		}
		log.Warn().Err(err).Str("driver", "ws2811").Int("gpio", c.GPIO).Msg("ws2811 init failed; falling back to SIM")
	default:
		log.Warn().Str("driver", c.Driver).Msg("unknown driver; using SIM")
	}
	return NewSim(c.Count, log), "sim"
}

// OpenController opens the configured strip and builds a controller that
// masks cfg.BadLEDs and applies the configured power limit. It is not
// started. queueSize 0 uses cfg.QueueSize.
func OpenController(cfg config.Config, queueSize int, log zerolog.Logger) (*Controller, string, error) {
	if queueSize <= 0 {
		queueSize = cfg.QueueSize
	}
	strip, name := Open(cfg.Strip, log)
	c, err := New(strip, Options{
		Count:     cfg.Strip.Count,
		RefreshHz: cfg.RefreshHz,
		QueueSize: queueSize,
		BadLEDs:   cfg.SortedBadLEDs(),
		Limiter:   power.New(cfg.Power.LimitAmps, cfg.Power.WhiteCap, cfg.Power.ChanMA, cfg.Strip.Brightness),
		Logger:    log.With().Str("driver", name).Logger(),
	})
	if err != nil {
		_ = strip.Close()
		return nil, name, err
	}
	return c, name, nil
}
