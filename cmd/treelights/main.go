package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/coreman2200/funtimes-treelights/internal/config"
	diag "github.com/coreman2200/funtimes-treelights/internal/diagnostics"
	"github.com/coreman2200/funtimes-treelights/internal/effects"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
	"github.com/coreman2200/funtimes-treelights/internal/logging"
	"github.com/coreman2200/funtimes-treelights/internal/power"
	"github.com/coreman2200/funtimes-treelights/internal/preview"
	"github.com/coreman2200/funtimes-treelights/internal/sequence"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		program    = flag.String("program", "", "playlist (YAML or JSON); overrides program_path")
		driver     = flag.String("driver", "", "override strip.driver: nrz | ws2811 | term | sim")
		addr       = flag.String("preview", "", "serve the websocket preview on this address, e.g. :8080")
		effect     = flag.String("effect", "", "loop a single effect instead of the playlist")
		duration   = flag.Duration("duration", 10*time.Second, "clip length for -effect")
		seed       = flag.Int64("seed", 0, "random seed (0 picks one)")
		list       = flag.Bool("list", false, "list effects and exit")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	logging.Setup(os.Stderr, *debug)

	if *list {
		for _, name := range effects.DefaultRegistry().List() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("path", *configPath).Msg("no config file; using defaults")
		cfg = config.Default()
	case err != nil:
		log.Fatal().Err(err).Msg("config")
	}
	if *driver != "" {
		cfg.Strip.Driver = *driver
	}
	if *program != "" {
		cfg.ProgramPath = *program
	}
	if *addr != "" {
		cfg.Preview.Addr = *addr
	}

	if err := run(cfg, *effect, *duration, *seed); err != nil {
		log.Fatal().Err(err).Msg("treelights")
	}
}

func run(cfg config.Config, single string, clipLen time.Duration, seed int64) error {
	l, err := layout.Load(cfg.CoordsPath, cfg.Strip.Count)
	if err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	log.Info().Str("path", cfg.CoordsPath).Int("leds", l.Count()).Int("placed", len(l.Known())).Msg("layout loaded")

	strip, name := led.Open(cfg.Strip, log.Logger)

	var ctrl *led.Controller
	var srv *preview.Server
	if cfg.Preview.Addr != "" {
		srv = preview.NewServer(l, func() led.Stats { return ctrl.Stats() }, log.Logger)
		strip = preview.NewTee(strip, cfg.Strip.Count, srv)
	}

	ctrl, err = led.New(strip, led.Options{
		Count:     cfg.Strip.Count,
		RefreshHz: cfg.RefreshHz,
		QueueSize: cfg.QueueSize,
		BadLEDs:   cfg.SortedBadLEDs(),
		Limiter:   power.New(cfg.Power.LimitAmps, cfg.Power.WhiteCap, cfg.Power.ChanMA, cfg.Strip.Brightness),
		Logger:    log.With().Str("driver", name).Logger(),
	})
	if err != nil {
		return err
	}
	if err := ctrl.Start(); err != nil {
		return err
	}

	g := cfg.Gamma
	eng, err := effects.New(ctrl, l, ledcolor.NewGamma(g.Red, g.Green, g.Blue), effects.Options{Seed: seed, Logger: log.Logger})
	if err != nil {
		_ = ctrl.Close()
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	prog, err := pickProgram(cfg.ProgramPath, single, clipLen)
	if err != nil {
		return err
	}
	if err := prog.Validate(eng.Registry().Has); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	player := sequence.NewPlayer(sequence.Hooks{
		RunFor: func(ctx context.Context, effect string, params map[string]float64, d time.Duration) error {
			return eng.RunNamed(ctx, effect, d, params)
		},
		OnClip: func(i int, c sequence.Clip) {
			if srv != nil {
				srv.PushDiag(diag.Diagnostic{Severity: diag.Info, Code: "SEQ.CLIP", Summary: c.Effect, Evidence: map[string]any{"index": i, "params": c.Params}})
			}
		},
	}, log.Logger)
	if err := player.Load(prog); err != nil {
		return err
	}
	eg.Go(func() error {
		defer stop()
		return player.Run(ctx)
	})
	eg.Go(func() error {
		watchStats(ctx, ctrl, srv, log.Logger)
		return nil
	})

	if srv != nil {
		hs := &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      withCORS(srv.Handler()),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		eg.Go(func() error { return srv.Run(ctx) })
		eg.Go(func() error {
			log.Info().Str("addr", hs.Addr).Msg("preview server starting")
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("preview: %w", err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	err = eg.Wait()
	log.Info().Msg("shutting down")
	return err
}

func pickProgram(path, single string, d time.Duration) (sequence.Program, error) {
	if single == "" {
		return sequence.LoadFile(path)
	}
	return sequence.Program{
		Version: sequence.Version,
		Loop:    true,
		Clips:   []sequence.Clip{{Effect: single, DurationS: d.Seconds()}},
	}, nil
}

// watchStats logs controller counters every 30s and raises a diagnostic
// when frames started running late.
func watchStats(ctx context.Context, ctrl *led.Controller, srv *preview.Server, l zerolog.Logger) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	var prev led.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		st := ctrl.Stats()
		l.Info().Uint64("shown", st.Shown).Uint64("late", st.Late).Uint64("errors", st.Errors).Int("queued", st.Queued).Msg("led stats")
		if late := st.Late - prev.Late; late > 0 {
			d := diag.Diagnostic{
				Severity:       diag.Warn,
				Code:           "LED.LATE",
				Summary:        fmt.Sprintf("%d frames took longer than the refresh interval", late),
				LikelyCauses:   []string{"refresh_hz too high for the strip length", "CPU contention"},
				SuggestedFixes: []string{"lower refresh_hz", "use the ws2811 driver"},
				Evidence:       map[string]any{"late": late, "interval_ms": ctrl.Interval().Milliseconds()},
			}
			d.Log(l)
			if srv != nil {
				srv.PushDiag(d)
			}
		}
		prev = st
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
