// Command ledsetup steps through wiring test patterns, one per Enter.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-treelights/internal/config"
	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
	"github.com/coreman2200/funtimes-treelights/internal/logging"
	"github.com/coreman2200/funtimes-treelights/internal/setup"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		pattern    = flag.String("pattern", string(setup.IndexSweep), "index_sweep | slide_grid | find_bad_leds | rgb_channels")
		axis       = flag.Int("axis", 1, "slide_grid axis (0=x, 1=y, 2=z)")
		width      = flag.Float64("width", 50, "slide_grid slab width")
		start      = flag.Int("start", 0, "find_bad_leds first index")
		end        = flag.Int("end", -1, "find_bad_leds end index (exclusive, -1 for the strip length)")
		batch      = flag.Int("batch", 10, "find_bad_leds batch size")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()
	logging.Setup(os.Stderr, *debug)

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		log.Fatal().Err(err).Msg("config")
	}
	if *end < 0 {
		*end = cfg.Strip.Count
	}

	plan := setup.Plan{
		Kind:  setup.Kind(*pattern),
		Axis:  geometry.Axis(*axis),
		Width: *width,
		Start: *start,
		End:   *end,
		Batch: *batch,
	}
	if err := plan.Validate(cfg.Strip.Count); err != nil {
		log.Fatal().Err(err).Msg("plan")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, plan); err != nil {
		log.Fatal().Err(err).Msg("ledsetup")
	}
}

func run(ctx context.Context, cfg config.Config, plan setup.Plan) error {
	// Only the slide grid needs positions.
	l := layout.New(make([]geometry.Vec3, cfg.Strip.Count))
	if plan.Kind == setup.SlideGrid {
		var err error
		if l, err = layout.Load(cfg.CoordsPath, cfg.Strip.Count); err != nil {
			return fmt.Errorf("coordinates: %w", err)
		}
	}

	ctrl, _, err := led.OpenController(cfg, 2, log.Logger)
	if err != nil {
		return err
	}
	if err := ctrl.Start(); err != nil {
		return err
	}
	defer func() {
		if err := ctrl.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		in := bufio.NewScanner(os.Stdin)
		for in.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	r := setup.NewRunner(plan)
	f := ledcolor.NewFrame(cfg.Strip.Count)
	for r.Step(l, f) {
		if err := ctrl.Submit(f); err != nil {
			return err
		}
		log.Debug().Ints("lit", setup.Lit(f)).Msg(r.Label())
		fmt.Printf("%s Press Enter to continue...", r.Label())
		select {
		case <-ctx.Done():
			fmt.Println()
			log.Info().Msg("interrupted; turning the strip off")
			return nil
		case _, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
		}
	}
	log.Info().Str("pattern", string(plan.Kind)).Msg("setup pattern complete")
	return nil
}
