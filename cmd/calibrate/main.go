// Command calibrate builds the tree's coordinate file from photos.
//
//	calibrate capture -angle 90   light each led in turn and photograph it
//	calibrate detect              find the bright spot in every photo
//	calibrate solve               triangulate, center and save coordinates
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-treelights/internal/calib"
	"github.com/coreman2200/funtimes-treelights/internal/config"
	diag "github.com/coreman2200/funtimes-treelights/internal/diagnostics"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
	"github.com/coreman2200/funtimes-treelights/internal/logging"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: calibrate [-config path] capture|detect|solve [flags]")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	debug := flag.Bool("debug", false, "debug logging")
	flag.Usage = usage
	flag.Parse()
	logging.Setup(os.Stderr, *debug)

	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		log.Fatal().Err(err).Msg("config")
	}

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "capture":
		err = capture(ctx, cfg, args)
	case "detect":
		err = detect(cfg, args)
	case "solve":
		err = solve(cfg, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		stop()
		log.Fatal().Err(err).Str("step", flag.Arg(0)).Msg("calibrate")
	}
}

func capture(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("capture", flag.ExitOnError)
	angle := fs.Int("angle", 0, "camera position in degrees: 0, 90, 180 or 270")
	camera := fs.Int("camera", 0, "camera device index")
	dir := fs.String("dir", "captures", "where to write photos")
	settle := fs.Duration("settle", 300*time.Millisecond, "wait after lighting an led")
	_ = fs.Parse(args)

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

	frame := ledcolor.NewFrame(cfg.Strip.Count)
	err = calib.Capture(*camera, *dir, "", *angle, cfg.Strip.Count, func(i int) error {
		frame.Fill(ledcolor.Off)
		frame[i] = ledcolor.RGB{R: 255, G: 255, B: 255}
		if err := ctrl.Submit(frame); err != nil {
			return err
		}
		log.Debug().Int("led", i).Int("angle", *angle).Msg("capture")
		t := time.NewTimer(*settle)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	})
	if errors.Is(err, context.Canceled) {
		log.Info().Int("angle", *angle).Msg("capture interrupted; turning the strip off")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Int("angle", *angle).Int("photos", cfg.Strip.Count).Str("dir", *dir).Msg("capture done")
	return nil
}

func detect(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	dir := fs.String("dir", "captures", "photo directory")
	pattern := fs.String("images", calib.DefaultImagePattern, "photo name pattern: angle then index")
	out := fs.String("out", "coords", "where to write detection files")
	threshold := fs.Uint("threshold", calib.DefaultThreshold, "gray level a lit pixel must exceed")
	_ = fs.Parse(args)
	th, err := calib.ParseThreshold(*threshold)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	for _, angle := range calib.Angles {
		s, err := calib.DetectAngle(*dir, *pattern, angle, cfg.Strip.Count, th)
		if err != nil {
			return err
		}
		found := 0
		for _, p := range s {
			if p.Found() {
				found++
			}
		}
		path := filepath.Join(*out, fmt.Sprintf(cfg.Calibration.Pattern, angle))
		if err := calib.SaveSamples(path, s); err != nil {
			return err
		}
		log.Info().Int("angle", angle).Int("found", found).Int("leds", len(s)).Str("path", path).Msg("detected")
	}
	return nil
}

func solve(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	dir := fs.String("dir", "coords", "directory holding the detection files")
	out := fs.String("out", cfg.CoordsPath, "coordinate file to write")
	plotDir := fs.String("plot", "", "write front and side scatter plots here")
	report := fs.String("report", "", "write diagnostics as JSON here")
	vc := fs.Float64("vc", cfg.Calibration.VerticalCenter, "vertical pixel of the trunk center")
	_ = fs.Parse(args)

	views, err := calib.LoadViews(*dir, cfg.Calibration.Pattern, cfg.Strip.Count)
	if err != nil {
		return err
	}
	res, err := calib.Triangulate(views, calib.Options{VerticalCenter: *vc})
	if err != nil {
		return err
	}
	log.Info().Float64("x", res.Mean.X).Float64("y", res.Mean.Y).Float64("z", res.Mean.Z).Msg("mean before centering")

	ds := calib.Report(res)
	for _, d := range ds {
		d.Log(log.Logger)
	}
	if *report != "" {
		f, err := os.Create(*report)
		if err != nil {
			return err
		}
		if err := diag.WriteJSON(f, ds); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	if diag.Worst(ds) == diag.Err {
		return errors.New("calibration failed; see diagnostics")
	}

	pts, offset := calib.Center(res.Points, res.Valid)
	log.Info().Float64("x", offset.X).Float64("y", offset.Y).Float64("z", offset.Z).Msg("centering offset")

	if *plotDir != "" {
		if err := os.MkdirAll(*plotDir, 0o755); err != nil {
			return err
		}
		files, err := calib.Plot(pts, res.Valid, *plotDir)
		if err != nil {
			return err
		}
		log.Info().Strs("files", files).Msg("plots written")
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := layout.New(pts).Save(*out); err != nil {
		return err
	}
	log.Info().Str("path", *out).Int("leds", len(pts)).Int("placed", res.Found).Msg("coordinates saved")
	return nil
}
