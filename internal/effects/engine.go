// Package effects renders coordinate-aware animations onto the led
// controller. The Engine owns the controller; callers only see frames.
package effects

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

// Continue reports whether the running effect should produce another frame.
// Effects must poll it at every frame boundary; nothing preempts an effect
// that ignores it.
type Continue func() bool

// Effect renders until cont returns false, then fades out and returns.
type Effect func(s *Scene, cont Continue) error

// Scene is everything an effect may touch. Submit blocks while the
// controller queue is full.
type Scene struct {
	Layout  layout.Layout
	Extents [3]geometry.Range
	Gamma   *ledcolor.Gamma
	Rand    *rand.Rand
	Log     zerolog.Logger

	submit func(ledcolor.Frame) error
}

func (s *Scene) Count() int { return s.Layout.Count() }

func (s *Scene) Submit(f ledcolor.Frame) error { return s.submit(f) }

// Sink is the part of the led controller the engine drives.
type Sink interface {
	Count() int
	Submit(frames ...ledcolor.Frame) error
	Close() error
}

var _ Sink = (*led.Controller)(nil)

var ErrBusy = errors.New("effects: another effect is running")

type Options struct {
	Seed     int64
	Logger   zerolog.Logger
	Registry *Registry
}

type Engine struct {
	sink  Sink
	scene Scene
	reg   *Registry
	log   zerolog.Logger

	run    atomic.Bool // flag polled by the active effect
	active sync.Mutex  // one effect at a time
}

// New takes ownership of sink. The layout must have one point per led.
func New(sink Sink, l layout.Layout, g *ledcolor.Gamma, opts Options) (*Engine, error) {
	if l.Count() != sink.Count() {
		return nil, fmt.Errorf("effects: layout has %d points, strip has %d leds", l.Count(), sink.Count())
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	e := &Engine{sink: sink, reg: reg, log: opts.Logger}
	e.scene = Scene{
		Layout:  l,
		Extents: l.Extents(),
		Gamma:   g,
		Rand:    rand.New(rand.NewSource(seed)),
		Log:     opts.Logger,
		submit:  func(f ledcolor.Frame) error { return sink.Submit(f) },
	}
	return e, nil
}

func (e *Engine) Registry() *Registry { return e.reg }

// RunFor runs fn on its own goroutine for d (or until ctx ends), then clears
// the run flag and waits for fn to return. Effects that never poll Continue
// keep RunFor blocked.
func (e *Engine) RunFor(ctx context.Context, name string, fn Effect, d time.Duration) error {
	if !e.active.TryLock() {
		return ErrBusy
	}
	defer e.active.Unlock()

	runID := uuid.NewString()
	log := e.log.With().Str("effect", name).Str("run_id", runID).Logger()
	scene := e.scene
	scene.Log = log

	e.run.Store(true)
	done := make(chan error, 1)
	go func() { done <- fn(&scene, e.run.Load) }()

	log.Info().Dur("duration", d).Msg("effect started")
	start := time.Now()
	timer := time.NewTimer(d)
	defer timer.Stop()

	var err error
	select {
	case <-timer.C:
	case <-ctx.Done():
		log.Info().Msg("effect cancelled")
	case err = <-done:
		// Finished on its own before the deadline.
		e.run.Store(false)
		log.Info().Dur("elapsed", time.Since(start)).Err(err).Msg("effect returned early")
		return wrapEffectErr(name, err)
	}
	e.run.Store(false)
	err = <-done
	log.Info().Dur("elapsed", time.Since(start)).Err(err).Msg("effect stopped")
	return wrapEffectErr(name, err)
}

// RunNamed builds a registered effect from params and runs it for d.
func (e *Engine) RunNamed(ctx context.Context, name string, d time.Duration, p Params) error {
	fn, err := e.reg.Build(name, p)
	if err != nil {
		return err
	}
	return e.RunFor(ctx, name, fn, d)
}

func wrapEffectErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("effect %s: %w", name, err)
}

// Show submits a single frame outside of any effect.
func (e *Engine) Show(f ledcolor.Frame) error { return e.sink.Submit(f) }

// Off turns every led off.
func (e *Engine) Off() error { return e.sink.Submit(ledcolor.NewFrame(e.sink.Count())) }

// Close shuts the controller down, which blanks and releases the strip.
func (e *Engine) Close() error {
	return e.sink.Close()
}

// Count is the number of leds driven.
func (e *Engine) Count() int { return e.sink.Count() }

// Layout returns the coordinate table the engine renders against.
func (e *Engine) Layout() layout.Layout { return e.scene.Layout }
