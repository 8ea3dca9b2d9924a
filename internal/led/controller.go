package led

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
	"github.com/coreman2200/funtimes-treelights/internal/power"
)

type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	ErrFrameSize   = errors.New("led: frame length does not match strip")
	ErrNotRunning  = errors.New("led: controller not running")
	ErrRunning     = errors.New("led: controller already started")
	ErrStopTimeout = errors.New("led: worker did not exit in time")
)

const DefaultJoinTimeout = 2 * time.Second

type Options struct {
	Count     int
	RefreshHz int
	QueueSize int
	BadLEDs   []int
	Limiter   *power.Limiter // optional
	Logger    zerolog.Logger
}

type Stats struct {
	Shown    uint64 `json:"shown"`
	Late     uint64 `json:"late"`
	Errors   uint64 `json:"errors"`
	Queued   int    `json:"queued"`
	Capacity int    `json:"capacity"`
}

// Controller paces frames onto a Strip from a single worker goroutine. The
// only thing shared with producers is the bounded frame channel.
type Controller struct {
	strip    Strip
	count    int
	interval time.Duration
	capacity int
	bad      []int
	limiter  *power.Limiter
	log      zerolog.Logger

	mu     sync.Mutex // lifecycle
	state  atomic.Int32
	frames chan ledcolor.Frame
	quit   chan struct{}
	done   chan struct{}

	shown, late, errs atomic.Uint64
}

func New(strip Strip, opts Options) (*Controller, error) {
	if strip == nil {
		return nil, errors.New("led: nil strip")
	}
	if opts.Count <= 0 || opts.RefreshHz <= 0 || opts.QueueSize <= 0 {
		return nil, fmt.Errorf("led: count, refresh rate and queue size must be positive: %+v", opts)
	}
	bad := append([]int(nil), opts.BadLEDs...)
	sort.Ints(bad)
	for _, i := range bad {
		if i < 0 || i >= opts.Count {
			return nil, fmt.Errorf("led: bad led %d outside strip of %d", i, opts.Count)
		}
	}
	return &Controller{
		strip:    strip,
		count:    opts.Count,
		interval: time.Second / time.Duration(opts.RefreshHz),
		capacity: opts.QueueSize,
		bad:      bad,
		limiter:  opts.Limiter,
		log:      opts.Logger,
	}, nil
}

func (c *Controller) Count() int              { return c.count }
func (c *Controller) Interval() time.Duration { return c.interval }
func (c *Controller) State() State            { return State(c.state.Load()) }

// Start opens the strip and launches the worker. It returns once the worker
// is accepting frames.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Stopped {
		return ErrRunning
	}
	c.state.Store(int32(Starting))
	if err := c.strip.Begin(); err != nil {
		c.state.Store(int32(Stopped))
		return fmt.Errorf("led: begin: %w", err)
	}
	c.frames = make(chan ledcolor.Frame, c.capacity)
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	ready := make(chan struct{})
	go c.run(c.frames, c.quit, c.done, ready)
	<-ready
	c.log.Info().Int("leds", c.count).Dur("interval", c.interval).Int("queue", c.capacity).Msg("led controller running")
	return nil
}

// Submit validates every frame, then enqueues copies in order. It blocks
// while the queue is full and fails if the controller stops meanwhile.
func (c *Controller) Submit(frames ...ledcolor.Frame) error {
	for i, f := range frames {
		if len(f) != c.count {
			return fmt.Errorf("%w: frame %d has %d pixels, want %d", ErrFrameSize, i, len(f), c.count)
		}
	}
	c.mu.Lock()
	if c.State() != Running {
		c.mu.Unlock()
		return ErrNotRunning
	}
	ch, quit := c.frames, c.quit
	c.mu.Unlock()
	return enqueue(ch, quit, frames)
}

// enqueue sends copies of frames to ch until quit closes. A closed quit
// wins over free space in ch, so nothing lands in a channel Stop already
// drained.
func enqueue(ch chan<- ledcolor.Frame, quit <-chan struct{}, frames []ledcolor.Frame) error {
	for _, f := range frames {
		select {
		case <-quit:
			return ErrNotRunning
		default:
		}
		select {
		case ch <- f.Clone():
		case <-quit:
			return ErrNotRunning
		}
	}
	select {
	case <-quit:
		return ErrNotRunning
	default:
	}
	return nil
}

func (c *Controller) run(frames <-chan ledcolor.Frame, quit <-chan struct{}, done chan<- struct{}, ready chan<- struct{}) {
	defer close(done)
	c.state.Store(int32(Running))
	close(ready)

	timer := time.NewTimer(c.interval)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-quit:
			return
		default:
		}
		var f ledcolor.Frame
		select {
		case <-quit:
			return
		case f = <-frames:
		}

		start := time.Now()
		if err := c.show(f); err != nil {
			c.errs.Add(1)
			c.log.Error().Err(err).Msg("led write failed")
		} else {
			c.shown.Add(1)
		}
		elapsed := time.Since(start)
		if elapsed > c.interval {
			c.late.Add(1)
			c.log.Warn().Dur("elapsed", elapsed).Dur("interval", c.interval).Msg("update took too long, frame dropped")
			continue
		}

		timer.Reset(c.interval - elapsed)
		select {
		case <-quit:
			return
		case <-timer.C:
		}
	}
}

// show masks bad leds in f, which the controller owns, limits its current
// draw and latches it.
func (c *Controller) show(f ledcolor.Frame) error {
	for _, i := range c.bad {
		f[i] = ledcolor.Off
	}
	if c.limiter != nil {
		c.limiter.Apply(f)
	}
	for i, px := range f {
		c.strip.SetPixelColor(i, Pack(px))
	}
	return c.strip.Show()
}

// Stop signals the worker, waits up to timeout for it, discards queued
// frames and blanks the strip. The strip stays open for a later Start.
func (c *Controller) Stop(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != Running {
		return nil
	}
	c.state.Store(int32(Stopping))
	close(c.quit)

	var err error
	select {
	case <-c.done:
	case <-time.After(timeout):
		err = ErrStopTimeout
		c.log.Warn().Dur("timeout", timeout).Msg("led worker still busy, abandoning it")
	}

	// The channel is never closed: a producer may still be selecting on it.
	drained := 0
	for empty := false; !empty; {
		select {
		case <-c.frames:
			drained++
		default:
			empty = true
		}
	}
	c.frames = nil

	if err == nil {
		if berr := c.show(ledcolor.NewFrame(c.count)); berr != nil {
			c.log.Error().Err(berr).Msg("blank on stop failed")
		}
	}
	c.state.Store(int32(Stopped))
	c.log.Info().Int("drained", drained).Uint64("shown", c.shown.Load()).Uint64("late", c.late.Load()).Msg("led controller stopped")
	return err
}

// Close stops the controller and releases the strip.
func (c *Controller) Close() error {
	serr := c.Stop(DefaultJoinTimeout)
	if err := c.strip.Close(); err != nil {
		return err
	}
	return serr
}

func (c *Controller) Stats() Stats {
	c.mu.Lock()
	queued := len(c.frames)
	c.mu.Unlock()
	return Stats{
		Shown:    c.shown.Load(),
		Late:     c.late.Load(),
		Errors:   c.errs.Load(),
		Queued:   queued,
		Capacity: c.capacity,
	}
}
