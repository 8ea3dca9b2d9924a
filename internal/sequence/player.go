package sequence

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Player walks a Program, handing each clip to Hooks.RunFor in turn.
type Player struct {
	mu    sync.Mutex
	state PlayerState
	prog  Program
	idx   int
	loops int

	hooks Hooks
	log   zerolog.Logger
}

func NewPlayer(h Hooks, log zerolog.Logger) *Player {
	return &Player{state: Idle, hooks: h, log: log}
}

// Load replaces the current program. It fails while a program is playing.
func (p *Player) Load(prog Program) error {
	if err := prog.Validate(nil); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running {
		return errors.New("sequence: player is running")
	}
	p.prog = prog
	p.idx = 0
	p.loops = 0
	return nil
}

func (p *Player) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the index and clip being played.
func (p *Player) Current() (int, Clip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Running {
		return 0, Clip{}, false
	}
	return p.idx, p.prog.Clips[p.idx], true
}

// Loops is the number of completed passes.
func (p *Player) Loops() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loops
}

// Run plays the program until it ends, ctx is done or a clip fails.
// Cancellation is not an error.
func (p *Player) Run(ctx context.Context) error {
	if p.hooks.RunFor == nil {
		return errors.New("sequence: no RunFor hook")
	}
	p.mu.Lock()
	if p.state == Running {
		p.mu.Unlock()
		return errors.New("sequence: player is running")
	}
	if len(p.prog.Clips) == 0 {
		p.mu.Unlock()
		return ErrEmpty
	}
	p.state = Running
	p.idx = 0
	prog := p.prog
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.state = Idle
		p.idx = 0
		p.mu.Unlock()
	}()

	p.log.Info().Int("clips", len(prog.Clips)).Bool("loop", prog.Loop).Float64("pass_s", prog.TotalS()).Msg("program started")
	for {
		for i, c := range prog.Clips {
			if ctx.Err() != nil {
				return nil
			}
			p.mu.Lock()
			p.idx = i
			p.mu.Unlock()
			if p.hooks.OnClip != nil {
				p.hooks.OnClip(i, c)
			}
			p.log.Debug().Int("clip", i).Str("name", c.label()).Dur("duration", c.Duration()).Msg("clip")
			if err := p.hooks.RunFor(ctx, c.Effect, c.Params, c.Duration()); err != nil {
				return fmt.Errorf("sequence: clip %d (%s): %w", i, c.label(), err)
			}
		}
		p.mu.Lock()
		p.loops++
		p.mu.Unlock()
		if !prog.Loop || ctx.Err() != nil {
			p.log.Info().Msg("program finished")
			return nil
		}
	}
}
