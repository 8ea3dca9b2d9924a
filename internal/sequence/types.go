package sequence

import (
	"context"
	"time"
)

// Clip is one segment of a show: which effect, for how long, with which
// knobs.
type Clip struct {
	Name      string             `json:"name,omitempty" yaml:"name,omitempty"`
	Effect    string             `json:"effect" yaml:"effect"`
	DurationS float64            `json:"durationS" yaml:"duration_s"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

func (c Clip) Duration() time.Duration {
	return time.Duration(c.DurationS * float64(time.Second))
}

func (c Clip) label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Effect
}

// Program is a full sequence of clips.
type Program struct {
	Version string `json:"version" yaml:"version"` // e.g. "seq.v1"
	Loop    bool   `json:"loop,omitempty" yaml:"loop,omitempty"`
	Clips   []Clip `json:"clips" yaml:"clips"`
}

// PlayerState enumerates sequencer states.
type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
)

// Hooks are dependency-injected callbacks into the effects engine.
type Hooks struct {
	// RunFor plays one effect for d and returns once it has wound down.
	RunFor func(ctx context.Context, effect string, params map[string]float64, d time.Duration) error
	// OnClip is told about each clip before it starts. Optional.
	OnClip func(index int, c Clip)
}
