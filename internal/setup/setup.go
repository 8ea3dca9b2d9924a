// Package setup renders the stepped test patterns used while wiring and
// calibrating the tree. Each Step shows one pattern; an operator advances.
package setup

import (
	"fmt"
	"math"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

type Kind string

const (
	None        Kind = ""
	IndexSweep  Kind = "index_sweep"
	SlideGrid   Kind = "slide_grid"
	FindBadLEDs Kind = "find_bad_leds"
	RGBTest     Kind = "rgb_channels"
)

var (
	white = ledcolor.RGB{R: 255, G: 255, B: 255}
	blue  = ledcolor.RGB{B: 255}
)

// Plan picks a pattern. Axis and Width drive SlideGrid; Start, End and Batch
// drive FindBadLEDs.
type Plan struct {
	Kind  Kind
	Axis  geometry.Axis
	Width float64
	Start int
	End   int
	Batch int
}

func (p Plan) Validate(count int) error {
	switch p.Kind {
	case IndexSweep, RGBTest:
	case SlideGrid:
		if !p.Axis.Valid() || p.Width <= 0 {
			return fmt.Errorf("setup: slide grid needs an axis and a positive width")
		}
	case FindBadLEDs:
		if p.Batch <= 0 || p.Start < 0 || p.End > count || p.Start >= p.End {
			return fmt.Errorf("setup: bad led search needs 0 <= start < end <= %d and a positive batch", count)
		}
	default:
		return fmt.Errorf("setup: unknown pattern %q", p.Kind)
	}
	return nil
}

type Runner struct {
	plan  Plan
	step  int
	label string
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Label describes what the last Step put on the strip.
func (r *Runner) Label() string { return r.label }

// Step fills f with the next pattern; returns false when complete.
func (r *Runner) Step(l layout.Layout, f ledcolor.Frame) bool {
	n := len(f)
	f.Fill(ledcolor.Off)

	switch r.plan.Kind {
	case IndexSweep:
		idx := r.step
		if idx >= n {
			return false
		}
		f[idx] = white
		r.label = fmt.Sprintf("LED: %d", idx)
	case RGBTest:
		if r.step >= 3 {
			return false
		}
		var c ledcolor.RGB
		switch r.step {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		f.Fill(c)
		r.label = [...]string{"red", "green", "blue"}[r.step]
	case SlideGrid:
		lo, hi := geometry.MinMax(l.Points, r.plan.Axis)
		val := math.Floor(lo) + float64(r.step)*r.plan.Width
		if val >= hi {
			return false
		}
		for i, p := range l.Points {
			if v := p.At(r.plan.Axis); v >= val && v <= val+r.plan.Width {
				f[i] = blue
			}
		}
		r.label = fmt.Sprintf("Showing %g-%g", val, val+r.plan.Width)
	case FindBadLEDs:
		val := r.plan.Start + r.step*r.plan.Batch
		if val >= r.plan.End {
			return false
		}
		for i := val; i < val+r.plan.Batch && i < n; i++ {
			f[i] = blue
		}
		r.label = fmt.Sprintf("Showing %d-%d", val, val+r.plan.Batch)
	default:
		return false
	}
	r.step++
	return true
}

// Lit returns the indices of the leds that are on in f.
func Lit(f ledcolor.Frame) []int {
	var out []int
	for i, c := range f {
		if c != ledcolor.Off {
			out = append(out, i)
		}
	}
	return out
}
