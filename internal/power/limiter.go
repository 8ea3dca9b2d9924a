// Package power keeps frames inside the supply's current budget.
package power

import (
	"math"

	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

const DefaultChanMA = 20.0

// Limiter applies two stages: a per-led white cap, then a global budget with
// a soft knee. The zero value does nothing.
type Limiter struct {
	// WhiteCap bounds R+G+B per led as a fraction of 3*255. 0 or 1 disables.
	WhiteCap float64
	// ChanMA is the draw of one channel at full scale.
	ChanMA float64
	// BudgetMA is the whole strip's budget. 0 disables.
	BudgetMA float64
	// Knee is the fraction of the budget where compression starts.
	Knee float64
	// Scale is the brightness the strip applies after us, 0 meaning 1.
	Scale float64
}

// New builds a limiter from amps and a 0..255 strip brightness.
func New(limitAmps, whiteCap, chanMA float64, brightness int) *Limiter {
	if chanMA <= 0 {
		chanMA = DefaultChanMA
	}
	return &Limiter{
		WhiteCap: whiteCap,
		ChanMA:   chanMA,
		BudgetMA: limitAmps * 1000,
		Knee:     0.9,
		Scale:    float64(brightness) / 255,
	}
}

// EstimateMA is the draw of f when every channel pulls chanMA at full scale
// and the strip dims by scale.
func EstimateMA(f ledcolor.Frame, chanMA, scale float64) float64 {
	var sum float64
	for _, c := range f {
		sum += float64(c.R) + float64(c.G) + float64(c.B)
	}
	return sum / 255 * chanMA * scale
}

func (l *Limiter) scale() float64 {
	if l.Scale <= 0 {
		return 1
	}
	return l.Scale
}

// Apply limits f in place and returns its estimated draw afterwards.
func (l *Limiter) Apply(f ledcolor.Frame) float64 {
	chanMA := l.ChanMA
	if chanMA <= 0 {
		chanMA = DefaultChanMA
	}
	if l.WhiteCap > 0 && l.WhiteCap < 1 {
		limit := l.WhiteCap * 3 * 255
		for i, c := range f {
			s := float64(c.R) + float64(c.G) + float64(c.B)
			if s > limit {
				f[i] = scaled(c, limit/s, math.Round)
			}
		}
	}

	total := EstimateMA(f, chanMA, l.scale())
	if l.BudgetMA <= 0 || total <= 0 {
		return total
	}
	knee := l.Knee
	if knee <= 0 || knee >= 1 {
		knee = 1
	}
	start := knee * l.BudgetMA
	if total <= start {
		return total
	}
	target := l.BudgetMA
	if span := l.BudgetMA - start; span > 0 {
		target = start + span*(1-math.Exp(-(total-start)/span))
	}
	k := target / total
	for i, c := range f {
		f[i] = scaled(c, k, math.Floor)
	}
	return EstimateMA(f, chanMA, l.scale())
}

func scaled(c ledcolor.RGB, k float64, round func(float64) float64) ledcolor.RGB {
	return ledcolor.RGB{
		R: uint8(round(float64(c.R) * k)),
		G: uint8(round(float64(c.G) * k)),
		B: uint8(round(float64(c.B) * k)),
	}
}
