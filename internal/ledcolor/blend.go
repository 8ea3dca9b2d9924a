package ledcolor

import (
	"fmt"
	"math"
	"math/rand"
)

type blendOpts struct {
	sat, val *float64
}

type BlendOption func(*blendOpts)

// WithSat forces the saturation of the blended color.
func WithSat(s float64) BlendOption { return func(o *blendOpts) { o.sat = &s } }

// WithVal forces the value of the blended color.
func WithVal(v float64) BlendOption { return func(o *blendOpts) { o.val = &v } }

// Blend mixes two colors weighting each by its value. The hue is the weighted
// circular mean, so red and a dim blue lean red. When both values are zero a
// is returned unchanged.
func Blend(a, b HSV, opts ...BlendOption) HSV {
	var o blendOpts
	for _, fn := range opts {
		fn(&o)
	}
	total := a.V + b.V
	if total == 0 {
		return a
	}
	wa, wb := a.V/total, b.V/total

	ha, hb := a.H*2*math.Pi, b.H*2*math.Pi
	y := wa*math.Sin(ha) + wb*math.Sin(hb)
	x := wa*math.Cos(ha) + wb*math.Cos(hb)
	out := HSV{
		H: WrapHue(math.Atan2(y, x) / (2 * math.Pi)),
		S: a.S*wa + b.S*wb,
		V: a.V*wa + b.V*wb,
	}
	if o.sat != nil {
		out.S = *o.sat
	}
	if o.val != nil {
		out.V = *o.val
	}
	return out
}

// BlendAll blends a[i] with b[i]. A single b is blended into every a.
func BlendAll(a, b []HSV, opts ...BlendOption) ([]HSV, error) {
	if len(b) != 1 && len(b) != len(a) {
		return nil, fmt.Errorf("ledcolor: cannot blend %d colors with %d", len(a), len(b))
	}
	out := make([]HSV, len(a))
	for i := range a {
		bi := b[0]
		if len(b) > 1 {
			bi = b[i]
		}
		out[i] = Blend(a[i], bi, opts...)
	}
	return out, nil
}

// RandomHueAwayFrom picks a hue uniformly from the arc whose circular
// distance to hue is at least minDistance. A distance of 0.5 or more leaves
// only the opposite hue.
func RandomHueAwayFrom(rng *rand.Rand, hue, minDistance float64) float64 {
	if minDistance <= 0 {
		return rng.Float64()
	}
	if minDistance >= 0.5 {
		return WrapHue(hue + 0.5)
	}
	return WrapHue(hue + minDistance + rng.Float64()*(1-2*minDistance))
}

func RandomHuesAwayFrom(rng *rand.Rand, hues []float64, minDistance float64) []float64 {
	out := make([]float64, len(hues))
	for i, h := range hues {
		out[i] = RandomHueAwayFrom(rng, h, minDistance)
	}
	return out
}
