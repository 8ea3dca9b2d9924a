package effects

import (
	"math"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

// PlaneConfig shapes a random plane sweep. Distances are in layout units.
type PlaneConfig struct {
	Thickness      float64
	Speed          float64 // advance per frame
	MinHueDistance float64 // between consecutive sweeps, as a fraction of the wheel
	Overshoot      float64 // travel past the far edge so trails can fade
}

const (
	fadeFloor  = 0.001
	drainFloor = 0.01
)

// lit returns the corrected color for a fully saturated hue (0..1) at
// brightness v.
func (s *Scene) lit(hue, v float64) ledcolor.RGB {
	if v <= 0 {
		return ledcolor.Off
	}
	c, err := s.Gamma.CorrectHSV(ledcolor.HSV{H: ledcolor.WrapHue(hue), S: 1, V: math.Min(v, 1)})
	if err != nil {
		return ledcolor.Off
	}
	return c
}

// RandomPlane sweeps randomly oriented planes through the tree. Leds the
// plane passes light up and fade with a jittered exponential decay. After
// cancellation the remaining trails fade out before it returns.
func RandomPlane(cfg PlaneConfig) Effect {
	return func(s *Scene, cont Continue) error {
		n := s.Count()
		fades := make([]float64, n)
		frame := ledcolor.NewFrame(n)
		known := s.Layout.Known()
		hue := s.Rand.Float64()

		for cont() {
			hue = ledcolor.RandomHueAwayFrom(s.Rand, hue, cfg.MinHueDistance)
			angles := geometry.Vec3{X: s.Rand.Float64() * 360, Y: s.Rand.Float64() * 360, Z: s.Rand.Float64() * 360}
			rot := geometry.RotateAll(s.Layout.Points, angles)
			lo, hi := math.Inf(1), math.Inf(-1)
			for _, i := range known {
				lo, hi = math.Min(lo, rot[i].X), math.Max(hi, rot[i].X)
			}
			if len(known) == 0 {
				lo, hi = 0, 0
			}
			s.Log.Debug().Float64("hue", hue).Float64("from", lo).Float64("to", hi).Msg("plane sweep")

			for h := lo; h < hi+cfg.Overshoot && cont(); h += cfg.Speed {
				for _, i := range known {
					if x := rot[i].X; x > h && x < h+cfg.Thickness {
						fades[i] = 1
					}
					if fades[i] > fadeFloor {
						frame[i] = s.lit(hue, fades[i])
						fades[i] /= 1 + s.Rand.Float64()*0.3
					} else {
						fades[i] = 0
						frame[i] = ledcolor.Off
					}
				}
				if err := s.Submit(frame); err != nil {
					return err
				}
			}
		}
		return drainPlane(s, frame, fades, hue)
	}
}

// drainPlane keeps fading until every trail is below drainFloor and then
// shows one dark frame.
func drainPlane(s *Scene, frame ledcolor.Frame, fades []float64, hue float64) error {
	for {
		active := false
		for i, f := range fades {
			if f > drainFloor {
				active = true
				frame[i] = s.lit(hue, f)
				fades[i] /= 1 + s.Rand.Float64()*0.2
			} else {
				fades[i] = 0
				frame[i] = ledcolor.Off
			}
		}
		if err := s.Submit(frame); err != nil {
			return err
		}
		if !active {
			return nil
		}
	}
}

// RotatingPlane splits the tree into two colored halves by a plane through
// axis that turns speed degrees per frame. Within feather degrees of the
// boundary the halves blend. Every full turn one half takes a new hue.
func RotatingPlane(axis geometry.Axis, speed, feather float64) Effect {
	return func(s *Scene, cont Continue) error {
		polar := geometry.ToPolar(s.Layout.Points, axis)
		frame := ledcolor.NewFrame(s.Count())
		a := s.Rand.Float64()
		b := ledcolor.RandomHueAwayFrom(s.Rand, a, 0.25)
		phase := 0.0
		for cont() {
			for i, p := range polar {
				if s.Layout.Degenerate(i) {
					frame[i] = ledcolor.Off
					continue
				}
				frame[i] = s.halfColor(ledcolor.WrapDegrees(p.Theta-phase), a, b, feather)
			}
			if err := s.Submit(frame); err != nil {
				return err
			}
			phase += speed
			if phase >= 360 || phase <= -360 {
				phase = math.Mod(phase, 360)
				a, b = b, ledcolor.RandomHueAwayFrom(s.Rand, b, 0.25)
			}
		}
		return nil
	}
}

// halfColor colors an led d degrees past the rotating boundary.
func (s *Scene) halfColor(d, a, b, feather float64) ledcolor.RGB {
	own, other := a, b
	if d >= 180 {
		own, other = b, a
	}
	edge := math.Min(math.Mod(d, 180), 180-math.Mod(d, 180))
	if feather <= 0 || edge >= feather {
		return s.lit(own, 1)
	}
	w := 0.5 + 0.5*edge/feather
	mix := ledcolor.Blend(
		ledcolor.HSV{H: own, S: 1, V: w},
		ledcolor.HSV{H: other, S: 1, V: 1 - w},
		ledcolor.WithSat(1), ledcolor.WithVal(1))
	return s.lit(mix.H, 1)
}
