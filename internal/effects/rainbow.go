package effects

import (
	"math"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

// AxisDistances maps each point to a hue offset in degrees proportional to
// its position along axis: 360*width*(p[axis]+min)/height. A flat tree
// counts as height 1.
func AxisDistances(pts []geometry.Vec3, r geometry.Range, axis geometry.Axis, width float64) []float64 {
	height := r.Span()
	if height == 0 {
		height = 1
	}
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = 360 * width * (p.At(axis) + r.Min) / height
	}
	return out
}

// RadialDistances maps each point to width times its polar angle about axis.
func RadialDistances(pts []geometry.Vec3, axis geometry.Axis, width float64) []float64 {
	out := make([]float64, len(pts))
	for i, p := range geometry.ToPolar(pts, axis) {
		out[i] = width * p.Theta
	}
	return out
}

// HueStep turns a step given as a fraction of the color wheel into whole
// degrees per frame. It is never zero.
func HueStep(step float64) int {
	hs := int(360 * step)
	if hs == 0 {
		if step < 0 {
			return -1
		}
		return 1
	}
	return hs
}

// CycleLength is the number of frames before the phase returns to zero.
func CycleLength(hueStep int) int {
	a := hueStep
	if a < 0 {
		a = -a
	}
	return int(math.Ceil(360 / float64(a)))
}

// RainbowHue is the hue in degrees of an led with distance dis on frame k.
func RainbowHue(k, hueStep int, dis float64) float64 {
	phase := (k % CycleLength(hueStep)) * hueStep
	return ledcolor.WrapDegrees(float64(phase) + dis)
}

// RenderRainbow fills dst for frame k. Leds without a position stay dark.
func RenderRainbow(s *Scene, dst ledcolor.Frame, k, hueStep int, dis []float64) {
	for i := range dst {
		if s.Layout.Degenerate(i) {
			dst[i] = ledcolor.Off
			continue
		}
		dst[i] = s.Gamma.Hue(RainbowHue(k, hueStep, dis[i]))
	}
}

func rainbowLoop(s *Scene, cont Continue, hueStep int, dis []float64) error {
	frame := ledcolor.NewFrame(s.Count())
	for k := 0; cont(); k++ {
		RenderRainbow(s, frame, k, hueStep, dis)
		if err := s.Submit(frame); err != nil {
			return err
		}
	}
	return nil
}

// AxisRainbow scrolls a rainbow along axis. step is the fraction of the
// wheel the phase moves per frame, width how many wheels span the tree.
func AxisRainbow(axis geometry.Axis, step, width float64) Effect {
	return func(s *Scene, cont Continue) error {
		dis := AxisDistances(s.Layout.Points, s.Extents[axis], axis, width)
		s.Log.Debug().Stringer("axis", axis).Int("hue_step", HueStep(step)).Msg("axis rainbow")
		return rainbowLoop(s, cont, HueStep(step), dis)
	}
}

// RadialRainbow spins a rainbow around axis.
func RadialRainbow(axis geometry.Axis, step, width float64) Effect {
	return func(s *Scene, cont Continue) error {
		dis := RadialDistances(s.Layout.Points, axis, width)
		return rainbowLoop(s, cont, HueStep(step), dis)
	}
}

// SolidRainbow shows one hue on every led, walking the wheel.
func SolidRainbow(step float64) Effect {
	return func(s *Scene, cont Continue) error {
		hs := HueStep(step)
		frame := ledcolor.NewFrame(s.Count())
		for k := 0; cont(); k++ {
			frame.Fill(s.Gamma.Hue(RainbowHue(k, hs, 0)))
			if err := s.Submit(frame); err != nil {
				return err
			}
		}
		return nil
	}
}

// RotatingRainbow is a radial rainbow whose reference frame tumbles by spin
// degrees per frame about the two axes other than axis.
func RotatingRainbow(axis geometry.Axis, step, width, spin float64) Effect {
	return func(s *Scene, cont Continue) error {
		hs := HueStep(step)
		pts := s.Layout.Points
		frame := ledcolor.NewFrame(s.Count())
		for k := 0; cont(); k++ {
			var angles geometry.Vec3
			switch axis {
			case geometry.X:
				angles = geometry.Vec3{Y: spin * float64(k), Z: spin * float64(k) / 2}
			case geometry.Y:
				angles = geometry.Vec3{X: spin * float64(k), Z: spin * float64(k) / 2}
			default:
				angles = geometry.Vec3{X: spin * float64(k), Y: spin * float64(k) / 2}
			}
			dis := RadialDistances(geometry.RotateAll(pts, angles), axis, width)
			RenderRainbow(s, frame, k, hs, dis)
			if err := s.Submit(frame); err != nil {
				return err
			}
		}
		return nil
	}
}
