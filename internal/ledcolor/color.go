// Package ledcolor converts animation colors (HSV) into the gamma corrected
// RGB8 values written to the strip.
package ledcolor

import (
	"errors"
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGB is one 8-bit pixel as written to hardware.
type RGB struct {
	R, G, B uint8
}

var Off = RGB{}

// HSV holds hue, saturation and value, each normalized to [0,1].
type HSV struct {
	H, S, V float64
}

// Frame holds one RGB value per LED index.
type Frame []RGB

func NewFrame(n int) Frame { return make(Frame, n) }

// Clone returns a copy that shares no memory with f.
func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	copy(out, f)
	return out
}

// Fill sets every pixel to c.
func (f Frame) Fill(c RGB) {
	for i := range f {
		f[i] = c
	}
}

var (
	ErrNoColor    = errors.New("ledcolor: neither hsv nor rgb given")
	ErrInvalidHSV = errors.New("ledcolor: hsv out of range")
)

// WrapHue maps any finite hue onto [0,1).
func WrapHue(h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	if h >= 1 {
		h = 0
	}
	return h
}

// WrapDegrees maps any finite angle onto [0,360).
func WrapDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d = 0
	}
	return d
}

func (c HSV) validate() error {
	for _, x := range [...]float64{c.H, c.S, c.V} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: %+v", ErrInvalidHSV, c)
		}
	}
	if c.S < 0 || c.S > 1 || c.V < 0 || c.V > 1 {
		return fmt.Errorf("%w: %+v", ErrInvalidHSV, c)
	}
	return nil
}

// HSVToRGB converts without gamma correction. The hue wraps, s and v are clamped.
func HSVToRGB(c HSV) RGB {
	col := colorful.Hsv(WrapHue(c.H)*360, clamp01(c.S), clamp01(c.V))
	r, g, b := col.Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

// HueDistance is the circular distance between two hues, in [0,0.5].
func HueDistance(a, b float64) float64 {
	d := math.Abs(WrapHue(a) - WrapHue(b))
	return math.Min(d, 1-d)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
