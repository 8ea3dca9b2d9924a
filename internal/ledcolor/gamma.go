package ledcolor

import (
	"fmt"
	"math"
)

// Gamma holds per-channel lookup tables built once from the configured
// exponents. It is immutable and safe for concurrent use.
type Gamma struct {
	red, green, blue [256]uint8
	hues             [360]RGB
}

func NewGamma(red, green, blue float64) *Gamma {
	g := &Gamma{}
	fillLUT(&g.red, red)
	fillLUT(&g.green, green)
	fillLUT(&g.blue, blue)
	for deg := range g.hues {
		g.hues[deg] = g.CorrectRGB(HSVToRGB(HSV{H: float64(deg) / 360, S: 1, V: 1}))
	}
	return g
}

func fillLUT(lut *[256]uint8, exp float64) {
	for i := range lut {
		lut[i] = uint8(math.Round(math.Pow(float64(i)/255, exp) * 255))
	}
}

// Correct converts hsv, or failing that rgb, into a gamma corrected pixel.
// hsv wins when both are given.
func (g *Gamma) Correct(hsv *HSV, rgb *RGB) (RGB, error) {
	switch {
	case hsv != nil:
		return g.CorrectHSV(*hsv)
	case rgb != nil:
		return g.CorrectRGB(*rgb), nil
	}
	return RGB{}, ErrNoColor
}

func (g *Gamma) CorrectHSV(c HSV) (RGB, error) {
	if err := c.validate(); err != nil {
		return RGB{}, err
	}
	return g.CorrectRGB(HSVToRGB(c)), nil
}

func (g *Gamma) CorrectRGB(c RGB) RGB {
	return RGB{R: g.red[c.R], G: g.green[c.G], B: g.blue[c.B]}
}

// Hue returns the corrected fully saturated color for a hue in degrees.
// Integral degrees come from a precomputed table.
func (g *Gamma) Hue(deg float64) RGB {
	deg = WrapDegrees(deg)
	if deg == math.Trunc(deg) {
		return g.hues[int(deg)]
	}
	return g.CorrectRGB(HSVToRGB(HSV{H: deg / 360, S: 1, V: 1}))
}

// CorrectFrame converts src elementwise into dst. Lengths must match.
func (g *Gamma) CorrectFrame(dst Frame, src []HSV) error {
	if len(dst) != len(src) {
		return fmt.Errorf("ledcolor: frame length %d, have %d colors", len(dst), len(src))
	}
	for i, c := range src {
		out, err := g.CorrectHSV(c)
		if err != nil {
			return fmt.Errorf("pixel %d: %w", i, err)
		}
		dst[i] = out
	}
	return nil
}

// CorrectRGBFrame gamma corrects dst in place.
func (g *Gamma) CorrectRGBFrame(dst Frame) {
	for i, c := range dst {
		dst[i] = g.CorrectRGB(c)
	}
}
