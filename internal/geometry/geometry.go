// Package geometry holds the pure coordinate math shared by calibration and
// the effects: rotations, polar projection and extents.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type Axis int

const (
	X Axis = iota
	Y
	Z
)

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return "?"
}

func (a Axis) Valid() bool { return a >= X && a <= Z }

type Vec3 struct{ X, Y, Z float64 }

func (v Vec3) At(a Axis) float64 {
	switch a {
	case X:
		return v.X
	case Y:
		return v.Y
	default:
		return v.Z
	}
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// IsZero reports the degenerate point, i.e. an LED with unknown position.
func (v Vec3) IsZero() bool { return v == Vec3{} }

func (v Vec3) Round() Vec3 {
	return Vec3{math.RoundToEven(v.X), math.RoundToEven(v.Y), math.RoundToEven(v.Z)}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// RotationMatrix builds R = Rz·Ry·Rx for angles in degrees.
func RotationMatrix(angles Vec3) *mat.Dense {
	sx, cx := math.Sincos(radians(angles.X))
	sy, cy := math.Sincos(radians(angles.Y))
	sz, cz := math.Sincos(radians(angles.Z))

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, cx, -sx,
		0, sx, cx,
	})
	ry := mat.NewDense(3, 3, []float64{
		cy, 0, sy,
		0, 1, 0,
		-sy, 0, cy,
	})
	rz := mat.NewDense(3, 3, []float64{
		cz, -sz, 0,
		sz, cz, 0,
		0, 0, 1,
	})
	var zy, r mat.Dense
	zy.Mul(rz, ry)
	r.Mul(&zy, rx)
	return &r
}

func apply(r mat.Matrix, p Vec3) Vec3 {
	var out mat.VecDense
	out.MulVec(r, mat.NewVecDense(3, []float64{p.X, p.Y, p.Z}))
	return Vec3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Rotate rotates p about X, then Y, then Z.
func Rotate(p, angles Vec3) Vec3 {
	return apply(RotationMatrix(angles), p)
}

// Unrotate applies the inverse (transpose) of Rotate's matrix.
func Unrotate(p, angles Vec3) Vec3 {
	return apply(RotationMatrix(angles).T(), p)
}

// RotateAll rotates every point with one N×3 multiply.
func RotateAll(pts []Vec3, angles Vec3) []Vec3 {
	return mulAll(pts, RotationMatrix(angles).T())
}

func UnrotateAll(pts []Vec3, angles Vec3) []Vec3 {
	return mulAll(pts, RotationMatrix(angles))
}

// mulAll returns P·m where P holds one point per row.
func mulAll(pts []Vec3, m mat.Matrix) []Vec3 {
	if len(pts) == 0 {
		return nil
	}
	data := make([]float64, 0, 3*len(pts))
	for _, p := range pts {
		data = append(data, p.X, p.Y, p.Z)
	}
	var out mat.Dense
	out.Mul(mat.NewDense(len(pts), 3, data), m)

	res := make([]Vec3, len(pts))
	for i := range res {
		res[i] = Vec3{out.At(i, 0), out.At(i, 1), out.At(i, 2)}
	}
	return res
}

// Polar is a point projected onto a plane: radius and angle in degrees.
type Polar struct {
	R, Theta float64
}

// planeAxes lists the (u, v) axes left after excluding one.
var planeAxes = [3][2]Axis{
	X: {Y, Z},
	Y: {X, Z},
	Z: {X, Y},
}

// ToPolar projects onto the plane orthogonal to exclude. Theta = atan2(v,u)
// in degrees, within (-180,180].
func ToPolar(pts []Vec3, exclude Axis) []Polar {
	ax := planeAxes[exclude]
	out := make([]Polar, len(pts))
	for i, p := range pts {
		u, v := p.At(ax[0]), p.At(ax[1])
		theta := math.Atan2(v, u) * 180 / math.Pi
		if theta == -180 {
			theta = 180
		}
		out[i] = Polar{R: math.Hypot(u, v), Theta: theta}
	}
	return out
}

type Range struct{ Min, Max float64 }

func (r Range) Span() float64 { return r.Max - r.Min }

// MinMax scans every point, degenerate ones included. An empty slice yields
// the zero Range.
func MinMax(pts []Vec3, a Axis) (lo, hi float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		v := p.At(a)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func Extents(pts []Vec3) [3]Range {
	var out [3]Range
	for a := X; a <= Z; a++ {
		out[a].Min, out[a].Max = MinMax(pts, a)
	}
	return out
}
