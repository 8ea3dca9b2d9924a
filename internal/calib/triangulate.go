package calib

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

const DefaultVerticalCenter = 256

type Options struct {
	// VerticalCenter is subtracted from every vertical pixel coordinate so
	// the tree's trunk sits near y=0 in camera space.
	VerticalCenter float64
}

// pairOffsets rotates each pair's candidate about X back into the 0° frame.
// Pair k joins Angles[k] with Angles[k+1].
var pairOffsets = [4]float64{0, 270, 180, 90}

var (
	sin90 = math.Sin(math.Pi / 2)
	cos90 = math.Cos(math.Pi / 2)
)

type Result struct {
	Points []geometry.Vec3
	// Pairs counts the contributing angle pairs per led, 0..4.
	Pairs   []int
	Missing []int
	Found   int
	// Mean is the average of the triangulated points.
	Mean geometry.Vec3
}

func (r Result) Valid(i int) bool { return r.Pairs[i] > 0 }

// candidate reconstructs a point from two views 90° apart: the horizontal
// coordinate is shared, the first view's vertical is y and depth follows
// from the second view's vertical.
func candidate(a, b Sample, vc float64) geometry.Vec3 {
	v0, v1 := a.Y-vc, b.Y-vc
	return geometry.Vec3{
		X: (a.X + b.X) / 2,
		Y: v0,
		Z: (v0*cos90 - v1) / sin90,
	}
}

// Triangulate averages every valid adjacent-pair candidate per led and
// rounds. Leds without a valid pair come back as the zero point.
func Triangulate(v Views, opt Options) (Result, error) {
	if err := v.check(); err != nil {
		return Result{}, err
	}
	n := len(v[0])
	res := Result{
		Points: make([]geometry.Vec3, n),
		Pairs:  make([]int, n),
	}
	var xs, ys, zs []float64
	for i := 0; i < n; i++ {
		var sum geometry.Vec3
		for k := range Angles {
			a, b := v[k][i], v[(k+1)%len(Angles)][i]
			if !a.Found() || !b.Found() {
				continue
			}
			c := geometry.Rotate(candidate(a, b, opt.VerticalCenter), geometry.Vec3{X: pairOffsets[k]})
			sum = sum.Add(c)
			res.Pairs[i]++
		}
		if res.Pairs[i] == 0 {
			res.Missing = append(res.Missing, i)
			continue
		}
		p := sum.Scale(1 / float64(res.Pairs[i])).Round()
		res.Points[i] = p
		res.Found++
		xs, ys, zs = append(xs, p.X), append(ys, p.Y), append(zs, p.Z)
	}
	if res.Found > 0 {
		res.Mean = geometry.Vec3{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}
	}
	return res, nil
}

// Center shifts the valid points so x and z average to zero and the lowest
// y sits at zero. Invalid points stay at the origin and are ignored. The
// applied offset is rounded to whole units.
func Center(points []geometry.Vec3, valid func(i int) bool) ([]geometry.Vec3, geometry.Vec3) {
	out := make([]geometry.Vec3, len(points))
	var xs, zs []float64
	minY := math.Inf(1)
	for i, p := range points {
		if !valid(i) {
			continue
		}
		xs, zs = append(xs, p.X), append(zs, p.Z)
		minY = math.Min(minY, p.Y)
	}
	if len(xs) == 0 {
		return out, geometry.Vec3{}
	}
	offset := geometry.Vec3{
		X: -math.RoundToEven(stat.Mean(xs, nil)),
		Y: -minY,
		Z: -math.RoundToEven(stat.Mean(zs, nil)),
	}
	for i, p := range points {
		if valid(i) {
			out[i] = p.Add(offset)
		}
	}
	return out, offset
}
