package calib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-treelights/internal/diagnostics"
	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

const vc = DefaultVerticalCenter

// observe projects p the way a camera at Angles[k] sees it: the tree turns
// about the horizontal axis, x stays put and the vertical pixel is the
// rotated y plus the vertical center.
func observe(p geometry.Vec3, k int) Sample {
	var v float64
	switch Angles[k] {
	case 0:
		v = p.Y
	case 90:
		v = -p.Z
	case 180:
		v = -p.Y
	case 270:
		v = p.Z
	}
	return Sample{X: p.X, Y: v + vc}
}

func viewsOf(pts []geometry.Vec3, hide map[int][]int) Views {
	var v Views
	for k := range Angles {
		v[k] = make([]Sample, len(pts))
		for i, p := range pts {
			v[k][i] = observe(p, k)
		}
	}
	for i, ks := range hide {
		for _, k := range ks {
			v[k][i] = Sample{}
		}
	}
	return v
}

func TestTriangulateReconstructsKnownPoints(t *testing.T) {
	pts := []geometry.Vec3{
		{X: 37, Y: 120, Z: -45},
		{X: -80, Y: 3, Z: 60},
		{X: 12, Y: -200, Z: 0},
	}
	res, err := Triangulate(viewsOf(pts, nil), Options{VerticalCenter: vc})
	require.NoError(t, err)
	if diff := cmp.Diff(pts, res.Points); diff != "" {
		t.Fatalf("points (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{4, 4, 4}, res.Pairs)
	assert.Empty(t, res.Missing)
	assert.Equal(t, 3, res.Found)
	assert.InDelta(t, (37.0-80+12)/3, res.Mean.X, 1e-9)
}

func TestTriangulateWithHiddenViews(t *testing.T) {
	p := geometry.Vec3{X: 37, Y: 120, Z: -45}
	cases := []struct {
		name  string
		hide  []int
		pairs int
	}{
		{"hidden 180", []int{2}, 2},
		{"all visible", []int{}, 4},
		{"only 0-90", []int{2, 3}, 1},
		{"only 270-0", []int{1, 2}, 1},
		{"no adjacent pair", []int{1, 3}, 0},
		{"all missing", []int{0, 1, 2, 3}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pts := []geometry.Vec3{p}
			res, err := Triangulate(viewsOf(pts, map[int][]int{0: tc.hide}), Options{VerticalCenter: vc})
			require.NoError(t, err)
			assert.Equal(t, tc.pairs, res.Pairs[0])
			if tc.pairs == 0 {
				assert.Equal(t, geometry.Vec3{}, res.Points[0])
				assert.Equal(t, []int{0}, res.Missing)
				assert.False(t, res.Valid(0))
				assert.Equal(t, geometry.Vec3{}, res.Mean)
				return
			}
			assert.Equal(t, p, res.Points[0])
			assert.True(t, res.Valid(0))
		})
	}
}

func TestTriangulateRoundsHalvesToEven(t *testing.T) {
	var v Views
	v[0] = []Sample{{X: 10, Y: vc}, {X: 12, Y: vc}}
	v[1] = []Sample{{X: 11, Y: vc + 20}, {X: 13, Y: vc + 20}}
	v[2] = make([]Sample, 2)
	v[3] = make([]Sample, 2)

	res, err := Triangulate(v, Options{VerticalCenter: vc})
	require.NoError(t, err)
	assert.Equal(t, []geometry.Vec3{{X: 10, Z: -20}, {X: 12, Z: -20}}, res.Points)
}

func TestTriangulateRejectsMismatchedViews(t *testing.T) {
	v := viewsOf([]geometry.Vec3{{X: 1, Y: 1, Z: 1}}, nil)
	v[2] = append(v[2], Sample{})
	_, err := Triangulate(v, Options{VerticalCenter: vc})
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestCenter(t *testing.T) {
	pts := []geometry.Vec3{{X: 10, Y: 5, Z: 2}, {}, {X: 20, Y: -5, Z: 6}}
	valid := func(i int) bool { return i != 1 }

	got, offset := Center(pts, valid)
	assert.Equal(t, geometry.Vec3{X: -15, Y: 5, Z: -4}, offset)
	assert.Equal(t, []geometry.Vec3{{X: -5, Y: 10, Z: -2}, {}, {X: 5, Y: 0, Z: 2}}, got)

	got, offset = Center(pts, func(int) bool { return false })
	assert.Equal(t, geometry.Vec3{}, offset)
	assert.Equal(t, make([]geometry.Vec3, 3), got)
}

func TestReadSamples(t *testing.T) {
	s, err := ReadSamples(strings.NewReader("10 20\n0 0\n7 8\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []Sample{{10, 20}, {}, {7, 8}}, s)

	_, err = ReadSamples(strings.NewReader("10 20\n\n7 8\n"))
	assert.ErrorContains(t, err, "line 2")
	assert.False(t, s[1].Found())
	assert.True(t, Sample{X: 0, Y: 3}.Found())

	_, err = ReadSamples(strings.NewReader("10\n"))
	assert.ErrorContains(t, err, "line 1")
	_, err = ReadSamples(strings.NewReader("10 y\n"))
	assert.Error(t, err)
}

func TestLoadViews(t *testing.T) {
	dir := t.TempDir()
	pts := []geometry.Vec3{{X: 5, Y: 6, Z: 7}, {X: -3, Y: 40, Z: 2}}
	v := viewsOf(pts, nil)
	for k, angle := range Angles {
		var b strings.Builder
		for _, s := range v[k] {
			fmt.Fprintf(&b, "%d %d\n", int(s.X), int(s.Y))
		}
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf(DefaultPattern, angle)), []byte(b.String()), 0644))
	}

	got, err := LoadViews(dir, "", 2)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = LoadViews(dir, "", 3)
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = LoadViews(dir, "%d_missing.txt", 0)
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	pts := []geometry.Vec3{{X: 37, Y: 120, Z: -45}, {X: 1, Y: 2, Z: 3}, {X: 4, Y: 5, Z: 6}}
	res, err := Triangulate(viewsOf(pts, map[int][]int{1: {0, 1, 2, 3}, 2: {2, 3}}), Options{VerticalCenter: vc})
	require.NoError(t, err)

	ds := Report(res)
	codes := make([]string, len(ds))
	for i, d := range ds {
		codes[i] = d.Code
	}
	assert.Equal(t, []string{"CAL.SUMMARY", "CAL.MISSING", "CAL.SINGLE_PAIR"}, codes)
	assert.Equal(t, diagnostics.Warn, diagnostics.Worst(ds))
	assert.Equal(t, []int{1}, ds[1].Evidence["leds"])

	none, err := Triangulate(viewsOf(pts[:1], map[int][]int{0: {0, 1, 2, 3}}), Options{VerticalCenter: vc})
	require.NoError(t, err)
	assert.Equal(t, diagnostics.Err, diagnostics.Worst(Report(none)))
}

func TestPlotWritesImages(t *testing.T) {
	dir := t.TempDir()
	pts := []geometry.Vec3{{X: 1, Y: 2, Z: 3}, {}, {X: -4, Y: 9, Z: 1}}
	files, err := Plot(pts, func(i int) bool { return i != 1 }, dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		st, err := os.Stat(f)
		require.NoError(t, err)
		assert.Greater(t, st.Size(), int64(0))
	}

	_, err = Plot(pts, func(int) bool { return false }, dir)
	assert.Error(t, err)
}
