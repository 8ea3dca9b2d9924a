package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
	"github.com/coreman2200/funtimes-treelights/internal/layout"
	"github.com/coreman2200/funtimes-treelights/internal/ledcolor"
)

func run(t *testing.T, plan Plan, l layout.Layout) (lit [][]int, labels []string) {
	t.Helper()
	require.NoError(t, plan.Validate(l.Count()))
	r := NewRunner(plan)
	f := ledcolor.NewFrame(l.Count())
	for r.Step(l, f) {
		lit = append(lit, Lit(f))
		labels = append(labels, r.Label())
		require.Less(t, len(lit), 1000, "runner never finished")
	}
	return lit, labels
}

func column(zs ...float64) layout.Layout {
	pts := make([]geometry.Vec3, len(zs))
	for i, z := range zs {
		pts[i] = geometry.Vec3{X: 1, Y: 1, Z: z}
	}
	return layout.New(pts)
}

func TestIndexSweep(t *testing.T) {
	lit, labels := run(t, Plan{Kind: IndexSweep}, column(0, 0, 0))
	assert.Equal(t, [][]int{{0}, {1}, {2}}, lit)
	assert.Equal(t, "LED: 2", labels[2])
}

func TestRGBChannels(t *testing.T) {
	l := column(0, 0)
	r := NewRunner(Plan{Kind: RGBTest})
	f := ledcolor.NewFrame(2)
	var got []ledcolor.RGB
	for r.Step(l, f) {
		got = append(got, f[1])
	}
	assert.Equal(t, []ledcolor.RGB{{R: 255}, {G: 255}, {B: 255}}, got)
}

func TestSlideGrid(t *testing.T) {
	lit, labels := run(t, Plan{Kind: SlideGrid, Axis: geometry.Z, Width: 50}, column(0, 40, 60, 120))
	assert.Equal(t, [][]int{{0, 1}, {2}, {3}}, lit)
	assert.Equal(t, "Showing 0-50", labels[0])
}

func TestFindBadLEDs(t *testing.T) {
	lit, _ := run(t, Plan{Kind: FindBadLEDs, Start: 1, End: 5, Batch: 3}, column(0, 0, 0, 0, 0))
	assert.Equal(t, [][]int{{1, 2, 3}, {4}}, lit)
}

func TestPlanValidate(t *testing.T) {
	assert.Error(t, Plan{Kind: "sparkle"}.Validate(10))
	assert.Error(t, Plan{Kind: SlideGrid, Axis: 3, Width: 50}.Validate(10))
	assert.Error(t, Plan{Kind: FindBadLEDs, Start: 5, End: 20, Batch: 1}.Validate(10))
	assert.NoError(t, Plan{Kind: FindBadLEDs, Start: 0, End: 10, Batch: 10}.Validate(10))
}
