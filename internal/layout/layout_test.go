package layout

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

func TestParse(t *testing.T) {
	l, err := Parse(strings.NewReader("1 2 3\n0 0 0\n-4.5 10 -2\n"), 3)
	require.NoError(t, err)

	want := []geometry.Vec3{{X: 1, Y: 2, Z: 3}, {}, {X: -4.5, Y: 10, Z: -2}}
	if diff := cmp.Diff(want, l.Points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, l.Degenerate(1))
	assert.False(t, l.Degenerate(0))
	assert.Equal(t, []int{0, 2}, l.Known())
	assert.Equal(t, geometry.Range{Min: -4.5, Max: 1}, l.Extents()[geometry.X])
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader("1 2 3\n"), 2)
	assert.ErrorIs(t, err, ErrCount)

	_, err = Parse(strings.NewReader("1 2\n"), 0)
	assert.ErrorContains(t, err, "line 1")

	_, err = Parse(strings.NewReader("1 2 x\n"), 0)
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("1 2 3\n\n4 5 6\n7 8 9\n"), 3)
	assert.ErrorContains(t, err, "line 2")
}

func TestParseAllowsTrailingBlankLines(t *testing.T) {
	l, err := Parse(strings.NewReader("1 2 3\n4 5 6\n\n\n"), 2)
	require.NoError(t, err)
	assert.Equal(t, geometry.Vec3{X: 4, Y: 5, Z: 6}, l.Points[1])
}

func TestSaveLoad(t *testing.T) {
	l := New([]geometry.Vec3{{X: 1, Y: 2, Z: 3}, {}, {X: -7, Y: 0.5, Z: 2}})
	var buf bytes.Buffer
	require.NoError(t, l.Write(&buf))
	assert.Equal(t, "1 2 3\n0 0 0\n-7 0.5 2\n", buf.String())

	path := filepath.Join(t.TempDir(), "coords.txt")
	require.NoError(t, l.Save(path))
	got, err := Load(path, 3)
	require.NoError(t, err)
	assert.Equal(t, l, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"), 3)
	assert.Error(t, err)
}
