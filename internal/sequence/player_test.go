package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	Effect string
	Params map[string]float64
	D      time.Duration
}

func twoClips(loop bool) Program {
	return Program{
		Version: Version,
		Loop:    loop,
		Clips: []Clip{
			{Name: "A", Effect: "random_plane", DurationS: 4},
			{Name: "B", Effect: "axis_rainbow", DurationS: 0.5, Params: map[string]float64{"axis": 2}},
		},
	}
}

func TestPlayerRunsClipsInOrder(t *testing.T) {
	var calls []call
	var seen []int
	p := NewPlayer(Hooks{
		RunFor: func(_ context.Context, effect string, params map[string]float64, d time.Duration) error {
			calls = append(calls, call{effect, params, d})
			return nil
		},
		OnClip: func(i int, _ Clip) { seen = append(seen, i) },
	}, zerolog.Nop())
	require.NoError(t, p.Load(twoClips(false)))
	require.NoError(t, p.Run(context.Background()))

	want := []call{
		{"random_plane", nil, 4 * time.Second},
		{"axis_rainbow", map[string]float64{"axis": 2}, 500 * time.Millisecond},
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{0, 1}, seen)
	assert.Equal(t, Idle, p.State())
	assert.Equal(t, 1, p.Loops())
}

func TestPlayerLoopsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	var p *Player
	p = NewPlayer(Hooks{
		RunFor: func(ctx context.Context, effect string, _ map[string]float64, _ time.Duration) error {
			n++
			i, c, ok := p.Current()
			assert.True(t, ok)
			assert.Equal(t, effect, c.Effect)
			assert.Equal(t, (n-1)%2, i)
			if n == 5 {
				cancel()
			}
			return nil
		},
	}, zerolog.Nop())
	require.NoError(t, p.Load(twoClips(true)))
	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, p.Loops())
	_, _, ok := p.Current()
	assert.False(t, ok)
}

func TestPlayerStopsOnClipError(t *testing.T) {
	boom := errors.New("strip gone")
	p := NewPlayer(Hooks{
		RunFor: func(context.Context, string, map[string]float64, time.Duration) error { return boom },
	}, zerolog.Nop())
	require.NoError(t, p.Load(twoClips(true)))
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "clip 0 (A)")
}

func TestPlayerNeedsProgramAndHook(t *testing.T) {
	p := NewPlayer(Hooks{}, zerolog.Nop())
	assert.Error(t, p.Run(context.Background()))

	p = NewPlayer(Hooks{RunFor: func(context.Context, string, map[string]float64, time.Duration) error { return nil }}, zerolog.Nop())
	assert.ErrorIs(t, p.Run(context.Background()), ErrEmpty)
	assert.ErrorIs(t, p.Load(Program{}), ErrEmpty)
}

func TestValidate(t *testing.T) {
	known := func(name string) bool { return name == "random_plane" || name == "axis_rainbow" }
	assert.NoError(t, twoClips(false).Validate(known))
	assert.NoError(t, DefaultProgram().Validate(known))

	bad := twoClips(false)
	bad.Clips[1].DurationS = 0
	assert.Error(t, bad.Validate(nil))

	bad = twoClips(false)
	bad.Clips[0].Effect = "sparkle"
	assert.Error(t, bad.Validate(known))

	bad = twoClips(false)
	bad.Version = "seq.v9"
	assert.Error(t, bad.Validate(nil))
}

func TestParseYAMLAndJSON(t *testing.T) {
	y := `
version: seq.v1
loop: true
clips:
  - name: A
    effect: random_plane
    duration_s: 4
  - name: B
    effect: axis_rainbow
    duration_s: 0.5
    params: {axis: 2}
`
	j := `{"version":"seq.v1","loop":true,"clips":[
	  {"name":"A","effect":"random_plane","durationS":4},
	  {"name":"B","effect":"axis_rainbow","durationS":0.5,"params":{"axis":2}}]}`

	for name, src := range map[string]string{"yaml": y, "json": j} {
		got, err := Parse([]byte(src))
		require.NoError(t, err, name)
		if diff := cmp.Diff(twoClips(true), got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	_, err := Parse([]byte("{not json"))
	assert.Error(t, err)
}

func TestDefaultProgram(t *testing.T) {
	p, err := LoadFile("")
	require.NoError(t, err)
	require.Len(t, p.Clips, 7)
	assert.True(t, p.Loop)
	assert.Equal(t, "random_plane", p.Clips[0].Effect)
	assert.Equal(t, 22.0, p.TotalS())
	assert.Equal(t, map[string]float64{"axis": 2, "step": 0.01, "width": 0.5}, p.Clips[6].Params)
}
