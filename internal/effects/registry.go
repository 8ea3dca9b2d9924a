package effects

import (
	"fmt"
	"sort"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

// Params are the numeric knobs of an effect, by name.
type Params map[string]float64

// Get returns the value for key or def when unset.
func (p Params) Get(key string, def float64) float64 {
	if p == nil {
		return def
	}
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) axis(key string, def geometry.Axis) (geometry.Axis, error) {
	a := geometry.Axis(int(p.Get(key, float64(def))))
	if !a.Valid() {
		return 0, fmt.Errorf("param %s: axis must be 0, 1 or 2, got %v", key, p[key])
	}
	return a, nil
}

// Builder turns params into a runnable effect.
type Builder func(p Params) (Effect, error)

type Registry struct{ m map[string]Builder }

func NewRegistry() *Registry { return &Registry{m: map[string]Builder{}} }

func (r *Registry) Register(name string, b Builder) {
	if b == nil {
		return
	}
	r.m[name] = b
}

func (r *Registry) Build(name string, p Params) (Effect, error) {
	b, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("effects: unknown effect %q", name)
	}
	fn, err := b(p)
	if err != nil {
		return nil, fmt.Errorf("effects: %s: %w", name, err)
	}
	return fn, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.m[name]
	return ok
}

func (r *Registry) List() []string {
	out := make([]string, 0, len(r.m))
	for k := range r.m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultRegistry holds every built-in effect.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("axis_rainbow", func(p Params) (Effect, error) {
		a, err := p.axis("axis", geometry.Y)
		if err != nil {
			return nil, err
		}
		return AxisRainbow(a, p.Get("step", 0.01), p.Get("width", 0.5)), nil
	})
	r.Register("radial_rainbow", func(p Params) (Effect, error) {
		a, err := p.axis("axis", geometry.Y)
		if err != nil {
			return nil, err
		}
		return RadialRainbow(a, p.Get("step", 0.01), p.Get("width", 1)), nil
	})
	r.Register("solid_rainbow", func(p Params) (Effect, error) {
		return SolidRainbow(p.Get("step", 1.0/360)), nil
	})
	r.Register("rotating_rainbow", func(p Params) (Effect, error) {
		a, err := p.axis("axis", geometry.Y)
		if err != nil {
			return nil, err
		}
		return RotatingRainbow(a, p.Get("step", 0.01), p.Get("width", 1), p.Get("spin", 2)), nil
	})
	r.Register("random_plane", func(p Params) (Effect, error) {
		cfg := PlaneConfig{
			Thickness:      p.Get("thickness", 50),
			Speed:          p.Get("speed", 10),
			MinHueDistance: p.Get("min_hue_distance", 0.15),
			Overshoot:      p.Get("overshoot", 200),
		}
		if cfg.Speed <= 0 || cfg.Thickness <= 0 {
			return nil, fmt.Errorf("speed and thickness must be positive")
		}
		return RandomPlane(cfg), nil
	})
	r.Register("rotating_plane", func(p Params) (Effect, error) {
		a, err := p.axis("axis", geometry.Y)
		if err != nil {
			return nil, err
		}
		return RotatingPlane(a, p.Get("speed", 3), p.Get("feather", 20)), nil
	})
	return r
}
