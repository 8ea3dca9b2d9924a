package sequence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const Version = "seq.v1"

var ErrEmpty = errors.New("sequence: program has no clips")

// Validate checks the program shape. known, when set, reports whether an
// effect name can be built.
func (p Program) Validate(known func(string) bool) error {
	if p.Version != "" && p.Version != Version {
		return fmt.Errorf("sequence: unsupported version %q", p.Version)
	}
	if len(p.Clips) == 0 {
		return ErrEmpty
	}
	for i, c := range p.Clips {
		if c.Effect == "" {
			return fmt.Errorf("sequence: clip %d: no effect", i)
		}
		if c.DurationS <= 0 {
			return fmt.Errorf("sequence: clip %d (%s): duration must be positive", i, c.label())
		}
		if known != nil && !known(c.Effect) {
			return fmt.Errorf("sequence: clip %d: unknown effect %q", i, c.Effect)
		}
	}
	return nil
}

// TotalS is the length of one pass in seconds.
func (p Program) TotalS() float64 {
	total := 0.0
	for _, c := range p.Clips {
		total += c.DurationS
	}
	return total
}

// Parse decodes JSON when the data looks like a JSON object, YAML otherwise.
func Parse(data []byte) (Program, error) {
	var p Program
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &p); err != nil {
			return Program{}, fmt.Errorf("sequence: parse json: %w", err)
		}
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Program{}, fmt.Errorf("sequence: parse yaml: %w", err)
	}
	return p, nil
}

// LoadFile reads a program from disk. An empty path yields DefaultProgram.
func LoadFile(path string) (Program, error) {
	if path == "" {
		return DefaultProgram(), nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Program{}, err
	}
	return Parse(data)
}

// DefaultProgram is the tree's everyday playlist: a plane sweep followed by
// short rainbows up and down each axis.
func DefaultProgram() Program {
	p := Program{Version: Version, Loop: true}
	p.Clips = append(p.Clips, Clip{Name: "planes", Effect: "random_plane", DurationS: 10, Params: map[string]float64{"thickness": 50}})
	for axis := 0; axis < 3; axis++ {
		for _, step := range []float64{-0.01, 0.01} {
			p.Clips = append(p.Clips, Clip{
				Effect:    "axis_rainbow",
				DurationS: 2,
				Params:    map[string]float64{"axis": float64(axis), "step": step, "width": 0.5},
			})
		}
	}
	return p
}
