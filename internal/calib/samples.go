// Package calib turns per-angle bright-spot detections into 3D LED positions.
package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Angles are the four camera positions, in capture order.
var Angles = [4]int{0, 90, 180, 270}

const DefaultPattern = "%d_auto.txt"

// Sample is one detection in image pixels. (0,0) means the spot was not found.
type Sample struct {
	X, Y float64
}

func (s Sample) Found() bool { return s.X != 0 || s.Y != 0 }

// Views holds one detection sequence per entry of Angles.
type Views [4][]Sample

var ErrMismatch = errors.New("calib: detection files disagree on led count")

// ReadSamples parses "px py" lines.
func ReadSamples(r io.Reader) ([]Sample, error) {
	var out []Sample
	sc := bufio.NewScanner(r)
	line, blank := 0, 0
	for sc.Scan() {
		line++
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			if blank == 0 {
				blank = line
			}
			continue
		}
		if blank > 0 {
			return nil, fmt.Errorf("line %d: blank line before the last sample", blank)
		}
		if len(f) != 2 {
			return nil, fmt.Errorf("line %d: want 2 fields, got %d", line, len(f))
		}
		x, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		y, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, Sample{X: x, Y: y})
	}
	return out, sc.Err()
}

func LoadSamples(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadViews reads the four detection files named by pattern (one %d verb for
// the angle) under dir. want > 0 enforces the led count.
func LoadViews(dir, pattern string, want int) (Views, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	var v Views
	for i, angle := range Angles {
		path := filepath.Join(dir, fmt.Sprintf(pattern, angle))
		s, err := LoadSamples(path)
		if err != nil {
			return Views{}, err
		}
		if want > 0 && len(s) != want {
			return Views{}, fmt.Errorf("%w: %s has %d lines, want %d", ErrMismatch, path, len(s), want)
		}
		v[i] = s
	}
	return v, v.check()
}

func (v Views) check() error {
	for i := 1; i < len(v); i++ {
		if len(v[i]) != len(v[0]) {
			return fmt.Errorf("%w: %d° has %d, 0° has %d", ErrMismatch, Angles[i], len(v[i]), len(v[0]))
		}
	}
	return nil
}
