// Package layout loads and stores the coordinate table: one "x y z" line per
// LED, line index == LED index.
package layout

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

var ErrCount = errors.New("layout: wrong number of coordinates")

// Layout is the immutable position table. A zero point means the LED was
// never triangulated.
type Layout struct {
	Points []geometry.Vec3
}

func New(points []geometry.Vec3) Layout {
	return Layout{Points: append([]geometry.Vec3(nil), points...)}
}

func (l Layout) Count() int { return len(l.Points) }

func (l Layout) Degenerate(i int) bool { return l.Points[i].IsZero() }

// Known returns the indices with a real position.
func (l Layout) Known() []int {
	out := make([]int, 0, len(l.Points))
	for i, p := range l.Points {
		if !p.IsZero() {
			out = append(out, i)
		}
	}
	return out
}

// Extents covers every point, degenerate ones included.
func (l Layout) Extents() [3]geometry.Range {
	return geometry.Extents(l.Points)
}

// Parse reads the table. want <= 0 accepts any count.
func Parse(r io.Reader, want int) (Layout, error) {
	var pts []geometry.Vec3
	sc := bufio.NewScanner(r)
	line, blank := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			if blank == 0 {
				blank = line
			}
			continue
		}
		// Line position is the led index; only trailing blank lines are allowed.
		if blank > 0 {
			return Layout{}, fmt.Errorf("layout: line %d: blank line before the end of the table", blank)
		}
		f := strings.Fields(text)
		if len(f) != 3 {
			return Layout{}, fmt.Errorf("layout: line %d: want 3 fields, got %d", line, len(f))
		}
		var v [3]float64
		for i, s := range f {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return Layout{}, fmt.Errorf("layout: line %d: %w", line, err)
			}
			v[i] = x
		}
		pts = append(pts, geometry.Vec3{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return Layout{}, err
	}
	if want > 0 && len(pts) != want {
		return Layout{}, fmt.Errorf("%w: have %d, want %d", ErrCount, len(pts), want)
	}
	return Layout{Points: pts}, nil
}

func Load(path string, want int) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, err
	}
	defer f.Close()
	l, err := Parse(f, want)
	if err != nil {
		return Layout{}, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func (l Layout) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, p := range l.Points {
		fmt.Fprintf(bw, "%s %s %s\n", num(p.X), num(p.Y), num(p.Z))
	}
	return bw.Flush()
}

func (l Layout) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := l.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
