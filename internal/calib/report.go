package calib

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/coreman2200/funtimes-treelights/internal/diagnostics"
	"github.com/coreman2200/funtimes-treelights/internal/geometry"
)

// Report summarises data quality for the operator.
func Report(r Result) []diagnostics.Diagnostic {
	total := len(r.Points)
	out := []diagnostics.Diagnostic{{
		Severity: diagnostics.Info,
		Code:     "CAL.SUMMARY",
		Summary:  fmt.Sprintf("triangulated %d of %d leds", r.Found, total),
		Evidence: map[string]any{
			"found":  r.Found,
			"total":  total,
			"mean_x": r.Mean.X,
			"mean_y": r.Mean.Y,
			"mean_z": r.Mean.Z,
		},
	}}
	if total > 0 && r.Found == 0 {
		out = append(out, diagnostics.Diagnostic{
			Severity:       diagnostics.Err,
			Code:           "CAL.NONE",
			Summary:        "no led could be triangulated",
			LikelyCauses:   []string{"detection files are empty or all 0 0", "threshold too high for the room light"},
			SuggestedFixes: []string{"re-run detection with a lower threshold"},
		})
		return out
	}
	if len(r.Missing) > 0 {
		out = append(out, diagnostics.Diagnostic{
			Severity:       diagnostics.Warn,
			Code:           "CAL.MISSING",
			Summary:        fmt.Sprintf("%d leds have no position and will stay dark in effects", len(r.Missing)),
			LikelyCauses:   []string{"led hidden behind branches in adjacent views", "dead led"},
			SuggestedFixes: []string{"retake photos for the listed angles", "add the index to bad_leds if it never lights"},
			Evidence:       map[string]any{"leds": r.Missing},
		})
	}
	var single []int
	for i, n := range r.Pairs {
		if n == 1 {
			single = append(single, i)
		}
	}
	if len(single) > 0 {
		out = append(out, diagnostics.Diagnostic{
			Severity: diagnostics.Info,
			Code:     "CAL.SINGLE_PAIR",
			Summary:  fmt.Sprintf("%d leds rest on a single view pair", len(single)),
			Evidence: map[string]any{"leds": single},
		})
	}
	return out
}

// Plot writes front (x/y) and side (z/y) scatter plots of the valid points
// into dir and returns the file paths.
func Plot(points []geometry.Vec3, valid func(i int) bool, dir string) ([]string, error) {
	views := []struct {
		name  string
		axis  geometry.Axis
		title string
	}{
		{"front", geometry.X, "Front (x/y)"},
		{"side", geometry.Z, "Side (z/y)"},
	}
	var files []string
	for _, v := range views {
		xys := make(plotter.XYs, 0, len(points))
		for i, p := range points {
			if valid(i) {
				xys = append(xys, plotter.XY{X: p.At(v.axis), Y: p.Y})
			}
		}
		if len(xys) == 0 {
			return files, fmt.Errorf("%s plot: no valid points", v.name)
		}
		p := plot.New()
		p.Title.Text = v.title
		p.X.Label.Text = v.axis.String()
		p.Y.Label.Text = "y"

		s, err := plotter.NewScatter(xys)
		if err != nil {
			return files, fmt.Errorf("%s plot: %w", v.name, err)
		}
		s.GlyphStyle.Color = color.RGBA{R: 30, G: 140, B: 60, A: 255}
		s.GlyphStyle.Radius = vg.Points(2)
		p.Add(s, plotter.NewGrid())

		file := filepath.Join(dir, "coords_"+v.name+".png")
		if err := p.Save(6*vg.Inch, 8*vg.Inch, file); err != nil {
			return files, fmt.Errorf("%s plot: %w", v.name, err)
		}
		files = append(files, file)
	}
	return files, nil
}
