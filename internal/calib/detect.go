package calib

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// DefaultImagePattern names capture i at an angle: "<angle>/<angle>_<i>.png".
const DefaultImagePattern = "%[1]d/%[1]d_%[2]d.png"

// DefaultThreshold is the gray level a pixel must exceed to count as lit.
const DefaultThreshold = 40

// ParseThreshold checks a gray level given on the command line.
func ParseThreshold(v uint) (uint8, error) {
	if v > math.MaxUint8 {
		return 0, fmt.Errorf("calib: threshold %d out of range 0..255", v)
	}
	return uint8(v), nil
}

// centroid turns moment sums over n lit pixels into a Sample. No lit pixels
// is the zero Sample. A spot whose centroid rounds to the origin is moved to
// (1,0) so it cannot be mistaken for "not found".
func centroid(sx, sy, n float64) Sample {
	if n == 0 {
		return Sample{}
	}
	s := Sample{X: math.RoundToEven(sx / n), Y: math.RoundToEven(sy / n)}
	if !s.Found() {
		s.X = 1
	}
	return s
}

// DetectAngle runs Detect over count captures of one angle.
func DetectAngle(dir, pattern string, angle, count int, threshold uint8) ([]Sample, error) {
	if pattern == "" {
		pattern = DefaultImagePattern
	}
	out := make([]Sample, count)
	for i := range out {
		s, err := DetectFile(filepath.Join(dir, fmt.Sprintf(pattern, angle, i)), threshold)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// WriteSamples writes "px py" lines readable by ReadSamples.
func WriteSamples(w io.Writer, s []Sample) error {
	bw := bufio.NewWriter(w)
	for _, p := range s {
		if _, err := fmt.Fprintf(bw, "%d %d\n", int(p.X), int(p.Y)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func SaveSamples(path string, s []Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSamples(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
