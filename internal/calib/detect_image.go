//go:build !gocv

package calib

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Detect returns the rounded centroid of every pixel brighter than
// threshold, relative to the image bounds, or the zero Sample when none is.
func Detect(img image.Image, threshold uint8) Sample {
	b := img.Bounds()
	var sx, sy, n float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y > threshold {
				sx += float64(x - b.Min.X)
				sy += float64(y - b.Min.Y)
				n++
			}
		}
	}
	return centroid(sx, sy, n)
}

func DetectFile(path string, threshold uint8) (Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return Sample{}, err
	}
	defer f.Close()
	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return Sample{}, fmt.Errorf("%s: %w", path, err)
	}
	return Detect(img, threshold), nil
}
