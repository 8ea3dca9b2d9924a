//go:build gocv

package calib

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"
)

// Detect returns the rounded centroid of every pixel brighter than
// threshold, relative to the image bounds, or the zero Sample when none is.
func Detect(img image.Image, threshold uint8) Sample {
	b := img.Bounds()
	gray := gocv.NewMatWithSize(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1)
	defer gray.Close()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			gray.SetUCharAt(y, x, g.Y)
		}
	}
	return detectMat(gray, threshold)
}

func DetectFile(path string, threshold uint8) (Sample, error) {
	if _, err := os.Stat(path); err != nil {
		return Sample{}, err
	}
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return Sample{}, fmt.Errorf("%s: cannot decode image", path)
	}
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	return detectMat(gray, threshold), nil
}

// detectMat thresholds a single channel image and takes the centroid from
// its moments.
func detectMat(gray gocv.Mat, threshold uint8) Sample {
	bin := gocv.NewMat()
	defer bin.Close()
	gocv.Threshold(gray, &bin, float32(threshold), 255, gocv.ThresholdBinary)
	m := gocv.Moments(bin, true)
	return centroid(m["m10"], m["m01"], m["m00"])
}
