package calib

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func spot(w, h int, lit ...image.Point) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 12 // ambient noise below the threshold
	}
	for _, p := range lit {
		img.SetGray(p.X, p.Y, color.Gray{Y: 230})
	}
	return img
}

func TestDetectCentroid(t *testing.T) {
	img := spot(32, 16, image.Pt(10, 5), image.Pt(11, 5), image.Pt(12, 5), image.Pt(11, 8))
	assert.Equal(t, Sample{X: 11, Y: 6}, Detect(img, DefaultThreshold))
	assert.Equal(t, Sample{}, Detect(spot(8, 8), DefaultThreshold))

	sub := img.SubImage(image.Rect(8, 4, 20, 12))
	assert.Equal(t, Sample{X: 3, Y: 2}, Detect(sub, DefaultThreshold), "coordinates are relative to the image bounds")
}

func TestDetectSpotAtOrigin(t *testing.T) {
	s := Detect(spot(8, 8, image.Pt(0, 0)), DefaultThreshold)
	assert.True(t, s.Found(), "a lit corner pixel is not the missing sentinel")
	assert.Equal(t, Sample{X: 1, Y: 0}, s)
}

func TestDetectRoundsHalvesToEven(t *testing.T) {
	// x centroid 2.5, y centroid 3.5
	img := spot(8, 8, image.Pt(2, 3), image.Pt(3, 4))
	assert.Equal(t, Sample{X: 2, Y: 4}, Detect(img, DefaultThreshold))
}

func TestParseThreshold(t *testing.T) {
	v, err := ParseThreshold(255)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), v)

	_, err = ParseThreshold(256)
	assert.ErrorContains(t, err, "out of range")
}

func TestDetectAngleDecodesPNGAndBMP(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "90"), 0o755))
	imgs := []image.Image{spot(20, 20, image.Pt(4, 9)), spot(20, 20)}

	for i, img := range imgs {
		var pb, bb bytes.Buffer
		require.NoError(t, png.Encode(&pb, img))
		require.NoError(t, bmp.Encode(&bb, img))
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf(DefaultImagePattern, 90, i)), pb.Bytes(), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%[1]d/%[1]d_%[2]d.bmp", 90, i)), bb.Bytes(), 0o644))
	}

	want := []Sample{{X: 4, Y: 9}, {}}
	got, err := DetectAngle(dir, "", 90, 2, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = DetectAngle(dir, "%[1]d/%[1]d_%[2]d.bmp", 90, 2, DefaultThreshold)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DetectAngle(dir, "", 90, 3, DefaultThreshold)
	assert.Error(t, err)
}

func TestSaveSamplesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0_auto.txt")
	in := []Sample{{X: 339, Y: 256}, {}, {X: 12, Y: 400}}
	require.NoError(t, SaveSamples(path, in))
	out, err := LoadSamples(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
