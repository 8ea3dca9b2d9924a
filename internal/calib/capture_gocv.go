//go:build gocv

package calib

import (
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Capture grabs count frames from camera device into dir using pattern.
// before(i) runs ahead of frame i, typically to light led i.
func Capture(device int, dir, pattern string, angle, count int, before func(i int) error) error {
	if pattern == "" {
		pattern = DefaultImagePattern
	}
	cam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", device, err)
	}
	defer cam.Close()

	img := gocv.NewMat()
	defer img.Close()
	for i := 0; i < count; i++ {
		if err := before(i); err != nil {
			return err
		}
		if ok := cam.Read(&img); !ok || img.Empty() {
			return fmt.Errorf("camera %d: no image for led %d", device, i)
		}
		path := filepath.Join(dir, fmt.Sprintf(pattern, angle, i))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if !gocv.IMWrite(path, img) {
			return fmt.Errorf("write %s", path)
		}
	}
	return nil
}
