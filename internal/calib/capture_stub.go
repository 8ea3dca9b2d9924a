//go:build !gocv

package calib

import "errors"

// Capture needs OpenCV; rebuild with -tags gocv.
func Capture(device int, dir, pattern string, angle, count int, before func(i int) error) error {
	return errors.New("camera capture not built; rebuild with -tags gocv")
}
