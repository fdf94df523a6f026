// Package testdata provides synthetic frames for tests.
package testdata

import (
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"gocv.io/x/gocv"
)

// Frame returns a dark frame with a light block whose left edge sits at offset.
// Frames with different offsets differ enough to trigger the motion gate.
func Frame(width, height, offset int) gocv.Mat {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 20, 20, 0), height, width, gocv.MatTypeCV8UC3)
	block := image.Rect(offset, height/4, offset+width/4, height*3/4)
	gocv.Rectangle(&mat, block, color.RGBA{R: 230, G: 230, B: 230}, -1)
	return mat
}

// Sequence returns n frames with the block moving step pixels per frame.
// The caller must close every frame.
func Sequence(n, width, height, step int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := range n {
		f := Frame(width, height, (i*step)%(width-width/4))
		frames = append(frames, &f)
	}
	return frames
}

// WriteImage writes a frame to dir/name and returns its path.
func WriteImage(dir, name string, width, height int) (string, error) {
	mat := Frame(width, height, width/3)
	defer mat.Close()

	path := filepath.Join(dir, name)
	if !gocv.IMWrite(path, mat) {
		return "", fmt.Errorf("write frame %s", path)
	}
	return path, nil
}
