// Package render draws the detected skeleton and hold status onto video frames.
package render

import (
	"image"
	"math"

	"github.com/ayusman/edorun/internal/detector"
)

// Mapper converts normalized landmark coordinates into display pixels when a
// source image is scaled to cover the display and center-cropped.
type Mapper struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
	source  image.Point
	display image.Point
}

// NewMapper returns a cover-fit mapper from a source size to a display size.
// ok is false when either size is empty.
func NewMapper(source, display image.Point) (Mapper, bool) {
	if source.X <= 0 || source.Y <= 0 || display.X <= 0 || display.Y <= 0 {
		return Mapper{}, false
	}

	sw, sh := float64(source.X), float64(source.Y)
	dw, dh := float64(display.X), float64(display.Y)

	scale := math.Max(dw/sw, dh/sh)
	return Mapper{
		Scale:   scale,
		OffsetX: (dw - sw*scale) / 2,
		OffsetY: (dh - sh*scale) / 2,
		source:  source,
		display: display,
	}, true
}

// Point maps a landmark to display coordinates.
func (m Mapper) Point(l detector.Landmark) (x, y float64) {
	x = l.X*float64(m.source.X)*m.Scale + m.OffsetX
	y = l.Y*float64(m.source.Y)*m.Scale + m.OffsetY
	return x, y
}

// Pixel maps a landmark to the nearest display pixel.
func (m Mapper) Pixel(l detector.Landmark) image.Point {
	x, y := m.Point(l)
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

// Crop returns the rectangle of the scaled source that is visible in the display.
func (m Mapper) Crop() image.Rectangle {
	x := int(math.Round(-m.OffsetX))
	y := int(math.Round(-m.OffsetY))
	return image.Rect(x, y, x+m.display.X, y+m.display.Y)
}
