package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ayusman/edorun/internal/detector"
	"github.com/ayusman/edorun/internal/hold"
	"gocv.io/x/gocv"
)

var (
	limbColor     = color.RGBA{R: 216, G: 97, B: 60, A: 230}
	jointColor    = color.RGBA{R: 44, G: 107, B: 109, A: 230}
	barBackground = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	detectedColor = color.RGBA{R: 214, G: 168, B: 52, A: 255}
	white         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Style defines how the skeleton and status are drawn.
type Style struct {
	LimbColor     color.RGBA
	JointColor    color.RGBA
	LineThickness int
	JointRadius   int
	BarHeight     int
	Font          gocv.HersheyFont
	FontScale     float64
}

// DefaultStyle returns the default overlay style.
func DefaultStyle() Style {
	return Style{
		LimbColor:     limbColor,
		JointColor:    jointColor,
		LineThickness: 2,
		JointRadius:   3,
		BarHeight:     8,
		Font:          gocv.FontHersheySimplex,
		FontScale:     0.6,
	}
}

// Overlay draws landmarks and hold status onto frames.
type Overlay struct {
	style         Style
	minVisibility float64
}

// NewOverlay creates an overlay that hides landmarks below minVisibility.
func NewOverlay(style Style, minVisibility float64) *Overlay {
	return &Overlay{style: style, minVisibility: minVisibility}
}

// Skeleton draws the pose connections and joints. Landmarks below the
// visibility floor, and connections touching them, are skipped.
func (o *Overlay) Skeleton(img *gocv.Mat, m Mapper, pose detector.Pose) {
	if img == nil || img.Empty() || len(pose) == 0 {
		return
	}

	for _, c := range detector.Connections {
		from, ok := pose.At(c[0], o.minVisibility)
		if !ok {
			continue
		}
		to, ok := pose.At(c[1], o.minVisibility)
		if !ok {
			continue
		}
		gocv.Line(img, m.Pixel(from), m.Pixel(to), o.style.LimbColor, o.style.LineThickness)
	}

	for _, l := range pose {
		if !l.Visible(o.minVisibility) {
			continue
		}
		gocv.Circle(img, m.Pixel(l), o.style.JointRadius, o.style.JointColor, -1)
	}
}

// Status draws the hold status label and a progress bar along the bottom edge.
func (o *Overlay) Status(img *gocv.Mat, status hold.Status, progress float64) {
	if img == nil || img.Empty() {
		return
	}

	w, h := img.Cols(), img.Rows()
	barTop := h - o.style.BarHeight

	gocv.Rectangle(img, image.Rect(0, barTop, w, h), barBackground, -1)

	fill := int(float64(w) * max(0, min(progress, 1)))
	barColor := o.style.LimbColor
	if status == hold.StatusDetected {
		barColor = detectedColor
	}
	if fill > 0 {
		gocv.Rectangle(img, image.Rect(0, barTop, fill, h), barColor, -1)
	}

	label := StatusLabel(status, progress)
	size := gocv.GetTextSize(label, o.style.Font, o.style.FontScale, 1)
	origin := image.Pt(8, 8+size.Y)
	gocv.Rectangle(img, image.Rect(origin.X-4, origin.Y-size.Y-4, origin.X+size.X+4, origin.Y+6), barBackground, -1)
	gocv.PutText(img, label, origin, o.style.Font, o.style.FontScale, white, 1)
}

// StatusLabel returns the text shown for a hold status.
func StatusLabel(status hold.Status, progress float64) string {
	switch status {
	case hold.StatusDetected:
		return "DETECTED"
	case hold.StatusHolding:
		return fmt.Sprintf("HOLDING %d%%", int(max(0, min(progress, 1)*100)))
	default:
		return "IDLE"
	}
}

// Fit scales src to cover a width x height frame and crops the center.
// The returned Mat must be closed by the caller; ok is false for empty input.
func Fit(src gocv.Mat, width, height int) (gocv.Mat, Mapper, bool) {
	m, ok := NewMapper(image.Pt(src.Cols(), src.Rows()), image.Pt(width, height))
	if !ok || src.Empty() {
		return gocv.NewMat(), Mapper{}, false
	}

	scaled := gocv.NewMat()
	defer scaled.Close()

	size := image.Pt(int(float64(src.Cols())*m.Scale+0.5), int(float64(src.Rows())*m.Scale+0.5))
	gocv.Resize(src, &scaled, size, 0, 0, gocv.InterpolationLinear)

	crop := m.Crop().Intersect(image.Rect(0, 0, scaled.Cols(), scaled.Rows()))
	region := scaled.Region(crop)
	defer region.Close()

	return region.Clone(), m, true
}
