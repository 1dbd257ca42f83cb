package edit

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/five82/vitrine/internal/gallery"
)

// Parameter bounds.
const (
	MinLevel = 0.0
	MaxLevel = 3.0
	MinSpeed = 0.1
	MaxSpeed = 10.0
)

const epsilon = 1e-9

// Defaults returns the neutral adjustments.
func Defaults() gallery.Adjustments {
	return gallery.Adjustments{Brightness: 1, Contrast: 1, Saturation: 1}
}

// normalize treats an all-zero record as the neutral one and clamps levels.
func normalize(a gallery.Adjustments) gallery.Adjustments {
	if a.Brightness == 0 && a.Contrast == 0 && a.Saturation == 0 {
		a.Brightness, a.Contrast, a.Saturation = 1, 1, 1
	}
	a.Brightness = clampLevel(a.Brightness)
	a.Contrast = clampLevel(a.Contrast)
	a.Saturation = clampLevel(a.Saturation)
	if a.Temporal != nil {
		t := *a.Temporal
		if t.Speed == 0 {
			t.Speed = 1
		}
		t.Speed = math.Min(MaxSpeed, math.Max(MinSpeed, t.Speed))
		t.TrimStart = math.Max(0, t.TrimStart)
		t.TrimEnd = math.Max(0, t.TrimEnd)
		a.Temporal = &t
	}
	return a
}

func clampLevel(v float64) float64 {
	return math.Min(MaxLevel, math.Max(MinLevel, v))
}

func clone(a gallery.Adjustments) gallery.Adjustments {
	if a.Temporal != nil {
		t := *a.Temporal
		a.Temporal = &t
	}
	return a
}

// Equal compares adjustments structurally.
func Equal(a, b gallery.Adjustments) bool {
	if !near(a.Brightness, b.Brightness) || !near(a.Contrast, b.Contrast) || !near(a.Saturation, b.Saturation) {
		return false
	}
	if a.Temporal == nil || b.Temporal == nil {
		return a.Temporal == nil && b.Temporal == nil
	}
	return near(a.Temporal.Speed, b.Temporal.Speed) &&
		near(a.Temporal.TrimStart, b.Temporal.TrimStart) &&
		near(a.Temporal.TrimEnd, b.Temporal.TrimEnd)
}

func near(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// Filter formats a as a CSS-style filter chain for status display.
func Filter(a gallery.Adjustments) string {
	s := fmt.Sprintf("brightness(%.2f) contrast(%.2f) saturate(%.2f)", a.Brightness, a.Contrast, a.Saturation)
	if a.Temporal != nil {
		s += fmt.Sprintf(" speed(%.2fx) trim(%.2fs, %.2fs)", a.Temporal.Speed, a.Temporal.TrimStart, a.Temporal.TrimEnd)
	}
	return s
}

// Preview applies the visual adjustments to src. Neutral adjustments
// return src unchanged.
func Preview(src image.Image, a gallery.Adjustments) image.Image {
	if src == nil {
		return nil
	}
	if near(a.Brightness, 1) && near(a.Contrast, 1) && near(a.Saturation, 1) {
		return src
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			r, g, bl := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255

			r, g, bl = r*a.Brightness, g*a.Brightness, bl*a.Brightness
			r = (r-0.5)*a.Contrast + 0.5
			g = (g-0.5)*a.Contrast + 0.5
			bl = (bl-0.5)*a.Contrast + 0.5
			luma := 0.2126*r + 0.7152*g + 0.0722*bl
			r = luma + (r-luma)*a.Saturation
			g = luma + (g-luma)*a.Saturation
			bl = luma + (bl-luma)*a.Saturation

			dst.SetNRGBA(x, y, color.NRGBA{R: channel(r), G: channel(g), B: channel(bl), A: c.A})
		}
	}
	return dst
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(1, math.Max(0, v)) * 255))
}
