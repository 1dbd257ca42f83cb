package nav

import "math"

const (
	MinScale = 1.0
	MaxScale = 30.0
	// wheelStep is the scale factor of one wheel notch.
	wheelStep = 1.1
)

// Transform is the pan/zoom state of one view.
type Transform struct {
	Scale  float64
	TX, TY float64
}

// Identity is the untransformed view.
func Identity() Transform {
	return Transform{Scale: MinScale}
}

// IsIdentity reports whether t has no zoom or pan.
func (t Transform) IsIdentity() bool {
	return t.Scale <= MinScale && t.TX == 0 && t.TY == 0
}

// ZoomAt scales by factor keeping the point (px, py) fixed on screen.
// A resulting scale of 1 or less snaps back to the identity.
func (t Transform) ZoomAt(px, py, factor float64) Transform {
	if t.Scale < MinScale {
		t = Identity()
	}
	next := math.Min(MaxScale, math.Max(MinScale, t.Scale*factor))
	if next <= MinScale {
		return Identity()
	}
	ratio := next / t.Scale
	return Transform{
		Scale: next,
		TX:    px - (px-t.TX)*ratio,
		TY:    py - (py-t.TY)*ratio,
	}
}

// Wheel zooms by notches wheel steps around (px, py). Positive notches zoom in.
func (t Transform) Wheel(px, py float64, notches int) Transform {
	return t.ZoomAt(px, py, math.Pow(wheelStep, float64(notches)))
}

// Pan moves the view. Dragging is only allowed while zoomed in.
func (t Transform) Pan(dx, dy float64) (Transform, bool) {
	if t.Scale <= MinScale {
		return t, false
	}
	t.TX += dx
	t.TY += dy
	return t, true
}
