// Package physics provides axis-aligned bounds and overlap utilities.
package physics

// Bounds is an axis-aligned rectangle in world units.
// Y grows downward, so Top < Bottom for any non-empty rectangle.
type Bounds struct {
	Left, Right float64
	Top, Bottom float64
	CenterX     float64
	CenterY     float64
}

// NewBounds builds bounds from a top-left corner and a size.
func NewBounds(x, y, width, height float64) Bounds {
	return Bounds{
		Left:    x,
		Right:   x + width,
		Top:     y,
		Bottom:  y + height,
		CenterX: x + width/2,
		CenterY: y + height/2,
	}
}

// Width returns the horizontal extent.
func (b Bounds) Width() float64 {
	return b.Right - b.Left
}

// Height returns the vertical extent.
func (b Bounds) Height() float64 {
	return b.Bottom - b.Top
}

// Overlaps reports whether two rectangles intersect.
// Touching edges count as an overlap.
func (b Bounds) Overlaps(o Bounds) bool {
	return !(b.Right < o.Left || b.Left > o.Right || b.Bottom < o.Top || b.Top > o.Bottom)
}

// WithinScreen reports whether the rectangle overlaps the [0,w]x[0,h] screen area.
func (b Bounds) WithinScreen(w, h float64) bool {
	return b.Overlaps(Bounds{Left: 0, Right: w, Top: 0, Bottom: h})
}

// Clamp limits v to [lo, hi]. When hi < lo the result is lo.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
