package intersection

import (
	"math"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

// Rect is an edge-based rectangle. Width and Height are never negative: when
// the edges cross they are clamped to zero.
type Rect struct {
	Top    float64
	Left   float64
	Right  float64
	Bottom float64
	Width  float64
	Height float64
}

// NewRect builds a Rect from its edges.
func NewRect(top, left, right, bottom float64) Rect {
	return Rect{
		Top:    top,
		Left:   left,
		Right:  right,
		Bottom: bottom,
		Width:  math.Max(0, right-left),
		Height: math.Max(0, bottom-top),
	}
}

// RectFromDOM converts a bounding client rect.
func RectFromDOM(r *dom.DOMRect) Rect {
	if r == nil {
		return Rect{}
	}
	return NewRect(r.Top(), r.Left(), r.Right(), r.Bottom())
}

// Area returns Width * Height.
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// Intersect returns the overlap of root and target. Rectangles that do not
// overlap yield a degenerate rectangle with zero width and/or height.
func Intersect(root, target Rect) Rect {
	return NewRect(
		math.Max(root.Top, target.Top),
		math.Max(root.Left, target.Left),
		math.Min(root.Right, target.Right),
		math.Min(root.Bottom, target.Bottom),
	)
}

// Ratio returns the intersection area divided by the target area. A zero-area
// target yields NaN (or +Inf), which is reported as-is.
func Ratio(intersection, target Rect) float64 {
	return intersection.Area() / target.Area()
}
