package intersection

import (
	"math"
	"testing"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

func TestIntersectOverlapping(t *testing.T) {
	root := NewRect(0, 0, 100, 100)
	target := NewRect(50, 50, 150, 150)

	got := Intersect(root, target)
	want := Rect{Top: 50, Left: 50, Right: 100, Bottom: 100, Width: 50, Height: 50}
	if got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}
	if ratio := Ratio(got, target); ratio != 0.25 {
		t.Errorf("Expected ratio 0.25, got %v", ratio)
	}
}

func TestIntersectDisjointIsDegenerate(t *testing.T) {
	root := NewRect(0, 0, 100, 100)
	target := NewRect(200, 300, 350, 250)

	got := Intersect(root, target)
	if got.Width != 0 || got.Height != 0 {
		t.Errorf("Expected zero-sized intersection, got %+v", got)
	}
	if got.Width < 0 || got.Height < 0 {
		t.Errorf("Width and height must never be negative, got %+v", got)
	}
	if got.Top != 200 || got.Left != 300 {
		t.Errorf("Expected degenerate rect to keep its edges, got %+v", got)
	}
}

func TestZeroAreaTargetRatioIsNaN(t *testing.T) {
	target := NewRect(10, 10, 10, 50)
	inter := Intersect(NewRect(0, 0, 100, 100), target)
	if r := Ratio(inter, target); !math.IsNaN(r) {
		t.Errorf("Expected NaN ratio for zero-area target, got %v", r)
	}
}

func TestRectFromDOM(t *testing.T) {
	got := RectFromDOM(dom.NewDOMRect(10, 20, 30, 40))
	want := Rect{Top: 20, Left: 10, Right: 40, Bottom: 60, Width: 30, Height: 40}
	if got != want {
		t.Errorf("RectFromDOM = %+v, want %+v", got, want)
	}
	if (RectFromDOM(nil) != Rect{}) {
		t.Error("Expected zero Rect for nil DOMRect")
	}
}
