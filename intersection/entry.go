package intersection

import (
	"github.com/chrisuehlinger/vibeobserver/dom"
)

// Entry is an immutable snapshot of one target's intersection with the root.
type Entry struct {
	time               float64
	rootBounds         Rect
	boundingClientRect Rect
	intersectionRect   Rect
	intersectionRatio  float64
	target             *dom.Element

	// measured is false for the placeholder stored at observe time, which
	// has no ratio to compare against.
	measured bool
}

func placeholderEntry(target *dom.Element) *Entry {
	return &Entry{target: target}
}

// Time is the clock reading, in milliseconds, when the entry was recorded.
func (e *Entry) Time() float64 { return e.time }

// RootBounds is the root rectangle the target was measured against.
func (e *Entry) RootBounds() Rect { return e.rootBounds }

// BoundingClientRect is the target's bounding rectangle.
func (e *Entry) BoundingClientRect() Rect { return e.boundingClientRect }

// IntersectionRect is the overlap of target and root.
func (e *Entry) IntersectionRect() Rect { return e.intersectionRect }

// IntersectionRatio is the intersection area over the target area.
func (e *Entry) IntersectionRatio() float64 { return e.intersectionRatio }

// Target is the observed element.
func (e *Entry) Target() *dom.Element { return e.target }

// IsIntersecting reports a positive intersection ratio.
func (e *Entry) IsIntersecting() bool { return e.intersectionRatio > 0 }
