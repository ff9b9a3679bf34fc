// Package layout handles the box model calculations that give elements their
// viewport-relative geometry. It implements a positioned block layout: boxes
// stack vertically in normal flow, and inline top/left offsets take a box out
// of flow relative to its container.
package layout

import (
	"math"
	"strconv"
	"strings"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

// Dimensions represents the dimensions of a layout box.
type Dimensions struct {
	Content Rect
	Padding EdgeSizes
	Border  EdgeSizes
	Margin  EdgeSizes
}

// Rect represents a rectangular area.
type Rect struct {
	X, Y, Width, Height float64
}

// EdgeSizes represents the sizes of edges (top, right, bottom, left).
type EdgeSizes struct {
	Top, Right, Bottom, Left float64
}

// LayoutBox represents a box in the layout tree.
type LayoutBox struct {
	Dimensions Dimensions
	Element    *dom.Element
	Children   []*LayoutBox
}

// PaddingBox returns the area covered by content and padding.
func (d *Dimensions) PaddingBox() Rect {
	return d.Content.ExpandedBy(d.Padding)
}

// BorderBox returns the area covered by content, padding, and border.
func (d *Dimensions) BorderBox() Rect {
	return d.PaddingBox().ExpandedBy(d.Border)
}

// MarginBox returns the area covered by content, padding, border, and margin.
func (d *Dimensions) MarginBox() Rect {
	return d.BorderBox().ExpandedBy(d.Margin)
}

// ExpandedBy returns a rectangle expanded by the given edge sizes.
func (r Rect) ExpandedBy(edge EdgeSizes) Rect {
	return Rect{
		X:      r.X - edge.Left,
		Y:      r.Y - edge.Top,
		Width:  r.Width + edge.Left + edge.Right,
		Height: r.Height + edge.Top + edge.Bottom,
	}
}

// Install registers Compute as the layout engine of doc.
func Install(doc *dom.Document) {
	doc.SetLayoutEngine(func(d *dom.Document) {
		Compute(d)
	})
}

// Compute lays out the document against its viewport and writes the resulting
// geometry to every element. The returned box is the layout of the document
// element, or nil for an empty document.
func Compute(doc *dom.Document) *LayoutBox {
	root := doc.DocumentElement()
	if root == nil {
		return nil
	}
	viewport := Rect{Width: doc.ViewportWidth(), Height: doc.ViewportHeight()}
	initial := Rect{
		X:      -doc.ScrollX(),
		Y:      -doc.ScrollY(),
		Width:  viewport.Width,
		Height: viewport.Height,
	}
	c := &context{viewport: viewport}
	box, _ := c.layoutElement(root, initial, initial.Y)
	return box
}

type context struct {
	viewport Rect
}

// layoutElement lays out el inside container with the flow cursor at cursorY.
// It returns the box and the vertical space the box consumes in normal flow.
func (c *context) layoutElement(el *dom.Element, container Rect, cursorY float64) (*LayoutBox, float64) {
	style := el.Style()
	if strings.EqualFold(style["display"], "none") {
		clearGeometry(el)
		return nil, 0
	}

	position := strings.ToLower(style["position"])
	if position == "fixed" {
		container = c.viewport
	}

	box := &LayoutBox{Element: el}
	d := &box.Dimensions
	d.Margin = edges(style, "margin", "", container.Width)
	d.Padding = edges(style, "padding", "", container.Width)
	d.Border = edges(style, "border", "-width", container.Width)

	horizontal := d.Margin.Left + d.Margin.Right + d.Padding.Left + d.Padding.Right + d.Border.Left + d.Border.Right
	if w, ok := parseLength(style["width"], container.Width); ok {
		d.Content.Width = w
	} else {
		d.Content.Width = math.Max(0, container.Width-horizontal)
	}

	left, hasLeft := parseLength(style["left"], container.Width)
	top, hasTop := parseLength(style["top"], container.Height)
	outOfFlow := hasTop || position == "absolute" || position == "fixed"

	x := container.X
	if hasLeft {
		x += left
	}
	y := cursorY
	if outOfFlow {
		y = container.Y
		if hasTop {
			y += top
		}
	}
	d.Content.X = x + d.Margin.Left + d.Border.Left + d.Padding.Left
	d.Content.Y = y + d.Margin.Top + d.Border.Top + d.Padding.Top

	// Children are positioned against the content box shifted by the
	// element's own scroll offsets.
	inner := Rect{
		X:      d.Content.X - el.ScrollLeft(),
		Y:      d.Content.Y - el.ScrollTop(),
		Width:  d.Content.Width,
		Height: 0,
	}
	explicitHeight, hasHeight := parseLength(style["height"], container.Height)
	if hasHeight {
		inner.Height = explicitHeight
	}

	flowCursor := inner.Y
	maxBottom := inner.Y
	maxRight := inner.X
	for _, child := range el.Children() {
		childBox, consumed := c.layoutElement(child, inner, flowCursor)
		if childBox == nil {
			continue
		}
		box.Children = append(box.Children, childBox)
		flowCursor += consumed
		mb := childBox.Dimensions.MarginBox()
		maxBottom = math.Max(maxBottom, mb.Y+mb.Height)
		maxRight = math.Max(maxRight, mb.X+mb.Width)
	}

	if hasHeight {
		d.Content.Height = explicitHeight
	} else {
		d.Content.Height = flowCursor - inner.Y
	}

	writeGeometry(el, d, maxRight-inner.X, maxBottom-inner.Y)

	if outOfFlow {
		return box, 0
	}
	mb := d.MarginBox()
	return box, mb.Height
}

func writeGeometry(el *dom.Element, d *Dimensions, childrenWidth, childrenHeight float64) {
	border := d.BorderBox()
	padding := d.PaddingBox()
	el.SetGeometry(&dom.ElementGeometry{
		X:             border.X,
		Y:             border.Y,
		Width:         border.Width,
		Height:        border.Height,
		ContentWidth:  d.Content.Width,
		ContentHeight: d.Content.Height,
		PaddingTop:    d.Padding.Top,
		PaddingRight:  d.Padding.Right,
		PaddingBottom: d.Padding.Bottom,
		PaddingLeft:   d.Padding.Left,
		BorderTop:     d.Border.Top,
		BorderRight:   d.Border.Right,
		BorderBottom:  d.Border.Bottom,
		BorderLeft:    d.Border.Left,
		MarginTop:     d.Margin.Top,
		MarginRight:   d.Margin.Right,
		MarginBottom:  d.Margin.Bottom,
		MarginLeft:    d.Margin.Left,
		ClientWidth:   padding.Width,
		ClientHeight:  padding.Height,
		ScrollWidth:   math.Max(padding.Width, childrenWidth+d.Padding.Left+d.Padding.Right),
		ScrollHeight:  math.Max(padding.Height, childrenHeight+d.Padding.Top+d.Padding.Bottom),
	})
}

// clearGeometry gives a display:none subtree zero-sized geometry.
func clearGeometry(el *dom.Element) {
	el.SetGeometry(&dom.ElementGeometry{})
	for _, child := range el.Children() {
		clearGeometry(child)
	}
}

// edges reads a box edge property, honoring the shorthand (1 to 4 values)
// and the per-side longhands, which win over the shorthand.
func edges(style map[string]string, prefix, suffix string, reference float64) EdgeSizes {
	var e EdgeSizes
	if shorthand, ok := style[prefix+suffix]; ok {
		values := strings.Fields(shorthand)
		parsed := make([]float64, len(values))
		for i, v := range values {
			parsed[i], _ = parseLength(v, reference)
		}
		switch len(parsed) {
		case 1:
			e = EdgeSizes{parsed[0], parsed[0], parsed[0], parsed[0]}
		case 2:
			e = EdgeSizes{parsed[0], parsed[1], parsed[0], parsed[1]}
		case 3:
			e = EdgeSizes{parsed[0], parsed[1], parsed[2], parsed[1]}
		case 4:
			e = EdgeSizes{parsed[0], parsed[1], parsed[2], parsed[3]}
		}
	}
	if v, ok := parseLength(style[prefix+"-top"+suffix], reference); ok {
		e.Top = v
	}
	if v, ok := parseLength(style[prefix+"-right"+suffix], reference); ok {
		e.Right = v
	}
	if v, ok := parseLength(style[prefix+"-bottom"+suffix], reference); ok {
		e.Bottom = v
	}
	if v, ok := parseLength(style[prefix+"-left"+suffix], reference); ok {
		e.Left = v
	}
	return e
}

// parseLength parses a px, unitless or percentage length. Percentages resolve
// against reference. "auto", empty and unparseable values report false.
func parseLength(value string, reference float64) (float64, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "auto" {
		return 0, false
	}
	if strings.HasSuffix(value, "%") {
		n, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return 0, false
		}
		return reference * n / 100, true
	}
	n, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
