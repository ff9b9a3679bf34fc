// Package render paints element boxes of a laid out document onto a pixel
// canvas.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

// Canvas represents the rendering surface.
type Canvas struct {
	Pixels []color.RGBA
	Width  int
	Height int
}

// NewCanvas creates a new canvas with the given dimensions.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		Pixels: make([]color.RGBA, width*height),
		Width:  width,
		Height: height,
	}
	c.Clear(color.RGBA{255, 255, 255, 255})
	return c
}

// BoxStyle describes how one element box is painted. A zero alpha skips the
// fill or the border.
type BoxStyle struct {
	Fill        color.RGBA
	Border      color.RGBA
	BorderWidth int
}

// Styler picks the style for an element; returning false skips the element.
type Styler func(el *dom.Element) (BoxStyle, bool)

// unpainted elements carry no box of their own.
var unpainted = map[string]bool{
	"html":   true,
	"head":   true,
	"body":   true,
	"script": true,
	"style":  true,
	"title":  true,
	"meta":   true,
	"link":   true,
}

// DefaultStyle fills a box with its inline background-color and outlines it
// in gray.
func DefaultStyle(el *dom.Element) (BoxStyle, bool) {
	if unpainted[el.LocalName()] {
		return BoxStyle{}, false
	}
	style := BoxStyle{
		Border:      color.RGBA{128, 128, 128, 255},
		BorderWidth: 1,
	}
	if fill, ok := ParseColor(el.StyleProperty("background-color")); ok {
		style.Fill = fill
	} else if fill, ok := ParseColor(el.StyleProperty("background")); ok {
		style.Fill = fill
	}
	return style, true
}

// pageRect returns el's border box in page coordinates: its client rect with
// the document scroll added back.
func pageRect(doc *dom.Document, el *dom.Element) (x, y, w, h int) {
	r := el.GetBoundingClientRect()
	return int(math.Round(r.X + doc.ScrollX())),
		int(math.Round(r.Y + doc.ScrollY())),
		int(math.Round(r.Width)),
		int(math.Round(r.Height))
}

// PageSize returns the size of the page: the viewport grown to contain every
// element box.
func PageSize(doc *dom.Document) (width, height int) {
	width = int(math.Ceil(doc.ViewportWidth()))
	height = int(math.Ceil(doc.ViewportHeight()))
	for _, el := range doc.GetElementsByTagName("*") {
		x, y, w, h := pageRect(doc, el)
		if x+w > width {
			width = x + w
		}
		if y+h > height {
			height = y + h
		}
	}
	return width, height
}

// Paint paints the boxes of doc's elements in tree order, so descendants
// paint over their ancestors.
func (c *Canvas) Paint(doc *dom.Document, style Styler) {
	if style == nil {
		style = DefaultStyle
	}
	for _, el := range doc.GetElementsByTagName("*") {
		s, ok := style(el)
		if !ok {
			continue
		}
		x, y, w, h := pageRect(doc, el)
		if w <= 0 || h <= 0 {
			continue
		}
		if s.Fill.A > 0 {
			c.FillRect(x, y, w, h, s.Fill)
		}
		if s.Border.A > 0 && s.BorderWidth > 0 {
			c.StrokeRect(x, y, w, h, s.BorderWidth, s.Border)
		}
	}
}

// SetPixel sets a single pixel on the canvas.
func (c *Canvas) SetPixel(x, y int, col color.RGBA) {
	if x >= 0 && x < c.Width && y >= 0 && y < c.Height {
		c.Pixels[y*c.Width+x] = col
	}
}

// SetPixelBlend sets a pixel with alpha compositing.
func (c *Canvas) SetPixelBlend(x, y int, col color.RGBA) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return
	}

	idx := y*c.Width + x
	dst := c.Pixels[idx]

	// Porter-Duff source over
	srcA := float64(col.A) / 255.0
	dstA := float64(dst.A) / 255.0
	outA := srcA + dstA*(1-srcA)

	if outA == 0 {
		c.Pixels[idx] = color.RGBA{0, 0, 0, 0}
		return
	}

	outR := (float64(col.R)*srcA + float64(dst.R)*dstA*(1-srcA)) / outA
	outG := (float64(col.G)*srcA + float64(dst.G)*dstA*(1-srcA)) / outA
	outB := (float64(col.B)*srcA + float64(dst.B)*dstA*(1-srcA)) / outA

	c.Pixels[idx] = color.RGBA{
		R: uint8(math.Round(outR)),
		G: uint8(math.Round(outG)),
		B: uint8(math.Round(outB)),
		A: uint8(math.Round(outA * 255)),
	}
}

// FillRect fills a rectangle with the given color, clipped to the canvas.
func (c *Canvas) FillRect(x, y, width, height int, col color.RGBA) {
	x1 := max(x, 0)
	y1 := max(y, 0)
	x2 := min(x+width, c.Width)
	y2 := min(y+height, c.Height)

	if col.A < 255 {
		for py := y1; py < y2; py++ {
			for px := x1; px < x2; px++ {
				c.SetPixelBlend(px, py, col)
			}
		}
		return
	}
	for py := y1; py < y2; py++ {
		for px := x1; px < x2; px++ {
			c.Pixels[py*c.Width+px] = col
		}
	}
}

// StrokeRect draws a border of the given width inside the rectangle.
func (c *Canvas) StrokeRect(x, y, width, height, lineWidth int, col color.RGBA) {
	lineWidth = min(lineWidth, width/2+width%2, height/2+height%2)
	if lineWidth <= 0 {
		return
	}
	c.FillRect(x, y, width, lineWidth, col)
	c.FillRect(x, y+height-lineWidth, width, lineWidth, col)
	c.FillRect(x, y+lineWidth, lineWidth, height-2*lineWidth, col)
	c.FillRect(x+width-lineWidth, y+lineWidth, lineWidth, height-2*lineWidth, col)
}

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col color.RGBA) {
	for i := range c.Pixels {
		c.Pixels[i] = col
	}
}

// GetPixel returns the color at (x, y), or transparent outside the canvas.
func (c *Canvas) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return color.RGBA{}
	}
	return c.Pixels[y*c.Width+x]
}

// ToImage converts the canvas to a Go image.
func (c *Canvas) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			img.SetRGBA(x, y, c.Pixels[y*c.Width+x])
		}
	}
	return img
}
