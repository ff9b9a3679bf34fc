package render

import (
	"image/color"
	"testing"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/layout"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	gray  = color.RGBA{128, 128, 128, 255}
)

func TestNewCanvas(t *testing.T) {
	canvas := NewCanvas(100, 50)

	if canvas.Width != 100 {
		t.Errorf("Width = %d, want 100", canvas.Width)
	}
	if canvas.Height != 50 {
		t.Errorf("Height = %d, want 50", canvas.Height)
	}
	if len(canvas.Pixels) != 5000 {
		t.Errorf("Pixels length = %d, want 5000", len(canvas.Pixels))
	}
	for i, px := range canvas.Pixels {
		if px != white {
			t.Errorf("Pixel %d = %v, want white", i, px)
			break
		}
	}
}

func TestSetPixel(t *testing.T) {
	canvas := NewCanvas(10, 10)

	canvas.SetPixel(5, 5, red)
	if got := canvas.GetPixel(5, 5); got != red {
		t.Errorf("SetPixel: got %v, want %v", got, red)
	}

	// Out of bounds writes are ignored
	canvas.SetPixel(-1, 5, red)
	canvas.SetPixel(100, 5, red)
	canvas.SetPixel(5, -1, red)
	canvas.SetPixel(5, 100, red)
	if got := canvas.GetPixel(-1, 5); got != (color.RGBA{}) {
		t.Errorf("GetPixel outside the canvas: got %v, want transparent", got)
	}
}

func TestFillRectClipping(t *testing.T) {
	canvas := NewCanvas(10, 10)

	canvas.FillRect(-5, -5, 20, 20, red)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if got := canvas.GetPixel(x, y); got != red {
				t.Fatalf("FillRectClipping: pixel at (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
}

func TestSetPixelBlend(t *testing.T) {
	canvas := NewCanvas(10, 10)
	canvas.SetPixel(5, 5, red)

	canvas.SetPixelBlend(5, 5, color.RGBA{0, 0, 255, 128})

	got := canvas.GetPixel(5, 5)
	if got.R < 100 || got.R > 160 {
		t.Errorf("Alpha blend R: got %d, expected ~127", got.R)
	}
	if got.B < 100 || got.B > 160 {
		t.Errorf("Alpha blend B: got %d, expected ~127", got.B)
	}
	if got.A != 255 {
		t.Errorf("Alpha blend A: got %d, expected 255", got.A)
	}
}

func TestStrokeRect(t *testing.T) {
	canvas := NewCanvas(10, 10)

	canvas.StrokeRect(1, 1, 6, 6, 1, blue)

	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{1, 1, blue},
		{6, 1, blue},
		{1, 6, blue},
		{6, 6, blue},
		{3, 1, blue},
		{3, 3, white},
		{0, 0, white},
		{7, 7, white},
	}
	for _, tt := range tests {
		if got := canvas.GetPixel(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestToImage(t *testing.T) {
	canvas := NewCanvas(10, 10)
	canvas.SetPixel(5, 5, red)

	img := canvas.ToImage()

	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Error("ToImage: wrong dimensions")
	}
	r, g, b, a := img.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("ToImage: pixel at (5,5) wrong color: %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"red", red, true},
		{"  Blue ", blue, true},
		{"#f00", red, true},
		{"#0000ff", blue, true},
		{"#0000ff80", color.RGBA{0, 0, 255, 128}, true},
		{"#f008", color.RGBA{255, 0, 0, 136}, true},
		{"transparent", color.RGBA{}, true},
		{"#12345", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
		{"rgb(1, 2, 3)", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func paintPage(t *testing.T, src string) (*dom.Document, *Canvas) {
	t.Helper()
	doc, err := dom.ParseHTML(src)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	layout.Install(doc)
	doc.SetViewportSize(100, 100)
	w, h := PageSize(doc)
	canvas := NewCanvas(w, h)
	canvas.Paint(doc, nil)
	return doc, canvas
}

func TestPaintDefaultStyle(t *testing.T) {
	_, canvas := paintPage(t, `<html><body>
		<div id="a" style="top: 10px; left: 10px; width: 20px; height: 20px; background-color: red"></div>
		<div id="b" style="top: 50px; left: 50px; width: 20px; height: 20px"></div>
	</body></html>`)

	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"a border", 10, 10, gray},
		{"a fill", 20, 20, red},
		{"b border", 50, 60, gray},
		{"b interior stays blank", 60, 60, white},
		{"outside", 5, 5, white},
	}
	for _, tt := range tests {
		if got := canvas.GetPixel(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestPaintUsesPageCoordinates(t *testing.T) {
	doc, _ := paintPage(t, `<html><body>
		<div id="far" style="top: 300px; left: 0px; width: 50px; height: 40px; background: blue"></div>
	</body></html>`)

	w, h := PageSize(doc)
	if w != 100 || h != 340 {
		t.Errorf("PageSize = %dx%d, want 100x340", w, h)
	}

	// Painting a scrolled document draws at the same page position.
	doc.ScrollTo(0, 200)
	canvas := NewCanvas(w, h)
	canvas.Paint(doc, nil)
	if got := canvas.GetPixel(25, 320); got != blue {
		t.Errorf("pixel (25,320) = %v, want blue", got)
	}
}

func TestPaintCustomStyler(t *testing.T) {
	doc, err := dom.ParseHTML(`<html><body>
		<div id="on" style="top: 0px; left: 0px; width: 10px; height: 10px"></div>
		<div id="off" style="top: 0px; left: 20px; width: 10px; height: 10px"></div>
	</body></html>`)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	layout.Install(doc)

	canvas := NewCanvas(40, 20)
	canvas.Paint(doc, func(el *dom.Element) (BoxStyle, bool) {
		if el.Id() != "on" {
			return BoxStyle{}, false
		}
		return BoxStyle{Fill: red}, true
	})

	if got := canvas.GetPixel(5, 5); got != red {
		t.Errorf("styled box pixel = %v, want red", got)
	}
	if got := canvas.GetPixel(25, 5); got != white {
		t.Errorf("skipped box pixel = %v, want white", got)
	}
}
