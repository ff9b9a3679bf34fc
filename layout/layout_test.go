package layout

import (
	"testing"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseHTML(src)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	Install(doc)
	return doc
}

func assertRect(t *testing.T, doc *dom.Document, id string, x, y, w, h float64) {
	t.Helper()
	el := doc.GetElementById(id)
	if el == nil {
		t.Fatalf("element #%s not found", id)
	}
	r := el.GetBoundingClientRect()
	if r.X != x || r.Y != y || r.Width != w || r.Height != h {
		t.Errorf("#%s: expected (%v, %v, %v, %v), got (%v, %v, %v, %v)",
			id, x, y, w, h, r.X, r.Y, r.Width, r.Height)
	}
}

func TestNormalFlowStacking(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="a" style="height: 100px"></div>
		<div id="b" style="height: 50px; margin-top: 10px"></div>
		<div id="c" style="top: 300px; left: 20px; width: 40px; height: 40px"></div>
		<div id="d" style="height: 5px"></div>
	</body></html>`)

	assertRect(t, doc, "a", 0, 0, 1024, 100)
	assertRect(t, doc, "b", 0, 110, 1024, 50)
	assertRect(t, doc, "c", 20, 300, 40, 40)
	// c is out of flow, so d follows b directly.
	assertRect(t, doc, "d", 0, 160, 1024, 5)
}

func TestBoxModelEdges(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="box" style="padding: 5px; border-width: 2px; width: 100px; height: 20px; margin: 3px 4px"></div>
	</body></html>`)

	assertRect(t, doc, "box", 4, 3, 114, 34)
	geom := doc.GetElementById("box").Geometry()
	if geom.ClientWidth != 110 || geom.ClientHeight != 30 {
		t.Errorf("Expected client size 110x30, got %vx%v", geom.ClientWidth, geom.ClientHeight)
	}
}

func TestPercentagesResolveAgainstContainer(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="outer" style="width: 200px; height: 100px">
			<div id="inner" style="width: 50%; height: 25%"></div>
		</div>
	</body></html>`)

	assertRect(t, doc, "inner", 0, 0, 100, 25)
}

func TestDocumentScrollShiftsBoxes(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="a" style="height: 100px"></div>
		<div id="fixed" style="position: fixed; top: 10px; width: 10px; height: 10px"></div>
	</body></html>`)

	doc.ScrollTo(0, 40)
	assertRect(t, doc, "a", 0, -40, 1024, 100)
	assertRect(t, doc, "fixed", 0, 10, 10, 10)
}

func TestElementScrollShiftsDescendants(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="scroller" style="top: 100px; height: 100px">
			<div id="content" style="height: 300px"></div>
		</div>
	</body></html>`)

	assertRect(t, doc, "content", 0, 100, 1024, 300)
	doc.GetElementById("scroller").SetScrollTop(50)
	assertRect(t, doc, "content", 0, 50, 1024, 300)
	assertRect(t, doc, "scroller", 0, 100, 1024, 100)

	geom := doc.GetElementById("scroller").Geometry()
	if geom.ScrollHeight != 300 {
		t.Errorf("Expected scrollHeight 300, got %v", geom.ScrollHeight)
	}
}

func TestDisplayNoneHasZeroGeometry(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="hidden" style="display: none; height: 50px"><div id="child" style="height: 10px"></div></div>
		<div id="after" style="height: 10px"></div>
	</body></html>`)

	assertRect(t, doc, "hidden", 0, 0, 0, 0)
	assertRect(t, doc, "child", 0, 0, 0, 0)
	assertRect(t, doc, "after", 0, 0, 1024, 10)
}

func TestAutoHeightFromChildren(t *testing.T) {
	doc := parse(t, `<html><body>
		<div id="wrap"><div style="height: 30px"></div><div style="height: 20px"></div></div>
	</body></html>`)

	assertRect(t, doc, "wrap", 0, 0, 1024, 50)
}

func TestViewportResize(t *testing.T) {
	doc := parse(t, `<html><body><div id="a" style="height: 10px"></div></body></html>`)
	doc.SetViewportSize(300, 200)
	assertRect(t, doc, "a", 0, 0, 300, 10)
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		in   string
		ref  float64
		want float64
		ok   bool
	}{
		{"10px", 0, 10, true},
		{" 12 ", 0, 12, true},
		{"50%", 300, 150, true},
		{"auto", 100, 0, false},
		{"", 100, 0, false},
		{"1em", 100, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLength(tt.in, tt.ref)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseLength(%q, %v) = %v, %v; want %v, %v", tt.in, tt.ref, got, ok, tt.want, tt.ok)
		}
	}
}
