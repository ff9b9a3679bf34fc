package js

import (
	"testing"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

const boxesHTML = `<!DOCTYPE html>
<html>
<head></head>
<body>
<div id="a" class="box red" style="top: 10px; left: 20px; width: 30px; height: 40px"></div>
<div id="b" class="box"></div>
<p id="c">Hello</p>
</body>
</html>`

// newPage parses markup and binds it to a fresh runtime on a virtual clock.
func newPage(t *testing.T, markup string) (*Runtime, *ScriptExecutor, *dom.Document) {
	t.Helper()
	doc, err := dom.ParseHTML(markup)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	r, _ := newVirtualRuntime()
	se := NewScriptExecutor(r)
	se.SetupDocument(doc)
	return r, se, doc
}

func TestDOMBinderDocument(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	tests := []struct {
		code     string
		expected string
	}{
		{"String(document.nodeType)", "9"},
		{"document.documentElement.localName", "html"},
		{"document.body.tagName", "BODY"},
		{"document.getElementById('c').textContent", "Hello"},
		{"String(document.getElementById('missing'))", "null"},
		{"String(document.getElementsByTagName('div').length)", "2"},
		{"String(document.getElementById('a') === document.getElementById('a'))", "true"},
		{"String(document.getElementById('a').ownerDocument === document)", "true"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

func TestDOMBinderQuerySelector(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	tests := []struct {
		code     string
		expected string
	}{
		{"document.querySelector('#b').id", "b"},
		{"document.querySelector('.red').id", "a"},
		{"String(document.querySelectorAll('div.box').length)", "2"},
		{"String(document.querySelector('span'))", "null"},
		{`(function() {
			try { document.querySelector('div > p'); return 'no error'; }
			catch (e) { return (e instanceof DOMException) + ':' + e.name + ':' + e.code; }
		})()`, "true:SyntaxError:12"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

func TestDOMBinderInstanceof(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	tests := []struct {
		code     string
		expected string
	}{
		{"String(document.body instanceof Element)", "true"},
		{"String(document.body instanceof HTMLElement)", "true"},
		{"String(document.body instanceof Node)", "true"},
		{"String(document instanceof Document)", "true"},
		{"String(document.createTextNode('x') instanceof Text)", "true"},
		{"String(document.body.getBoundingClientRect() instanceof DOMRectReadOnly)", "true"},
		{"String(Node.ELEMENT_NODE)", "1"},
		{`(function() { try { new Element(); return 'constructed'; } catch (e) { return e.name; } })()`, "TypeError"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

func TestDOMBinderAttributes(t *testing.T) {
	r, _, doc := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var b = document.getElementById('b');
		b.setAttribute('data-x', '7');
		b.className = 'box blue';
		b.id = 'renamed';
	`)

	el := doc.GetElementById("renamed")
	if el == nil {
		t.Fatal("Expected id reflection to rename the element")
	}
	if got := el.GetAttribute("data-x"); got != "7" {
		t.Errorf("Expected data-x=7, got %q", got)
	}
	if got := el.GetAttribute("class"); got != "box blue" {
		t.Errorf("Expected class 'box blue', got %q", got)
	}
	if got := evalString(t, r, "String(b.getAttribute('missing'))"); got != "null" {
		t.Errorf("Expected null for a missing attribute, got %s", got)
	}
	mustExecute(t, r, "b.removeAttribute('data-x')")
	if el.HasAttribute("data-x") {
		t.Error("removeAttribute should remove data-x")
	}
}

func TestDOMBinderCreateAndAppend(t *testing.T) {
	r, _, doc := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var div = document.createElement('DIV');
		div.id = 'added';
		div.appendChild(document.createTextNode('new'));
		document.body.appendChild(div);
	`)

	added := doc.GetElementById("added")
	if added == nil {
		t.Fatal("Expected appended element to be in the document")
	}
	if added.ParentElement() != doc.Body() {
		t.Error("Expected appended element to be a child of body")
	}

	tests := []struct {
		code     string
		expected string
	}{
		{"div.localName", "div"},
		{"div.textContent", "new"},
		{"String(div.parentNode === document.body)", "true"},
		{"String(div.isConnected)", "true"},
		{"String(document.body.contains(div))", "true"},
		{`(function() {
			try { div.appendChild(document.body); return 'no error'; }
			catch (e) { return e.name; }
		})()`, "HierarchyRequestError"},
		{`(function() {
			try { document.createElement('bad name'); return 'no error'; }
			catch (e) { return e.name; }
		})()`, "InvalidCharacterError"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}

	mustExecute(t, r, "document.body.removeChild(div)")
	if doc.GetElementById("added") != nil {
		t.Error("removeChild should detach the element")
	}
	if got := evalString(t, r, "String(div.isConnected)"); got != "false" {
		t.Errorf("Expected detached element, got isConnected=%s", got)
	}
}

func TestDOMBinderBoundingClientRect(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	got := evalString(t, r, `(function() {
		var rect = document.getElementById('a').getBoundingClientRect();
		return [rect.x, rect.y, rect.width, rect.height, rect.top, rect.right, rect.bottom, rect.left].join(',');
	})()`)
	if got != "20,10,30,40,10,50,50,20" {
		t.Errorf("Unexpected rect %s", got)
	}
}

func TestDOMBinderStyle(t *testing.T) {
	r, _, doc := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var a = document.getElementById('a');
		a.style.top = '100px';
		a.style.marginTop = '5px';
		a.style.setProperty('left', '0px');
	`)

	el := doc.GetElementById("a")
	if got := el.StyleProperty("margin-top"); got != "5px" {
		t.Errorf("Expected margin-top 5px, got %q", got)
	}
	if got := evalString(t, r, "a.style.getPropertyValue('top')"); got != "100px" {
		t.Errorf("Expected top 100px, got %q", got)
	}
	if got := evalString(t, r, "String(a.getBoundingClientRect().top)"); got != "105" {
		t.Errorf("Expected layout to follow the new style, got top=%s", got)
	}
	if got := evalString(t, r, "String(a.getBoundingClientRect().left)"); got != "0" {
		t.Errorf("Expected left 0, got %s", got)
	}
}

func TestDOMBinderElementScroll(t *testing.T) {
	r, _, _ := newPage(t, `<!DOCTYPE html>
<html><body>
<div id="scroller" style="top: 0px; left: 0px; width: 100px; height: 50px">
  <div id="item" style="top: 100px; left: 0px; width: 10px; height: 10px"></div>
</div>
</body></html>`)

	mustExecute(t, r, `
		var scroller = document.getElementById('scroller');
		scroller.scrollTop = 30;
	`)

	if got := evalString(t, r, "String(scroller.scrollTop)"); got != "30" {
		t.Errorf("Expected scrollTop 30, got %s", got)
	}
	if got := evalString(t, r, "String(document.getElementById('item').getBoundingClientRect().top)"); got != "70" {
		t.Errorf("Expected item shifted to 70, got %s", got)
	}
	if got := evalString(t, r, "String(scroller.scrollHeight)"); got != "110" {
		t.Errorf("Expected scrollHeight 110, got %s", got)
	}
}
