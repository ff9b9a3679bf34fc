package dom

import (
	"errors"
	"testing"
)

func TestQuerySelector(t *testing.T) {
	doc, err := ParseHTML(`<html><body>
		<div id="a" class="box red"></div>
		<p class="box"></p>
		<div id="b"></div>
	</body></html>`)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}

	tests := []struct {
		selector string
		want     []string
	}{
		{"#b", []string{"b"}},
		{"div", []string{"a", "b"}},
		{".box", []string{"a", ""}},
		{"div.box.red", []string{"a"}},
		{"p, #b", []string{"", "b"}},
		{"span", nil},
	}
	for _, tt := range tests {
		got, err := doc.QuerySelectorAll(tt.selector)
		if err != nil {
			t.Errorf("QuerySelectorAll(%q) failed: %v", tt.selector, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("QuerySelectorAll(%q): expected %d matches, got %d", tt.selector, len(tt.want), len(got))
			continue
		}
		for i, el := range got {
			if el.Id() != tt.want[i] {
				t.Errorf("QuerySelectorAll(%q)[%d]: expected id %q, got %q", tt.selector, i, tt.want[i], el.Id())
			}
		}
	}

	first, err := doc.QuerySelector("div")
	if err != nil || first == nil || first.Id() != "a" {
		t.Errorf("QuerySelector(div): expected #a, got %v (%v)", first, err)
	}
}

func TestQuerySelectorSyntaxError(t *testing.T) {
	doc := NewDocument()
	for _, sel := range []string{"", "div > p", "#", "a[href]", "p,"} {
		_, err := doc.QuerySelector(sel)
		var domErr *DOMError
		if !errors.As(err, &domErr) || domErr.Name != "SyntaxError" {
			t.Errorf("QuerySelector(%q): expected SyntaxError, got %v", sel, err)
		}
	}
}
