package dom

import (
	"errors"
	"testing"
)

func TestParseHTML(t *testing.T) {
	doc, err := ParseHTML(`<!DOCTYPE html>
<html>
<head><title>t</title></head>
<body><div id="outer"><p id="inner">hello</p></div></body>
</html>`)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}

	if doc.DocumentElement() == nil || doc.DocumentElement().LocalName() != "html" {
		t.Fatal("Expected html document element")
	}
	body := doc.Body()
	if body == nil {
		t.Fatal("Expected body element")
	}

	inner := doc.GetElementById("inner")
	if inner == nil {
		t.Fatal("Expected to find #inner")
	}
	if inner.TagName() != "P" {
		t.Errorf("Expected tagName P, got %s", inner.TagName())
	}
	if inner.AsNode().TextContent() != "hello" {
		t.Errorf("Expected text 'hello', got %q", inner.AsNode().TextContent())
	}
	outer := doc.GetElementById("outer")
	if inner.ParentElement() != outer {
		t.Error("Expected #inner parent to be #outer")
	}
	if !body.AsNode().Contains(inner.AsNode()) {
		t.Error("Expected body to contain #inner")
	}
	if !inner.AsNode().IsConnected() {
		t.Error("Expected parsed element to be connected")
	}
	if got := len(doc.GetElementsByTagName("div")); got != 1 {
		t.Errorf("Expected 1 div, got %d", got)
	}
	if doc.GetElementById("") != nil {
		t.Error("Expected empty id lookup to return nil")
	}
}

func TestAppendAndRemoveChild(t *testing.T) {
	doc := NewDocument()
	root := doc.CreateElement("html")
	doc.AsNode().AppendChild(root.AsNode())

	child := doc.CreateElement("div")
	if _, err := root.AsNode().AppendChildWithError(child.AsNode()); err != nil {
		t.Fatalf("AppendChild failed: %v", err)
	}
	if child.AsNode().ParentNode() != root.AsNode() {
		t.Error("Expected child parent to be root")
	}

	_, err := child.AsNode().AppendChildWithError(root.AsNode())
	var domErr *DOMError
	if !errors.As(err, &domErr) || domErr.Name != "HierarchyRequestError" {
		t.Errorf("Expected HierarchyRequestError, got %v", err)
	}

	second := doc.CreateElement("html")
	if _, err := doc.AsNode().AppendChildWithError(second.AsNode()); err == nil {
		t.Error("Expected error when inserting a second document element")
	}

	if _, err := root.AsNode().RemoveChildWithError(child.AsNode()); err != nil {
		t.Fatalf("RemoveChild failed: %v", err)
	}
	if child.AsNode().IsConnected() {
		t.Error("Expected removed child to be disconnected")
	}
	_, err = root.AsNode().RemoveChildWithError(child.AsNode())
	if !errors.As(err, &domErr) || domErr.Name != "NotFoundError" {
		t.Errorf("Expected NotFoundError, got %v", err)
	}
}

func TestInlineStyle(t *testing.T) {
	doc := NewDocument()
	el := doc.CreateElement("div")
	el.SetAttribute("style", "Top: 10px; left:5px !important; ; bogus")

	style := el.Style()
	if style["top"] != "10px" {
		t.Errorf("Expected top=10px, got %q", style["top"])
	}
	if style["left"] != "5px" {
		t.Errorf("Expected left=5px, got %q", style["left"])
	}
	if len(style) != 2 {
		t.Errorf("Expected 2 declarations, got %d", len(style))
	}

	el.SetStyleProperty("height", "20px")
	el.SetStyleProperty("left", "")
	if got := el.GetAttribute("style"); got != "height: 20px; top: 10px;" {
		t.Errorf("Unexpected serialized style %q", got)
	}
}

func TestCreateElementInvalidName(t *testing.T) {
	doc := NewDocument()
	if _, err := doc.CreateElementWithError("a b"); err == nil {
		t.Error("Expected InvalidCharacterError for name with space")
	}
}
