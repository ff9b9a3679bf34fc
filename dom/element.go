package dom

import (
	"sort"
	"strings"
)

// Element represents an element in the DOM tree.
type Element Node

// AsNode returns the underlying Node.
func (e *Element) AsNode() *Node {
	return (*Node)(e)
}

// TagName returns the tag name in uppercase.
func (e *Element) TagName() string {
	return e.AsNode().elementData.tagName
}

// LocalName returns the local name of the element (lowercase for HTML).
func (e *Element) LocalName() string {
	return e.AsNode().elementData.localName
}

// Id returns the id attribute value.
func (e *Element) Id() string {
	return e.GetAttribute("id")
}

// SetId sets the id attribute value.
func (e *Element) SetId(id string) {
	e.SetAttribute("id", id)
}

// ParentElement returns the parent Element, or nil.
func (e *Element) ParentElement() *Element {
	return e.AsNode().ParentElement()
}

// Children returns the element children in tree order.
func (e *Element) Children() []*Element {
	var children []*Element
	for c := e.AsNode().firstChild; c != nil; c = c.nextSibling {
		if c.nodeType == ElementNode {
			children = append(children, (*Element)(c))
		}
	}
	return children
}

// GetAttribute returns the value of the named attribute, or "" if absent.
func (e *Element) GetAttribute(name string) string {
	value, _ := e.lookupAttribute(name)
	return value
}

// HasAttribute returns true if the element has the named attribute.
func (e *Element) HasAttribute(name string) bool {
	_, ok := e.lookupAttribute(name)
	return ok
}

func (e *Element) lookupAttribute(name string) (string, bool) {
	name = strings.ToLower(name)
	for _, attr := range e.AsNode().elementData.attributes {
		if attr.name == name {
			return attr.value, true
		}
	}
	return "", false
}

// SetAttribute sets an attribute value, creating it if it doesn't exist.
func (e *Element) SetAttribute(name, value string) {
	name = strings.ToLower(name)
	data := e.AsNode().elementData
	found := false
	for i := range data.attributes {
		if data.attributes[i].name == name {
			data.attributes[i].value = value
			found = true
			break
		}
	}
	if !found {
		data.attributes = append(data.attributes, attribute{name: name, value: value})
	}
	e.AsNode().invalidateLayout()
}

// RemoveAttribute removes the named attribute if present.
func (e *Element) RemoveAttribute(name string) {
	name = strings.ToLower(name)
	data := e.AsNode().elementData
	for i, attr := range data.attributes {
		if attr.name == name {
			data.attributes = append(data.attributes[:i], data.attributes[i+1:]...)
			e.AsNode().invalidateLayout()
			return
		}
	}
}

// AttributeNames returns the attribute names in insertion order.
func (e *Element) AttributeNames() []string {
	attrs := e.AsNode().elementData.attributes
	names := make([]string, len(attrs))
	for i, attr := range attrs {
		names[i] = attr.name
	}
	return names
}

// Style returns the declarations of the inline style attribute, keyed by
// lowercase property name.
func (e *Element) Style() map[string]string {
	return parseStyleAttribute(e.GetAttribute("style"))
}

// StyleProperty returns a single inline style value, or "".
func (e *Element) StyleProperty(property string) string {
	return e.Style()[strings.ToLower(property)]
}

// SetStyleProperty sets one inline declaration, rewriting the style attribute.
// An empty value removes the declaration.
func (e *Element) SetStyleProperty(property, value string) {
	decls := e.Style()
	property = strings.ToLower(strings.TrimSpace(property))
	if value == "" {
		delete(decls, property)
	} else {
		decls[property] = strings.TrimSpace(value)
	}
	e.SetAttribute("style", serializeStyle(decls))
}

// parseStyleAttribute parses a style attribute string into declarations.
// Priorities are accepted and dropped.
func parseStyleAttribute(styleAttr string) map[string]string {
	decls := make(map[string]string)
	for _, part := range strings.Split(styleAttr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		colonIdx := strings.Index(part, ":")
		if colonIdx == -1 {
			continue
		}
		property := strings.ToLower(strings.TrimSpace(part[:colonIdx]))
		value := strings.TrimSpace(part[colonIdx+1:])
		if i := strings.Index(strings.ToLower(value), "!important"); i >= 0 {
			value = strings.TrimSpace(value[:i])
		}
		if property == "" || value == "" {
			continue
		}
		decls[property] = value
	}
	return decls
}

func serializeStyle(decls map[string]string) string {
	props := make([]string, 0, len(decls))
	for p := range decls {
		props = append(props, p)
	}
	sort.Strings(props)
	var sb strings.Builder
	for i, p := range props {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p)
		sb.WriteString(": ")
		sb.WriteString(decls[p])
		sb.WriteString(";")
	}
	return sb.String()
}

// Geometry returns the element's layout geometry.
// Returns nil if layout has not been computed.
func (e *Element) Geometry() *ElementGeometry {
	return e.AsNode().elementData.geometry
}

// SetGeometry sets the element's layout geometry.
// This is called by the layout engine after layout computation.
func (e *Element) SetGeometry(g *ElementGeometry) {
	e.AsNode().elementData.geometry = g
}

// GetBoundingClientRect returns a DOMRect representing the element's border box
// relative to the viewport. Stale layout is brought up to date first.
// If layout has never produced geometry, returns a zero-sized rect.
func (e *Element) GetBoundingClientRect() *DOMRect {
	if doc := e.AsNode().ownerDoc; doc != nil {
		doc.UpdateLayout()
	}
	geom := e.Geometry()
	if geom == nil {
		return NewDOMRect(0, 0, 0, 0)
	}
	return NewDOMRect(geom.X, geom.Y, geom.Width, geom.Height)
}

// ClientWidth returns the inner width (content + padding) without border.
func (e *Element) ClientWidth() float64 {
	if doc := e.AsNode().ownerDoc; doc != nil {
		doc.UpdateLayout()
	}
	geom := e.Geometry()
	if geom == nil {
		return 0
	}
	return geom.ClientWidth
}

// ClientHeight returns the inner height (content + padding) without border.
func (e *Element) ClientHeight() float64 {
	if doc := e.AsNode().ownerDoc; doc != nil {
		doc.UpdateLayout()
	}
	geom := e.Geometry()
	if geom == nil {
		return 0
	}
	return geom.ClientHeight
}

// ScrollTop returns the scroll offset from the top.
func (e *Element) ScrollTop() float64 {
	return e.AsNode().elementData.scrollTop
}

// SetScrollTop sets the scroll offset from the top and fires scroll listeners
// registered on the element.
func (e *Element) SetScrollTop(value float64) {
	e.ScrollTo(e.ScrollLeft(), value)
}

// ScrollLeft returns the scroll offset from the left.
func (e *Element) ScrollLeft() float64 {
	return e.AsNode().elementData.scrollLeft
}

// SetScrollLeft sets the scroll offset from the left and fires scroll
// listeners registered on the element.
func (e *Element) SetScrollLeft(value float64) {
	e.ScrollTo(value, e.ScrollTop())
}

// ScrollTo sets both scroll offsets, clamped at zero, and fires scroll
// listeners once if either changed.
func (e *Element) ScrollTo(left, top float64) {
	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	data := e.AsNode().elementData
	if data.scrollLeft == left && data.scrollTop == top {
		return
	}
	data.scrollLeft = left
	data.scrollTop = top
	e.AsNode().invalidateLayout()
	if doc := e.AsNode().ownerDoc; doc != nil {
		doc.notifyScroll(e.AsNode())
	}
}
