package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Default viewport dimensions, matching the window stubs of the JS runtime.
const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// LayoutEngine computes element geometry for a document.
type LayoutEngine func(doc *Document)

// Document represents the entire HTML document.
type Document Node

// documentData holds data specific to Document nodes.
type documentData struct {
	viewportWidth  float64
	viewportHeight float64
	scrollX        float64
	scrollY        float64

	layoutEngine LayoutEngine
	layoutDirty  bool
	inLayout     bool

	scrollListeners map[*Node][]*ScrollListener
}

// NewDocument creates a new empty HTML Document with the default viewport.
func NewDocument() *Document {
	node := newNode(DocumentNode, "#document", nil)
	node.documentData = &documentData{
		viewportWidth:   DefaultViewportWidth,
		viewportHeight:  DefaultViewportHeight,
		layoutDirty:     true,
		scrollListeners: make(map[*Node][]*ScrollListener),
	}
	doc := (*Document)(node)
	node.ownerDoc = doc
	return doc
}

// AsNode returns the underlying Node.
func (d *Document) AsNode() *Node {
	return (*Node)(d)
}

func (d *Document) data() *documentData {
	return d.AsNode().documentData
}

// DocumentElement returns the root element, or nil.
func (d *Document) DocumentElement() *Element {
	for c := d.AsNode().firstChild; c != nil; c = c.nextSibling {
		if c.nodeType == ElementNode {
			return (*Element)(c)
		}
	}
	return nil
}

// Body returns the body element, or nil.
func (d *Document) Body() *Element {
	root := d.DocumentElement()
	if root == nil {
		return nil
	}
	for _, child := range root.Children() {
		if child.LocalName() == "body" {
			return child
		}
	}
	return nil
}

// CreateElement creates a new HTML element with the given tag name.
func (d *Document) CreateElement(tagName string) *Element {
	el, _ := d.CreateElementWithError(tagName)
	return el
}

// CreateElementWithError creates a new element, rejecting invalid names.
func (d *Document) CreateElementWithError(tagName string) (*Element, error) {
	if tagName == "" || strings.ContainsAny(tagName, " \t\n\r\f<>/=\"'") {
		return nil, ErrInvalidCharacter("The tag name provided ('" + tagName + "') is not a valid name.")
	}
	localName := strings.ToLower(tagName)
	node := newNode(ElementNode, strings.ToUpper(localName), d)
	node.elementData = &elementData{
		localName: localName,
		tagName:   strings.ToUpper(localName),
	}
	return (*Element)(node), nil
}

// CreateTextNode creates a new Text node.
func (d *Document) CreateTextNode(data string) *Node {
	node := newNode(TextNode, "#text", d)
	node.textData = &data
	return node
}

// CreateComment creates a new Comment node.
func (d *Document) CreateComment(data string) *Node {
	node := newNode(CommentNode, "#comment", d)
	node.textData = &data
	return node
}

// GetElementById returns the element with the given id.
// Per DOM spec, returns null if id is empty string.
func (d *Document) GetElementById(id string) *Element {
	if id == "" {
		return nil
	}
	var found *Element
	d.walkElements(func(el *Element) bool {
		if el.Id() == id {
			found = el
			return false
		}
		return true
	})
	return found
}

// GetElementsByTagName returns the elements with the given tag name in tree
// order. "*" matches every element.
func (d *Document) GetElementsByTagName(tagName string) []*Element {
	tagName = strings.ToLower(tagName)
	var result []*Element
	d.walkElements(func(el *Element) bool {
		if tagName == "*" || el.LocalName() == tagName {
			result = append(result, el)
		}
		return true
	})
	return result
}

// walkElements visits elements in tree order until fn returns false.
func (d *Document) walkElements(fn func(el *Element) bool) {
	var walk func(n *Node) bool
	walk = func(n *Node) bool {
		for c := n.firstChild; c != nil; c = c.nextSibling {
			if c.nodeType != ElementNode {
				continue
			}
			if !fn((*Element)(c)) {
				return false
			}
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(d.AsNode())
}

// ViewportWidth returns the width of the implicit viewport.
func (d *Document) ViewportWidth() float64 {
	return d.data().viewportWidth
}

// ViewportHeight returns the height of the implicit viewport.
func (d *Document) ViewportHeight() float64 {
	return d.data().viewportHeight
}

// SetViewportSize resizes the viewport and invalidates layout.
func (d *Document) SetViewportSize(width, height float64) {
	d.data().viewportWidth = width
	d.data().viewportHeight = height
	d.InvalidateLayout()
}

// ScrollX returns the horizontal document scroll offset.
func (d *Document) ScrollX() float64 {
	return d.data().scrollX
}

// ScrollY returns the vertical document scroll offset.
func (d *Document) ScrollY() float64 {
	return d.data().scrollY
}

// ScrollTo scrolls the viewport and fires scroll listeners registered on the
// document. Negative offsets are clamped to zero.
func (d *Document) ScrollTo(x, y float64) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	data := d.data()
	if data.scrollX == x && data.scrollY == y {
		return
	}
	data.scrollX = x
	data.scrollY = y
	d.InvalidateLayout()
	d.notifyScroll(d.AsNode())
}

// SetLayoutEngine installs the function used to compute element geometry.
func (d *Document) SetLayoutEngine(engine LayoutEngine) {
	d.data().layoutEngine = engine
	d.InvalidateLayout()
}

// InvalidateLayout marks the geometry as stale.
func (d *Document) InvalidateLayout() {
	d.data().layoutDirty = true
}

// UpdateLayout runs the layout engine if the geometry is stale.
func (d *Document) UpdateLayout() {
	data := d.data()
	if !data.layoutDirty || data.layoutEngine == nil || data.inLayout {
		return
	}
	data.inLayout = true
	data.layoutEngine(d)
	data.inLayout = false
	data.layoutDirty = false
}

// ParseHTML parses an HTML string and returns a Document.
func ParseHTML(htmlContent string) (*Document, error) {
	return ParseHTMLReader(strings.NewReader(htmlContent))
}

// ParseHTMLReader parses HTML from r and returns a Document.
func ParseHTMLReader(r io.Reader) (*Document, error) {
	netDoc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	doc, _ := ConvertHTML(netDoc)
	return doc, nil
}

// ConvertHTML converts a golang.org/x/net/html tree into a Document. The
// returned map links every converted parser node to its DOM node, so queries
// evaluated against the parser tree can be resolved to DOM nodes.
func ConvertHTML(netDoc *html.Node) (*Document, map[*html.Node]*Node) {
	doc := NewDocument()
	nodes := make(map[*html.Node]*Node)
	nodes[netDoc] = doc.AsNode()
	convertHTMLTree(netDoc, doc.AsNode(), doc, nodes)
	return doc, nodes
}

// convertHTMLTree converts an html.Node tree to our DOM tree.
func convertHTMLTree(src *html.Node, parent *Node, doc *Document, nodes map[*html.Node]*Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		var node *Node

		switch c.Type {
		case html.TextNode:
			node = doc.CreateTextNode(c.Data)

		case html.ElementNode:
			el := doc.CreateElement(c.Data)
			for _, attr := range c.Attr {
				el.SetAttribute(attr.Key, attr.Val)
			}
			node = el.AsNode()

		case html.CommentNode:
			node = doc.CreateComment(c.Data)

		case html.DoctypeNode:
			node = newNode(DocumentTypeNode, c.Data, doc)

		case html.DocumentNode:
			convertHTMLTree(c, parent, doc, nodes)
			continue

		default:
			continue
		}

		parent.insertBeforeInternal(node, nil)
		nodes[c] = node
		if c.Type == html.ElementNode {
			convertHTMLTree(c, node, doc, nodes)
		}
	}
	doc.InvalidateLayout()
}
