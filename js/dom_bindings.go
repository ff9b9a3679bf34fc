package js

import (
	"strconv"
	"strings"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/dop251/goja"
)

// domExceptionCode returns the legacy exception code for a DOMException name.
func domExceptionCode(name string) int {
	codes := map[string]int{
		"IndexSizeError":        1,
		"HierarchyRequestError": 3,
		"InvalidCharacterError": 5,
		"NotFoundError":         8,
		"NotSupportedError":     9,
		"InvalidStateError":     11,
		"SyntaxError":           12,
	}
	if code, ok := codes[name]; ok {
		return code
	}
	return 0
}

// DOMBinder provides methods to bind DOM objects to JavaScript.
type DOMBinder struct {
	runtime     *Runtime
	nodeMap     map[*dom.Node]*goja.Object // Cache to return same JS object for same DOM node
	document    *dom.Document              // Current document for creating new nodes
	eventBinder *EventBinder               // Adds EventTarget methods to every bound node

	// Prototype objects for instanceof checks
	nodeProto         *goja.Object
	textProto         *goja.Object
	elementProto      *goja.Object
	documentProto     *goja.Object
	domExceptionProto *goja.Object
	domRectProto      *goja.Object
}

// NewDOMBinder creates a new DOM binder for the given runtime.
func NewDOMBinder(runtime *Runtime) *DOMBinder {
	b := &DOMBinder{
		runtime: runtime,
		nodeMap: make(map[*dom.Node]*goja.Object),
	}
	b.setupPrototypes()
	return b
}

// SetEventBinder sets the event binder used to give nodes EventTarget methods.
func (b *DOMBinder) SetEventBinder(eb *EventBinder) {
	b.eventBinder = eb
}

// illegalConstructor creates an interface object that cannot be constructed
// from script, with proto as its prototype, and installs it as a global.
func (b *DOMBinder) illegalConstructor(name string, proto *goja.Object) *goja.Object {
	vm := b.runtime.vm
	ctor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		panic(vm.NewTypeError("Illegal constructor"))
	}).ToObject(vm)
	ctor.Set("prototype", proto)
	proto.Set("constructor", ctor)
	vm.Set(name, ctor)
	return ctor
}

// setupPrototypes creates the prototype chain for DOM interfaces.
// This enables instanceof checks to work correctly.
func (b *DOMBinder) setupPrototypes() {
	vm := b.runtime.vm

	b.nodeProto = vm.NewObject()
	nodeCtor := b.illegalConstructor("Node", b.nodeProto)
	nodeCtor.Set("ELEMENT_NODE", int(dom.ElementNode))
	nodeCtor.Set("TEXT_NODE", int(dom.TextNode))
	nodeCtor.Set("COMMENT_NODE", int(dom.CommentNode))
	nodeCtor.Set("DOCUMENT_NODE", int(dom.DocumentNode))
	nodeCtor.Set("DOCUMENT_TYPE_NODE", int(dom.DocumentTypeNode))

	// DOMException extends Error
	b.domExceptionProto = vm.NewObject()
	errorProto := vm.Get("Error").ToObject(vm).Get("prototype").ToObject(vm)
	b.domExceptionProto.SetPrototype(errorProto)
	domExceptionCtor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		message := ""
		name := "Error"
		if len(call.Arguments) > 0 {
			message = call.Arguments[0].String()
		}
		if len(call.Arguments) > 1 {
			name = call.Arguments[1].String()
		}
		exc := call.This
		exc.Set("message", message)
		exc.Set("name", name)
		exc.Set("code", domExceptionCode(name))
		return exc
	}).ToObject(vm)
	domExceptionCtor.Set("prototype", b.domExceptionProto)
	b.domExceptionProto.Set("constructor", domExceptionCtor)
	vm.Set("DOMException", domExceptionCtor)

	b.textProto = vm.NewObject()
	b.textProto.SetPrototype(b.nodeProto)
	b.illegalConstructor("Text", b.textProto)

	b.elementProto = vm.NewObject()
	b.elementProto.SetPrototype(b.nodeProto)
	b.illegalConstructor("Element", b.elementProto)
	// HTMLElement shares the Element prototype; there are no per-tag interfaces
	vm.Set("HTMLElement", vm.Get("Element"))

	b.documentProto = vm.NewObject()
	b.documentProto.SetPrototype(b.nodeProto)
	b.illegalConstructor("Document", b.documentProto)

	b.domRectProto = vm.NewObject()
	b.illegalConstructor("DOMRectReadOnly", b.domRectProto)
}

// BindDocument creates a JavaScript document object from a DOM document.
func (b *DOMBinder) BindDocument(doc *dom.Document) *goja.Object {
	node := doc.AsNode()
	if jsObj, ok := b.nodeMap[node]; ok {
		return jsObj
	}

	vm := b.runtime.vm
	jsDoc := vm.NewObject()
	jsDoc.SetPrototype(b.documentProto)

	jsDoc.Set("_goDoc", doc)
	jsDoc.Set("_goNode", node)
	jsDoc.Set("nodeType", int(dom.DocumentNode))
	jsDoc.Set("nodeName", "#document")

	if b.document == nil {
		b.document = doc
	}

	jsDoc.DefineAccessorProperty("documentElement", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementOrNull(doc.DocumentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.DefineAccessorProperty("body", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementOrNull(doc.Body())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.DefineAccessorProperty("scrollingElement", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementOrNull(doc.DocumentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsDoc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Null()
		}
		return b.elementOrNull(doc.GetElementById(call.Arguments[0].String()))
	})

	jsDoc.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'getElementsByTagName' on 'Document': 1 argument required, but only 0 present."))
		}
		return b.bindElementArray(doc.GetElementsByTagName(call.Arguments[0].String()))
	})

	jsDoc.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'querySelector' on 'Document': 1 argument required, but only 0 present."))
		}
		el, err := doc.QuerySelector(call.Arguments[0].String())
		if err != nil {
			b.throwError(vm, err)
		}
		return b.elementOrNull(el)
	})

	jsDoc.Set("querySelectorAll", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'querySelectorAll' on 'Document': 1 argument required, but only 0 present."))
		}
		els, err := doc.QuerySelectorAll(call.Arguments[0].String())
		if err != nil {
			b.throwError(vm, err)
		}
		return b.bindElementArray(els)
	})

	jsDoc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required, but only 0 present."))
		}
		el, err := doc.CreateElementWithError(call.Arguments[0].String())
		if err != nil {
			b.throwError(vm, err)
		}
		return b.BindElement(el)
	})

	jsDoc.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		data := ""
		if len(call.Arguments) > 0 {
			data = call.Arguments[0].String()
		}
		return b.BindNode(doc.CreateTextNode(data))
	})

	b.bindNodeProperties(jsDoc, node)
	b.nodeMap[node] = jsDoc
	return jsDoc
}

// BindElement creates a JavaScript object from a DOM element.
func (b *DOMBinder) BindElement(el *dom.Element) *goja.Object {
	if el == nil {
		return nil
	}

	node := el.AsNode()

	// Check cache
	if jsObj, ok := b.nodeMap[node]; ok {
		return jsObj
	}

	vm := b.runtime.vm
	jsEl := vm.NewObject()
	jsEl.SetPrototype(b.elementProto)

	// Store reference to the Go element
	jsEl.Set("_goElement", el)
	jsEl.Set("_goNode", node)

	jsEl.Set("nodeType", int(dom.ElementNode))
	jsEl.DefineAccessorProperty("nodeName", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.TagName())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("tagName", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.TagName())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("localName", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.LocalName())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.reflectAttribute(jsEl, el, "id", "id")
	b.reflectAttribute(jsEl, el, "className", "class")

	jsEl.DefineAccessorProperty("children", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.bindElementArray(el.Children())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// Attribute methods
	jsEl.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'getAttribute' on 'Element': 1 argument required, but only 0 present."))
		}
		name := call.Arguments[0].String()
		if !el.HasAttribute(name) {
			return goja.Null()
		}
		return vm.ToValue(el.GetAttribute(name))
	})

	jsEl.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'setAttribute' on 'Element': 2 arguments required."))
		}
		el.SetAttribute(call.Arguments[0].String(), call.Arguments[1].String())
		return goja.Undefined()
	})

	jsEl.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.RemoveAttribute(call.Arguments[0].String())
		}
		return goja.Undefined()
	})

	jsEl.Set("hasAttribute", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return vm.ToValue(false)
		}
		return vm.ToValue(el.HasAttribute(call.Arguments[0].String()))
	})

	// Geometry
	jsEl.Set("getBoundingClientRect", func(call goja.FunctionCall) goja.Value {
		return b.BindDOMRect(el.GetBoundingClientRect())
	})

	jsEl.DefineAccessorProperty("clientWidth", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.ClientWidth())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("clientHeight", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.ClientHeight())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("scrollHeight", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		el.GetBoundingClientRect()
		if g := el.Geometry(); g != nil {
			return vm.ToValue(g.ScrollHeight)
		}
		return vm.ToValue(0)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("scrollWidth", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		el.GetBoundingClientRect()
		if g := el.Geometry(); g != nil {
			return vm.ToValue(g.ScrollWidth)
		}
		return vm.ToValue(0)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("scrollTop", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.ScrollTop())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetScrollTop(call.Arguments[0].ToFloat())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.DefineAccessorProperty("scrollLeft", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.ScrollLeft())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetScrollLeft(call.Arguments[0].ToFloat())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsEl.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		x, y := scrollArgs(vm, call, el.ScrollLeft(), el.ScrollTop())
		el.ScrollTo(x, y)
		return goja.Undefined()
	})

	jsEl.DefineAccessorProperty("style", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.bindStyle(el)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	b.bindNodeProperties(jsEl, node)

	// Cache the binding
	b.nodeMap[node] = jsEl
	return jsEl
}

// reflectAttribute defines a string property reflecting a content attribute.
func (b *DOMBinder) reflectAttribute(jsEl *goja.Object, el *dom.Element, prop, attr string) {
	vm := b.runtime.vm
	jsEl.DefineAccessorProperty(prop, vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(el.GetAttribute(attr))
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			el.SetAttribute(attr, call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// scrollArgs reads scrollTo(x, y) or scrollTo({left, top}), defaulting to the
// current offsets.
func scrollArgs(vm *goja.Runtime, call goja.FunctionCall, x, y float64) (float64, float64) {
	if len(call.Arguments) == 0 {
		return x, y
	}
	first := call.Arguments[0]
	if obj, ok := first.(*goja.Object); ok && len(call.Arguments) == 1 {
		if v := obj.Get("left"); v != nil && !goja.IsUndefined(v) {
			x = v.ToFloat()
		}
		if v := obj.Get("top"); v != nil && !goja.IsUndefined(v) {
			y = v.ToFloat()
		}
		return x, y
	}
	x = first.ToFloat()
	if len(call.Arguments) > 1 {
		y = call.Arguments[1].ToFloat()
	}
	return x, y
}

// BindNode creates a JavaScript object for any supported node.
func (b *DOMBinder) BindNode(node *dom.Node) *goja.Object {
	if node == nil {
		return nil
	}

	// Check cache
	if jsObj, ok := b.nodeMap[node]; ok {
		return jsObj
	}

	switch node.NodeType() {
	case dom.ElementNode:
		return b.BindElement((*dom.Element)(node))
	case dom.DocumentNode:
		return b.BindDocument((*dom.Document)(node))
	}

	vm := b.runtime.vm
	jsNode := vm.NewObject()
	if node.NodeType() == dom.TextNode {
		jsNode.SetPrototype(b.textProto)
	} else {
		jsNode.SetPrototype(b.nodeProto)
	}

	jsNode.Set("_goNode", node)
	jsNode.Set("nodeType", int(node.NodeType()))
	jsNode.Set("nodeName", node.NodeName())

	b.bindNodeProperties(jsNode, node)

	b.nodeMap[node] = jsNode
	return jsNode
}

// elementOrNull binds el, mapping nil to JavaScript null.
func (b *DOMBinder) elementOrNull(el *dom.Element) goja.Value {
	if el == nil {
		return goja.Null()
	}
	return b.BindElement(el)
}

// bindElementArray binds a static list of elements as a JavaScript array.
func (b *DOMBinder) bindElementArray(els []*dom.Element) goja.Value {
	vals := make([]interface{}, len(els))
	for i, el := range els {
		vals[i] = b.BindElement(el)
	}
	return b.runtime.vm.NewArray(vals...)
}

// BindDOMRect creates a DOMRectReadOnly-like object.
func (b *DOMBinder) BindDOMRect(r *dom.DOMRect) *goja.Object {
	vm := b.runtime.vm
	jsRect := vm.NewObject()
	jsRect.SetPrototype(b.domRectProto)
	jsRect.Set("x", r.X)
	jsRect.Set("y", r.Y)
	jsRect.Set("width", r.Width)
	jsRect.Set("height", r.Height)
	jsRect.Set("top", r.Top())
	jsRect.Set("right", r.Right())
	jsRect.Set("bottom", r.Bottom())
	jsRect.Set("left", r.Left())
	return jsRect
}

// createDOMException creates a proper DOMException object using the global constructor.
func (b *DOMBinder) createDOMException(name, message string) *goja.Object {
	vm := b.runtime.vm
	if ctor, ok := goja.AssertConstructor(vm.Get("DOMException")); ok {
		if exc, err := ctor(nil, vm.ToValue(message), vm.ToValue(name)); err == nil {
			return exc
		}
	}
	exc := vm.NewObject()
	exc.Set("name", name)
	exc.Set("message", message)
	exc.Set("code", domExceptionCode(name))
	return exc
}

// throwError throws err as a DOMException when it is a *dom.DOMError and as a
// TypeError otherwise.
func (b *DOMBinder) throwError(vm *goja.Runtime, err error) {
	if domErr, ok := err.(*dom.DOMError); ok {
		panic(vm.ToValue(b.createDOMException(domErr.Name, domErr.Message)))
	}
	panic(vm.NewTypeError(err.Error()))
}

// bindNodeProperties adds the tree accessors and mutation methods shared by
// every node.
func (b *DOMBinder) bindNodeProperties(jsObj *goja.Object, node *dom.Node) {
	vm := b.runtime.vm

	if b.eventBinder != nil {
		b.eventBinder.BindEventTarget(jsObj)
	}

	nodeOrNull := func(n *dom.Node) goja.Value {
		if n == nil {
			return goja.Null()
		}
		return b.BindNode(n)
	}

	jsObj.DefineAccessorProperty("parentNode", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return nodeOrNull(node.ParentNode())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("parentElement", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.elementOrNull(node.ParentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("previousSibling", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return nodeOrNull(node.PreviousSibling())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("nextSibling", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return nodeOrNull(node.NextSibling())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("firstChild", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return nodeOrNull(node.FirstChild())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("lastChild", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return nodeOrNull(node.LastChild())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("childNodes", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		children := node.ChildNodes()
		vals := make([]interface{}, len(children))
		for i, c := range children {
			vals[i] = b.BindNode(c)
		}
		return vm.NewArray(vals...)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("ownerDocument", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if node.NodeType() == dom.DocumentNode {
			return goja.Null()
		}
		doc := node.OwnerDocument()
		if doc == nil {
			return goja.Null()
		}
		return b.BindDocument(doc)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("isConnected", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(node.IsConnected())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.DefineAccessorProperty("textContent", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if node.NodeType() == dom.DocumentNode {
			return goja.Null()
		}
		return vm.ToValue(node.TextContent())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 && node.NodeType() != dom.DocumentNode {
			node.SetTextContent(call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObj.Set("hasChildNodes", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(node.HasChildNodes())
	})

	jsObj.Set("contains", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 || goja.IsNull(call.Arguments[0]) || goja.IsUndefined(call.Arguments[0]) {
			return vm.ToValue(false)
		}
		other := b.getGoNode(call.Arguments[0].ToObject(vm))
		return vm.ToValue(other != nil && node.Contains(other))
	})

	jsObj.Set("appendChild", func(call goja.FunctionCall) goja.Value {
		child := b.nodeArg(vm, call, 0, "appendChild")
		if _, err := node.AppendChildWithError(child); err != nil {
			b.throwError(vm, err)
		}
		return call.Arguments[0]
	})

	jsObj.Set("insertBefore", func(call goja.FunctionCall) goja.Value {
		child := b.nodeArg(vm, call, 0, "insertBefore")
		var ref *dom.Node
		if len(call.Arguments) > 1 && !goja.IsNull(call.Arguments[1]) && !goja.IsUndefined(call.Arguments[1]) {
			ref = b.nodeArg(vm, call, 1, "insertBefore")
		}
		if _, err := node.InsertBeforeWithError(child, ref); err != nil {
			b.throwError(vm, err)
		}
		return call.Arguments[0]
	})

	jsObj.Set("removeChild", func(call goja.FunctionCall) goja.Value {
		child := b.nodeArg(vm, call, 0, "removeChild")
		if _, err := node.RemoveChildWithError(child); err != nil {
			b.throwError(vm, err)
		}
		return call.Arguments[0]
	})

	jsObj.Set("remove", func(call goja.FunctionCall) goja.Value {
		if parent := node.ParentNode(); parent != nil {
			parent.RemoveChild(node)
		}
		return goja.Undefined()
	})
}

// nodeArg returns argument i as a Go node or throws a TypeError.
func (b *DOMBinder) nodeArg(vm *goja.Runtime, call goja.FunctionCall, i int, method string) *dom.Node {
	if len(call.Arguments) <= i || goja.IsNull(call.Arguments[i]) || goja.IsUndefined(call.Arguments[i]) {
		panic(vm.NewTypeError("Failed to execute '" + method + "' on 'Node': parameter " + strconv.Itoa(i+1) + " is not of type 'Node'."))
	}
	n := b.getGoNode(call.Arguments[i].ToObject(vm))
	if n == nil {
		panic(vm.NewTypeError("Failed to execute '" + method + "' on 'Node': parameter " + strconv.Itoa(i+1) + " is not of type 'Node'."))
	}
	return n
}

// getGoNode extracts the Go *dom.Node from a JavaScript object.
func (b *DOMBinder) getGoNode(obj *goja.Object) *dom.Node {
	if obj == nil {
		return nil
	}

	// Try _goNode first
	if v := obj.Get("_goNode"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if node, ok := v.Export().(*dom.Node); ok {
			return node
		}
	}

	// Try _goElement
	if v := obj.Get("_goElement"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if el, ok := v.Export().(*dom.Element); ok {
			return el.AsNode()
		}
	}

	// Try _goDoc
	if v := obj.Get("_goDoc"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if doc, ok := v.Export().(*dom.Document); ok {
			return doc.AsNode()
		}
	}

	return nil
}

// GoElement returns the element bound to v, or nil when v is not an element.
func (b *DOMBinder) GoElement(v goja.Value) *dom.Element {
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	node := b.getGoNode(obj)
	if node == nil || node.NodeType() != dom.ElementNode {
		return nil
	}
	return (*dom.Element)(node)
}

// ClearCache clears the node binding cache.
func (b *DOMBinder) ClearCache() {
	b.nodeMap = make(map[*dom.Node]*goja.Object)
}

// styleDeclaration exposes an element's inline style as a goja dynamic
// object: el.style.top = "10px" rewrites the style attribute.
type styleDeclaration struct {
	b  *DOMBinder
	el *dom.Element
}

func (b *DOMBinder) bindStyle(el *dom.Element) *goja.Object {
	return b.runtime.vm.NewDynamicObject(&styleDeclaration{b: b, el: el})
}

func (s *styleDeclaration) Get(key string) goja.Value {
	vm := s.b.runtime.vm
	switch key {
	case "cssText":
		return vm.ToValue(s.el.GetAttribute("style"))
	case "getPropertyValue":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return vm.ToValue("")
			}
			return vm.ToValue(s.el.StyleProperty(call.Arguments[0].String()))
		})
	case "setProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return goja.Undefined()
			}
			value := ""
			if len(call.Arguments) > 1 && !goja.IsNull(call.Arguments[1]) && !goja.IsUndefined(call.Arguments[1]) {
				value = call.Arguments[1].String()
			}
			s.el.SetStyleProperty(call.Arguments[0].String(), value)
			return goja.Undefined()
		})
	case "removeProperty":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return vm.ToValue("")
			}
			prop := call.Arguments[0].String()
			old := s.el.StyleProperty(prop)
			s.el.SetStyleProperty(prop, "")
			return vm.ToValue(old)
		})
	}
	return vm.ToValue(s.el.StyleProperty(cssPropertyName(key)))
}

func (s *styleDeclaration) Set(key string, val goja.Value) bool {
	value := ""
	if val != nil && !goja.IsNull(val) && !goja.IsUndefined(val) {
		value = val.String()
	}
	if key == "cssText" {
		s.el.SetAttribute("style", value)
		return true
	}
	s.el.SetStyleProperty(cssPropertyName(key), value)
	return true
}

func (s *styleDeclaration) Has(key string) bool {
	_, ok := s.el.Style()[cssPropertyName(key)]
	return ok
}

func (s *styleDeclaration) Delete(key string) bool {
	s.el.SetStyleProperty(cssPropertyName(key), "")
	return true
}

func (s *styleDeclaration) Keys() []string {
	style := s.el.Style()
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	return keys
}

// cssPropertyName maps a camelCase IDL attribute such as marginTop to its
// CSS property name margin-top.
func cssPropertyName(key string) string {
	var sb strings.Builder
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			sb.WriteByte('-')
			sb.WriteRune(r + ('a' - 'A'))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
