package js

import (
	"strings"
	"time"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/layout"
	"github.com/dop251/goja"
)

// ScriptExecutor handles executing scripts in an HTML document.
type ScriptExecutor struct {
	runtime         *Runtime
	domBinder       *DOMBinder
	eventBinder     *EventBinder
	observers       *IntersectionObserverManager
	scroll          *scrollEvents
	currentDocument *dom.Document // Currently bound document
}

// NewScriptExecutor creates a new script executor.
func NewScriptExecutor(runtime *Runtime) *ScriptExecutor {
	domBinder := NewDOMBinder(runtime)
	eventBinder := NewEventBinder(runtime)
	eventBinder.SetupEventConstructors()

	// Set the event binder on DOM binder so all nodes get EventTarget methods
	domBinder.SetEventBinder(eventBinder)

	return &ScriptExecutor{
		runtime:     runtime,
		domBinder:   domBinder,
		eventBinder: eventBinder,
		observers:   NewIntersectionObserverManager(),
	}
}

// Runtime returns the underlying JavaScript runtime.
func (se *ScriptExecutor) Runtime() *Runtime {
	return se.runtime
}

// DOMBinder returns the DOM binder.
func (se *ScriptExecutor) DOMBinder() *DOMBinder {
	return se.domBinder
}

// EventBinder returns the event binder.
func (se *ScriptExecutor) EventBinder() *EventBinder {
	return se.eventBinder
}

// IntersectionObservers returns the manager tracking observers created from
// script.
func (se *ScriptExecutor) IntersectionObservers() *IntersectionObserverManager {
	return se.observers
}

// SetupDocument binds doc as the global document, installs the layout engine
// and window scroll accessors, and makes IntersectionObserver available.
func (se *ScriptExecutor) SetupDocument(doc *dom.Document) {
	if se.currentDocument != nil && se.currentDocument != doc {
		se.observers.DisconnectAll()
		se.domBinder.ClearCache()
		se.eventBinder.ClearTargets()
	}
	if se.scroll != nil {
		se.scroll.close()
	}
	se.currentDocument = doc
	se.domBinder.document = doc

	layout.Install(doc)

	jsDoc := se.domBinder.BindDocument(doc)
	se.runtime.SetDocument(jsDoc)

	// The global object is the window; it gets EventTarget methods too
	window := se.runtime.vm.GlobalObject()
	se.eventBinder.BindEventTarget(window)
	se.scroll = newScrollEvents(se.eventBinder, se.domBinder, doc, window)
	se.eventBinder.onListen = se.scroll.listen

	se.setupWindowViewport(doc)
	SetupIntersectionObserver(se.runtime, se.domBinder, doc, se.observers)
}

// setupWindowViewport replaces the placeholder viewport properties of window
// with live views of the document's viewport and scroll position.
func (se *ScriptExecutor) setupWindowViewport(doc *dom.Document) {
	vm := se.runtime.vm
	window := vm.GlobalObject()

	getter := func(fn func() float64) goja.Value {
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(fn())
		})
	}

	window.DefineAccessorProperty("innerWidth", getter(doc.ViewportWidth), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	window.DefineAccessorProperty("innerHeight", getter(doc.ViewportHeight), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	window.DefineAccessorProperty("scrollX", getter(doc.ScrollX), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	window.DefineAccessorProperty("scrollY", getter(doc.ScrollY), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	window.DefineAccessorProperty("pageXOffset", getter(doc.ScrollX), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
	window.DefineAccessorProperty("pageYOffset", getter(doc.ScrollY), nil, goja.FLAG_TRUE, goja.FLAG_TRUE)

	window.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		x, y := scrollArgs(vm, call, doc.ScrollX(), doc.ScrollY())
		doc.ScrollTo(x, y)
		return goja.Undefined()
	})
	window.Set("scroll", window.Get("scrollTo"))

	window.Set("scrollBy", func(call goja.FunctionCall) goja.Value {
		dx, dy := scrollArgs(vm, call, 0, 0)
		doc.ScrollTo(doc.ScrollX()+dx, doc.ScrollY()+dy)
		return goja.Undefined()
	})
}

// ExecuteScripts finds and executes all script elements in the document.
func (se *ScriptExecutor) ExecuteScripts(doc *dom.Document) []error {
	var errors []error
	for _, script := range doc.GetElementsByTagName("script") {
		if err := se.executeScript(script); err != nil {
			errors = append(errors, err)
		}
	}
	return errors
}

// executeScript executes a single script element.
func (se *ScriptExecutor) executeScript(script *dom.Element) error {
	// Check if this is JavaScript (or has no type, which defaults to JavaScript)
	scriptType := script.GetAttribute("type")
	if scriptType != "" && scriptType != "text/javascript" && scriptType != "application/javascript" {
		return nil
	}

	// External scripts are handed in by the host through ExecuteExternalScript
	if script.GetAttribute("src") != "" {
		return nil
	}

	code := strings.TrimSpace(script.AsNode().TextContent())
	if code == "" {
		return nil
	}

	// Get script location for error reporting
	id := script.GetAttribute("id")
	if id == "" {
		id = "inline"
	}

	return se.runtime.ExecuteScript(code, id)
}

// ExecuteExternalScript executes an external script with the given content.
// The scriptURL is used for error reporting.
func (se *ScriptExecutor) ExecuteExternalScript(content string, scriptURL string) error {
	code := strings.TrimSpace(content)
	if code == "" {
		return nil
	}

	return se.runtime.ExecuteScript(code, scriptURL)
}

// RunEventLoopOnce runs one iteration of the event loop.
func (se *ScriptExecutor) RunEventLoopOnce() bool {
	return se.runtime.RunEventLoop()
}

// RunFor drives the event loop for d of clock time.
func (se *ScriptExecutor) RunFor(d time.Duration) {
	se.runtime.RunFor(d)
}

// Cleanup disconnects observers, clears caches and releases resources.
func (se *ScriptExecutor) Cleanup() {
	se.observers.DisconnectAll()
	if se.scroll != nil {
		se.scroll.close()
	}
	se.domBinder.ClearCache()
	se.eventBinder.ClearTargets()
	se.runtime.ClearErrors()
}
