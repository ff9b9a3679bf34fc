package js

import (
	"sync"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/dop251/goja"
)

// EventPhase represents the phase of event dispatch.
type EventPhase int

const (
	EventPhaseNone     EventPhase = 0
	EventPhaseAtTarget EventPhase = 2
)

// eventListener represents a registered event listener.
type eventListener struct {
	id       int
	callback goja.Callable
	value    goja.Value // Original value for comparison
	once     bool
}

// EventTarget manages event listeners for a target.
type EventTarget struct {
	listeners map[string][]eventListener
	nextID    int
	mu        sync.RWMutex
}

// NewEventTarget creates a new EventTarget.
func NewEventTarget() *EventTarget {
	return &EventTarget{
		listeners: make(map[string][]eventListener),
	}
}

// AddEventListener registers an event listener. Registering the same
// function twice for a type is a no-op.
func (et *EventTarget) AddEventListener(eventType string, callback goja.Callable, value goja.Value, once bool) {
	et.mu.Lock()
	defer et.mu.Unlock()

	for _, l := range et.listeners[eventType] {
		if l.value.SameAs(value) {
			return
		}
	}

	et.nextID++
	et.listeners[eventType] = append(et.listeners[eventType], eventListener{
		id:       et.nextID,
		callback: callback,
		value:    value,
		once:     once,
	})
}

// RemoveEventListener unregisters an event listener.
func (et *EventTarget) RemoveEventListener(eventType string, value goja.Value) {
	et.mu.Lock()
	defer et.mu.Unlock()

	listeners := et.listeners[eventType]
	for i, l := range listeners {
		if l.value.SameAs(value) {
			et.listeners[eventType] = append(listeners[:i], listeners[i+1:]...)
			return
		}
	}
}

// DispatchEvent calls every listener registered for the event's type with
// thisObj as this. Listener errors are reported and do not stop dispatch.
func (et *EventTarget) DispatchEvent(r *Runtime, thisObj, event *goja.Object) bool {
	eventType := event.Get("type").String()

	et.mu.Lock()
	listeners := make([]eventListener, len(et.listeners[eventType]))
	copy(listeners, et.listeners[eventType])
	// once listeners are dropped before they run
	kept := et.listeners[eventType][:0:0]
	for _, l := range et.listeners[eventType] {
		if !l.once {
			kept = append(kept, l)
		}
	}
	et.listeners[eventType] = kept
	et.mu.Unlock()

	for _, l := range listeners {
		if _, err := l.callback(thisObj, event); err != nil {
			r.reportError(err)
		}
		if stop := event.Get("_stopImmediate"); stop != nil && stop.ToBoolean() {
			break
		}
	}

	if defaultPrevented := event.Get("defaultPrevented"); defaultPrevented != nil {
		return !defaultPrevented.ToBoolean()
	}
	return true
}

// HasEventListeners returns true if there are any listeners for the event type.
func (et *EventTarget) HasEventListeners(eventType string) bool {
	et.mu.RLock()
	defer et.mu.RUnlock()
	return len(et.listeners[eventType]) > 0
}

// EventBinder provides methods to add event handling to JS objects.
type EventBinder struct {
	runtime   *Runtime
	targetMap map[*goja.Object]*EventTarget
	// onListen is told about every addEventListener call, so event sources
	// can be wired lazily.
	onListen func(obj *goja.Object, eventType string)
	mu       sync.RWMutex
}

// NewEventBinder creates a new event binder.
func NewEventBinder(runtime *Runtime) *EventBinder {
	return &EventBinder{
		runtime:   runtime,
		targetMap: make(map[*goja.Object]*EventTarget),
	}
}

// GetOrCreateTarget gets or creates an EventTarget for a JS object.
func (eb *EventBinder) GetOrCreateTarget(obj *goja.Object) *EventTarget {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if target, ok := eb.targetMap[obj]; ok {
		return target
	}

	target := NewEventTarget()
	eb.targetMap[obj] = target
	return target
}

func (eb *EventBinder) lookupTarget(obj *goja.Object) *EventTarget {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return eb.targetMap[obj]
}

// BindEventTarget adds EventTarget interface methods to a JS object.
func (eb *EventBinder) BindEventTarget(obj *goja.Object) {
	vm := eb.runtime.vm

	obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}

		eventType := call.Arguments[0].String()
		callback, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			return goja.Undefined()
		}

		once := false
		if len(call.Arguments) > 2 {
			if opts, isObj := call.Arguments[2].(*goja.Object); isObj {
				if v := opts.Get("once"); v != nil {
					once = v.ToBoolean()
				}
			}
		}

		eb.GetOrCreateTarget(obj).AddEventListener(eventType, callback, call.Arguments[1], once)
		if eb.onListen != nil {
			eb.onListen(obj, eventType)
		}
		return goja.Undefined()
	})

	obj.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		if target := eb.lookupTarget(obj); target != nil {
			target.RemoveEventListener(call.Arguments[0].String(), call.Arguments[1])
		}
		return goja.Undefined()
	})

	obj.Set("dispatchEvent", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute 'dispatchEvent' on 'EventTarget': 1 argument required, but only 0 present."))
		}
		event, ok := call.Arguments[0].(*goja.Object)
		if !ok {
			panic(vm.NewTypeError("Failed to execute 'dispatchEvent' on 'EventTarget': parameter 1 is not of type 'Event'."))
		}
		return vm.ToValue(eb.Dispatch(obj, event))
	})
}

// Dispatch fires event at obj.
func (eb *EventBinder) Dispatch(obj, event *goja.Object) bool {
	event.Set("target", obj)
	event.Set("currentTarget", obj)
	event.Set("eventPhase", int(EventPhaseAtTarget))

	target := eb.lookupTarget(obj)
	if target == nil {
		return true
	}
	return target.DispatchEvent(eb.runtime, obj, event)
}

// CreateEvent creates a new Event object.
func (eb *EventBinder) CreateEvent(eventType string, cancelable bool) *goja.Object {
	vm := eb.runtime.vm
	event := vm.NewObject()

	event.Set("type", eventType)
	event.Set("target", goja.Null())
	event.Set("currentTarget", goja.Null())
	event.Set("eventPhase", int(EventPhaseNone))
	event.Set("bubbles", false)
	event.Set("cancelable", cancelable)
	event.Set("defaultPrevented", false)
	event.Set("isTrusted", false)
	event.Set("timeStamp", eb.runtime.performanceNow())
	event.Set("_stopImmediate", false)

	event.Set("preventDefault", func(call goja.FunctionCall) goja.Value {
		if event.Get("cancelable").ToBoolean() {
			event.Set("defaultPrevented", true)
		}
		return goja.Undefined()
	})

	event.Set("stopPropagation", func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	})

	event.Set("stopImmediatePropagation", func(call goja.FunctionCall) goja.Value {
		event.Set("_stopImmediate", true)
		return goja.Undefined()
	})

	return event
}

// SetupEventConstructors sets up the Event constructor on the global object.
func (eb *EventBinder) SetupEventConstructors() {
	vm := eb.runtime.vm

	vm.Set("Event", func(call goja.ConstructorCall) *goja.Object {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to construct 'Event': 1 argument required, but only 0 present."))
		}
		cancelable := false
		if len(call.Arguments) > 1 {
			if opts, ok := call.Arguments[1].(*goja.Object); ok {
				if v := opts.Get("cancelable"); v != nil {
					cancelable = v.ToBoolean()
				}
			}
		}
		return eb.CreateEvent(call.Arguments[0].String(), cancelable)
	})
}

// ClearTargets clears all event target registrations.
func (eb *EventBinder) ClearTargets() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.targetMap = make(map[*goja.Object]*EventTarget)
}

// scrollEvents turns DOM scroll notifications into "scroll" events. A node
// is subscribed the first time script listens for scroll on it; scrolls are
// coalesced into one queued task per node.
type scrollEvents struct {
	events    *EventBinder
	domBinder *DOMBinder
	doc       *dom.Document
	window    *goja.Object

	subscribed map[*dom.Node]*dom.ScrollListener
	pending    map[*dom.Node]bool
}

func newScrollEvents(events *EventBinder, domBinder *DOMBinder, doc *dom.Document, window *goja.Object) *scrollEvents {
	return &scrollEvents{
		events:     events,
		domBinder:  domBinder,
		doc:        doc,
		window:     window,
		subscribed: make(map[*dom.Node]*dom.ScrollListener),
		pending:    make(map[*dom.Node]bool),
	}
}

// listen subscribes the node behind obj when eventType is scroll. Window
// listeners follow document scrolling.
func (s *scrollEvents) listen(obj *goja.Object, eventType string) {
	if eventType != "scroll" {
		return
	}
	var node *dom.Node
	if obj == s.window {
		node = s.doc.AsNode()
	} else {
		node = s.domBinder.getGoNode(obj)
	}
	if node == nil {
		return
	}
	if _, ok := s.subscribed[node]; ok {
		return
	}
	s.subscribed[node] = s.doc.AddScrollListener(node, s.queue)
}

// queue schedules one scroll task for node unless one is already pending.
func (s *scrollEvents) queue(node *dom.Node) {
	if s.pending[node] {
		return
	}
	s.pending[node] = true
	vm := s.events.runtime.vm
	task, _ := goja.AssertFunction(vm.ToValue(func(call goja.FunctionCall) goja.Value {
		delete(s.pending, node)
		s.fire(node)
		return goja.Undefined()
	}))
	s.events.runtime.eventLoop.queueMacrotask(task, nil)
}

// fire dispatches scroll at the node; document scrolls also reach window.
func (s *scrollEvents) fire(node *dom.Node) {
	event := s.events.CreateEvent("scroll", false)
	event.Set("isTrusted", true)
	s.events.Dispatch(s.domBinder.BindNode(node), event)

	if node.NodeType() == dom.DocumentNode {
		windowEvent := s.events.CreateEvent("scroll", false)
		windowEvent.Set("isTrusted", true)
		s.events.Dispatch(s.window, windowEvent)
	}
}

// close removes every DOM subscription.
func (s *scrollEvents) close() {
	for node, l := range s.subscribed {
		l.Remove()
		delete(s.subscribed, node)
	}
}
