package js

import (
	"strconv"
	"sync"
	"time"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/intersection"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// IntersectionObserverManager tracks the observers created from script so the
// host can tune their timing and tear them down with the document.
type IntersectionObserverManager struct {
	pollInterval time.Duration
	idleTimeout  time.Duration
	observers    []*intersection.Observer
	mu           sync.Mutex
}

// NewIntersectionObserverManager creates a manager using the observer's
// default poll interval and idle timeout.
func NewIntersectionObserverManager() *IntersectionObserverManager {
	return &IntersectionObserverManager{}
}

// SetTimings overrides the poll interval and idle timeout of observers
// constructed afterwards. Zero keeps the default.
func (m *IntersectionObserverManager) SetTimings(pollInterval, idleTimeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollInterval = pollInterval
	m.idleTimeout = idleTimeout
}

// Register adds an observer to the manager.
func (m *IntersectionObserverManager) Register(obs *intersection.Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// Observers returns the observers created so far.
func (m *IntersectionObserverManager) Observers() []*intersection.Observer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*intersection.Observer, len(m.observers))
	copy(out, m.observers)
	return out
}

// DisconnectAll disconnects and forgets every observer.
func (m *IntersectionObserverManager) DisconnectAll() {
	m.mu.Lock()
	observers := m.observers
	m.observers = nil
	m.mu.Unlock()

	for _, obs := range observers {
		obs.Disconnect()
	}
}

func (m *IntersectionObserverManager) timingOptions() []intersection.Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	var opts []intersection.Option
	if m.pollInterval > 0 {
		opts = append(opts, intersection.WithPollInterval(m.pollInterval))
	}
	if m.idleTimeout > 0 {
		opts = append(opts, intersection.WithIdleTimeout(m.idleTimeout))
	}
	return opts
}

// intersectionBinding converts observer state to JavaScript values.
type intersectionBinding struct {
	vm         *goja.Runtime
	domBinder  *DOMBinder
	entryProto *goja.Object
}

// rectObject converts a Rect to a DOMRectReadOnly-like object.
func (ib *intersectionBinding) rectObject(r intersection.Rect) *goja.Object {
	obj := ib.vm.NewObject()
	obj.SetPrototype(ib.domBinder.domRectProto)
	obj.Set("x", r.Left)
	obj.Set("y", r.Top)
	obj.Set("width", r.Width)
	obj.Set("height", r.Height)
	obj.Set("top", r.Top)
	obj.Set("right", r.Right)
	obj.Set("bottom", r.Bottom)
	obj.Set("left", r.Left)
	return obj
}

// entryObject creates an IntersectionObserverEntry with read-only fields.
func (ib *intersectionBinding) entryObject(e *intersection.Entry) *goja.Object {
	vm := ib.vm
	obj := vm.NewObject()
	obj.SetPrototype(ib.entryProto)

	readOnly := func(name string, v interface{}) {
		obj.DefineDataProperty(name, vm.ToValue(v), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	readOnly("time", e.Time())
	readOnly("rootBounds", ib.rectObject(e.RootBounds()))
	readOnly("boundingClientRect", ib.rectObject(e.BoundingClientRect()))
	readOnly("intersectionRect", ib.rectObject(e.IntersectionRect()))
	readOnly("intersectionRatio", e.IntersectionRatio())
	readOnly("isIntersecting", e.IsIntersecting())
	readOnly("target", ib.domBinder.BindElement(e.Target()))
	return obj
}

func (ib *intersectionBinding) entryArray(entries []*intersection.Entry) *goja.Object {
	vals := make([]interface{}, len(entries))
	for i, e := range entries {
		vals[i] = ib.entryObject(e)
	}
	return ib.vm.NewArray(vals...)
}

// parseOptions reads the IntersectionObserverInit dictionary.
func (ib *intersectionBinding) parseOptions(arg goja.Value) []intersection.Option {
	if arg == nil || goja.IsUndefined(arg) || goja.IsNull(arg) {
		return nil
	}
	vm := ib.vm
	init := arg.ToObject(vm)
	var opts []intersection.Option

	if v := init.Get("root"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		var root *dom.Node
		if obj, ok := v.(*goja.Object); ok {
			root = ib.domBinder.getGoNode(obj)
		}
		opts = append(opts, intersection.WithRoot(root))
	}

	if v := init.Get("rootMargin"); v != nil && !goja.IsUndefined(v) {
		opts = append(opts, intersection.WithRootMargin(v.String()))
	}

	if v := init.Get("threshold"); v != nil && !goja.IsUndefined(v) {
		if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Array" {
			n := int(obj.Get("length").ToInteger())
			ratios := make([]float64, n)
			for i := 0; i < n; i++ {
				ratios[i] = obj.Get(strconv.Itoa(i)).ToFloat()
			}
			opts = append(opts, intersection.WithThresholds(ratios...))
		} else {
			opts = append(opts, intersection.WithThreshold(v.ToFloat()))
		}
	}
	return opts
}

// bindObserverMethods adds the IntersectionObserver surface to jsObserver.
func (ib *intersectionBinding) bindObserverMethods(jsObserver *goja.Object, obs *intersection.Observer) {
	vm := ib.vm

	jsObserver.DefineAccessorProperty("root", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return ib.domBinder.BindNode(obs.RootNode())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObserver.DefineAccessorProperty("rootMargin", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(obs.RootMargin())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	jsObserver.DefineAccessorProperty("thresholds", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		t := obs.Thresholds()
		if t.AnyChange() {
			return vm.ToValue(0)
		}
		ratios := t.Ratios()
		vals := make([]interface{}, len(ratios))
		for i, r := range ratios {
			vals[i] = r
		}
		return vm.NewArray(vals...)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	target := func(call goja.FunctionCall, method string) *dom.Element {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to execute '" + method + "' on 'IntersectionObserver': 1 argument required, but only 0 present."))
		}
		el := ib.domBinder.GoElement(call.Arguments[0])
		if el == nil {
			panic(vm.NewTypeError("Failed to execute '" + method + "' on 'IntersectionObserver': parameter 1 is not of type 'Element'."))
		}
		return el
	}

	jsObserver.Set("observe", func(call goja.FunctionCall) goja.Value {
		if err := obs.Observe(target(call, "observe")); err != nil {
			panic(vm.NewTypeError(err.Error()))
		}
		return goja.Undefined()
	})

	jsObserver.Set("unobserve", func(call goja.FunctionCall) goja.Value {
		obs.Unobserve(target(call, "unobserve"))
		return goja.Undefined()
	})

	jsObserver.Set("disconnect", func(call goja.FunctionCall) goja.Value {
		obs.Disconnect()
		return goja.Undefined()
	})

	jsObserver.Set("takeRecords", func(call goja.FunctionCall) goja.Value {
		return ib.entryArray(obs.TakeRecords())
	})
}

// SetupIntersectionObserver installs the IntersectionObserver and
// IntersectionObserverEntry constructors on the runtime. Observers poll doc
// through the runtime's event loop and timestamp entries with performance.now.
func SetupIntersectionObserver(runtime *Runtime, domBinder *DOMBinder, doc *dom.Document, manager *IntersectionObserverManager) {
	vm := runtime.vm

	// IntersectionObserverEntry exists for instanceof checks only
	entryProto := vm.NewObject()
	entryConstructor := vm.ToValue(func(call goja.ConstructorCall) *goja.Object {
		panic(vm.NewTypeError("Illegal constructor"))
	})
	entryConstructorObj := entryConstructor.ToObject(vm)
	entryConstructorObj.Set("prototype", entryProto)
	entryProto.Set("constructor", entryConstructorObj)
	vm.Set("IntersectionObserverEntry", entryConstructorObj)

	ib := &intersectionBinding{vm: vm, domBinder: domBinder, entryProto: entryProto}
	logger := runtime.Logger().Named("intersection")

	vm.Set("IntersectionObserver", func(call goja.ConstructorCall) *goja.Object {
		if len(call.Arguments) < 1 {
			panic(vm.NewTypeError("Failed to construct 'IntersectionObserver': 1 argument required, but only 0 present."))
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(vm.NewTypeError("Failed to construct 'IntersectionObserver': parameter 1 is not a function."))
		}

		jsObserver := call.This

		opts := []intersection.Option{
			intersection.WithScheduler(runtime.Scheduler()),
			intersection.WithClock(runtime.PerformanceClock()),
			intersection.WithLogger(logger),
		}
		if manager != nil {
			opts = append(opts, manager.timingOptions()...)
		}
		opts = append(opts, ib.parseOptions(call.Argument(1))...)

		obs, err := intersection.New(doc, func(entries []*intersection.Entry, _ *intersection.Observer) {
			if _, err := callback(jsObserver, ib.entryArray(entries), jsObserver); err != nil {
				runtime.reportError(err)
			}
		}, opts...)
		if err != nil {
			panic(vm.NewTypeError("Failed to construct 'IntersectionObserver': " + err.Error()))
		}
		logger.Debug("observer constructed",
			zap.String("root", obs.RootNode().NodeName()),
			zap.Stringer("threshold", obs.Thresholds()))

		if manager != nil {
			manager.Register(obs)
		}
		ib.bindObserverMethods(jsObserver, obs)
		return jsObserver
	})
}
