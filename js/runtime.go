// Package js provides JavaScript execution capabilities for the observer host.
// It uses the goja JavaScript engine (pure Go ES5.1+ implementation).
package js

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// Runtime wraps a goja JavaScript runtime with browser-specific functionality.
type Runtime struct {
	vm        *goja.Runtime
	document  *goja.Object
	window    *goja.Object
	console   *goja.Object
	timers    *timerManager
	eventLoop *eventLoop
	clock     Clock
	origin    time.Time
	logger    *zap.Logger
	mu        sync.Mutex

	errMu   sync.Mutex
	errors  []error
	onError func(error)
}

// NewRuntime creates a new JavaScript runtime on the system clock.
func NewRuntime() *Runtime {
	vm := goja.New()
	clock := systemClock{}

	r := &Runtime{
		vm:        vm,
		timers:    newTimerManager(clock),
		eventLoop: newEventLoop(),
		clock:     clock,
		origin:    clock.Now(),
		logger:    zap.NewNop(),
		errors:    make([]error, 0),
	}

	// Set up global objects
	r.setupConsole()
	r.setupTimers()
	r.setupWindow()

	return r
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// SetDocument sets the document object for this runtime.
func (r *Runtime) SetDocument(doc *goja.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.document = doc
	r.vm.Set("document", doc)
}

// SetLogger routes console output and runtime diagnostics to l.
func (r *Runtime) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	r.logger = l
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.logger
}

// SetClock replaces the time source. performance.now() restarts at zero.
// Call it before scheduling any timers.
func (r *Runtime) SetClock(c Clock) {
	r.clock = c
	r.origin = c.Now()
	r.timers.setClock(c)
}

// Clock returns the runtime clock.
func (r *Runtime) Clock() Clock {
	return r.clock
}

// SetOnError sets a callback for JavaScript errors.
func (r *Runtime) SetOnError(handler func(error)) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.onError = handler
}

// Execute runs JavaScript code and returns the result.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/runtime
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.reportError(err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.reportError(err)
	}
	return result, err
}

// ExecuteScript runs JavaScript code from a script element. Errors are
// recorded and returned but do not affect later scripts.
func (r *Runtime) ExecuteScript(code, src string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script compilation panic in %s: %v", src, p)
			r.reportError(err)
		}
	}()

	program, err := goja.Compile(src, code, false)
	if err != nil {
		r.reportError(err)
		return err
	}

	_, err = r.vm.RunProgram(program)
	if err != nil {
		r.reportError(err)
	}
	return err
}

// reportError records an error raised by a script or a callback.
func (r *Runtime) reportError(err error) {
	r.errMu.Lock()
	r.errors = append(r.errors, err)
	handler := r.onError
	r.errMu.Unlock()

	r.logger.Warn("script error", zap.Error(err))
	if handler != nil {
		handler(err)
	}
}

// Errors returns all errors that occurred during execution.
func (r *Runtime) Errors() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return append([]error{}, r.errors...)
}

// ClearErrors clears the error list.
func (r *Runtime) ClearErrors() {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errors = r.errors[:0]
}

// RunEventLoop processes one iteration of the event loop.
// Returns true if there are more events to process.
func (r *Runtime) RunEventLoop() bool {
	return r.eventLoop.runOnce(r)
}

// ProcessTimers checks and executes any due timers.
func (r *Runtime) ProcessTimers() {
	r.timers.process(r)
}

// HasPendingWork returns true if there are timers or callbacks waiting.
func (r *Runtime) HasPendingWork() bool {
	return r.timers.hasPending() || r.eventLoop.hasPending()
}

// RunPending runs everything that is ready at the current clock reading,
// including one idle period.
func (r *Runtime) RunPending() {
	for r.eventLoop.step(r) {
	}
}

// RunFor drives the event loop for d of clock time.
func (r *Runtime) RunFor(d time.Duration) {
	r.RunUntil(r.clock.Now().Add(d))
}

// RunUntil drives the event loop until the clock reaches deadline. A
// VirtualClock jumps from one wakeup to the next; any other clock is waited
// on in real time.
func (r *Runtime) RunUntil(deadline time.Time) {
	for {
		r.RunPending()
		now := r.clock.Now()
		if !now.Before(deadline) {
			return
		}
		next := deadline
		if t, ok := r.nextWakeup(); ok && t.Before(next) {
			next = t
		}
		if !next.After(now) {
			next = now.Add(time.Millisecond)
		}
		r.advanceTo(next)
	}
}

// nextWakeup returns the earliest timer or idle deadline.
func (r *Runtime) nextWakeup() (time.Time, bool) {
	next, ok := r.timers.nextDue()
	if idle, idleOK := r.eventLoop.nextIdleDeadline(); idleOK && (!ok || idle.Before(next)) {
		next, ok = idle, true
	}
	return next, ok
}

func (r *Runtime) advanceTo(t time.Time) {
	if vc, ok := r.clock.(*VirtualClock); ok {
		vc.Set(t)
		return
	}
	if d := t.Sub(r.clock.Now()); d > 0 {
		time.Sleep(d)
	}
}

// performanceNow returns milliseconds since the runtime's time origin.
func (r *Runtime) performanceNow() float64 {
	return float64(r.clock.Now().Sub(r.origin).Nanoseconds()) / 1e6
}

// callbackRunner adapts a JS callable to a timer body.
func callbackRunner(callback goja.Callable, args []goja.Value) func() error {
	return func() error {
		_, err := callback(goja.Undefined(), args...)
		return err
	}
}

// setupConsole creates the console object. Output goes to the runtime logger.
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()

	logAt := func(level string) func(call goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			msg := formatArgs(call.Arguments)
			field := zap.String("message", msg)
			switch level {
			case "warn":
				r.logger.Warn("console."+level, field)
			case "error":
				r.logger.Error("console."+level, field)
			case "debug", "trace":
				r.logger.Debug("console."+level, field)
			default:
				r.logger.Info("console."+level, field)
			}
			return goja.Undefined()
		}
	}
	for _, level := range []string{"log", "info", "warn", "error", "debug", "trace"} {
		console.Set(level, logAt(level))
	}

	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			msg := "Assertion failed"
			if len(call.Arguments) > 1 {
				msg = formatArgs(call.Arguments[1:])
			}
			r.logger.Error("console.assert", zap.String("message", msg))
		}
		return goja.Undefined()
	})

	counts := make(map[string]int)
	console.Set("count", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		counts[label]++
		r.logger.Info("console.count", zap.String("label", label), zap.Int("count", counts[label]))
		return goja.Undefined()
	})

	console.Set("countReset", func(call goja.FunctionCall) goja.Value {
		delete(counts, labelArg(call))
		return goja.Undefined()
	})

	times := make(map[string]time.Time)
	console.Set("time", func(call goja.FunctionCall) goja.Value {
		times[labelArg(call)] = r.clock.Now()
		return goja.Undefined()
	})

	console.Set("timeEnd", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		if start, ok := times[label]; ok {
			r.logger.Info("console.timeEnd", zap.String("label", label), zap.Duration("elapsed", r.clock.Now().Sub(start)))
			delete(times, label)
		}
		return goja.Undefined()
	})

	r.console = console
	r.vm.Set("console", console)
}

func labelArg(call goja.FunctionCall) string {
	if len(call.Arguments) > 0 && !goja.IsUndefined(call.Arguments[0]) {
		return call.Arguments[0].String()
	}
	return "default"
}

// setupTimers creates setTimeout, setInterval, their clear functions,
// requestAnimationFrame and requestIdleCallback.
func (r *Runtime) setupTimers() {
	schedule := func(repeat bool) func(call goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return goja.Undefined()
			}
			callback, ok := goja.AssertFunction(call.Arguments[0])
			if !ok {
				return goja.Undefined()
			}

			delay := int64(0)
			if len(call.Arguments) > 1 {
				delay = call.Arguments[1].ToInteger()
			}

			// Additional arguments are passed to the callback
			var args []goja.Value
			if len(call.Arguments) > 2 {
				args = call.Arguments[2:]
			}

			d := time.Duration(delay) * time.Millisecond
			if repeat {
				return r.vm.ToValue(r.timers.setInterval(callbackRunner(callback, args), d))
			}
			return r.vm.ToValue(r.timers.setTimeout(callbackRunner(callback, args), d))
		}
	}
	r.vm.Set("setTimeout", schedule(false))
	r.vm.Set("setInterval", schedule(true))

	clearTimer := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		r.timers.clearTimer(int(call.Arguments[0].ToInteger()))
		return goja.Undefined()
	}
	r.vm.Set("clearTimeout", clearTimer)
	r.vm.Set("clearInterval", clearTimer)

	// requestAnimationFrame approximates 60fps with a 16ms timeout
	r.vm.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}
		id := r.timers.setTimeout(func() error {
			_, err := callback(goja.Undefined(), r.vm.ToValue(r.performanceNow()))
			return err
		}, 16*time.Millisecond)
		return r.vm.ToValue(id)
	})
	r.vm.Set("cancelAnimationFrame", clearTimer)

	// requestIdleCallback(callback, {timeout})
	r.vm.Set("requestIdleCallback", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.NewTypeError("Failed to execute 'requestIdleCallback' on 'Window': 1 argument required, but only 0 present."))
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(r.vm.NewTypeError("Failed to execute 'requestIdleCallback' on 'Window': The callback provided as parameter 1 is not a function."))
		}
		var timeout time.Duration
		if len(call.Arguments) > 1 && !goja.IsUndefined(call.Arguments[1]) && !goja.IsNull(call.Arguments[1]) {
			if v := call.Arguments[1].ToObject(r.vm).Get("timeout"); v != nil && !goja.IsUndefined(v) {
				timeout = time.Duration(v.ToInteger()) * time.Millisecond
			}
		}
		id := r.eventLoop.requestIdle(func(didTimeout bool, remaining time.Duration) error {
			_, err := callback(goja.Undefined(), r.newIdleDeadline(didTimeout, remaining))
			return err
		}, timeout, r.clock.Now())
		return r.vm.ToValue(id)
	})

	r.vm.Set("cancelIdleCallback", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		r.eventLoop.cancelIdle(int(call.Arguments[0].ToInteger()))
		return goja.Undefined()
	})
}

// newIdleDeadline creates the IdleDeadline passed to idle callbacks.
func (r *Runtime) newIdleDeadline(didTimeout bool, remaining time.Duration) *goja.Object {
	deadline := r.vm.NewObject()
	deadline.Set("didTimeout", didTimeout)
	start := r.clock.Now()
	deadline.Set("timeRemaining", func(call goja.FunctionCall) goja.Value {
		left := remaining - r.clock.Now().Sub(start)
		if left < 0 {
			left = 0
		}
		return r.vm.ToValue(float64(left.Nanoseconds()) / 1e6)
	})
	return deadline
}

// setupWindow creates a basic window object.
func (r *Runtime) setupWindow() {
	// The global object doubles as window/self/globalThis so properties set
	// on window are visible globally.
	window := r.vm.GlobalObject()

	r.vm.Set("window", window)
	r.vm.Set("self", window)
	r.vm.Set("globalThis", window)

	navigator := r.vm.NewObject()
	navigator.Set("userAgent", "vibeobserver/1.0")
	navigator.Set("language", "en-US")
	navigator.Set("platform", "vibeobserver")
	window.Set("navigator", navigator)

	window.Set("parent", window)
	window.Set("top", window)
	window.Set("frameElement", goja.Null())

	// Replaced by live accessors once a document is bound
	window.Set("innerWidth", 1024)
	window.Set("innerHeight", 768)
	window.Set("devicePixelRatio", 1.0)

	window.Set("alert", func(call goja.FunctionCall) goja.Value {
		r.logger.Info("window.alert", zap.String("message", formatArgs(call.Arguments)))
		return goja.Undefined()
	})

	performance := r.vm.NewObject()
	performance.Set("now", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(r.performanceNow())
	})
	performance.DefineAccessorProperty("timeOrigin", r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(float64(r.origin.UnixNano()) / 1e6)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	window.Set("performance", performance)

	r.vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}
		r.eventLoop.queueMicrotask(callback, nil)
		return goja.Undefined()
	})

	r.window = window
}

// formatArgs formats function call arguments for console output.
func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

// formatValue formats a single value for output.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
