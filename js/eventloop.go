package js

import (
	"sync"
	"time"

	"github.com/dop251/goja"
)

// maxIdlePeriod caps IdleDeadline.timeRemaining().
const maxIdlePeriod = 50 * time.Millisecond

// task represents a queued callback in the event loop.
type task struct {
	callback goja.Callable
	args     []goja.Value
}

// idleRequest is a pending requestIdleCallback registration.
type idleRequest struct {
	id         int
	run        func(didTimeout bool, remaining time.Duration) error
	deadline   time.Time
	hasTimeout bool
}

// eventLoop manages the JavaScript event loop for microtasks, macrotasks and
// idle callbacks.
type eventLoop struct {
	microtasks []task
	macrotasks []task
	idle       []*idleRequest
	nextIdleID int
	// lastIdle is the clock reading of the last idle period. Requests made
	// during an idle period wait for the next one.
	lastIdle time.Time
	mu       sync.Mutex
}

// newEventLoop creates a new event loop.
func newEventLoop() *eventLoop {
	return &eventLoop{
		microtasks: make([]task, 0),
		macrotasks: make([]task, 0),
		nextIdleID: 1,
	}
}

// queueMicrotask adds a microtask to the queue.
// Microtasks are executed before the next macrotask.
func (el *eventLoop) queueMicrotask(callback goja.Callable, args []goja.Value) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = append(el.microtasks, task{callback: callback, args: args})
}

// queueMacrotask adds a macrotask to the queue.
// Macrotasks are executed after all microtasks are complete.
func (el *eventLoop) queueMacrotask(callback goja.Callable, args []goja.Value) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.macrotasks = append(el.macrotasks, task{callback: callback, args: args})
}

// requestIdle registers run to be called when the loop is idle, or once
// timeout has elapsed from now if timeout is positive.
func (el *eventLoop) requestIdle(run func(didTimeout bool, remaining time.Duration) error, timeout time.Duration, now time.Time) int {
	el.mu.Lock()
	defer el.mu.Unlock()

	id := el.nextIdleID
	el.nextIdleID++
	req := &idleRequest{id: id, run: run}
	if timeout > 0 {
		req.deadline = now.Add(timeout)
		req.hasTimeout = true
	}
	el.idle = append(el.idle, req)
	return id
}

// cancelIdle removes a pending idle request. Unknown IDs are ignored.
func (el *eventLoop) cancelIdle(id int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	for i, req := range el.idle {
		if req.id == id {
			el.idle = append(el.idle[:i], el.idle[i+1:]...)
			return
		}
	}
}

// step performs one unit of work: it drains microtasks, runs due timers, then
// one macrotask. When none of those had anything to do the loop is idle and
// pending idle callbacks run; otherwise only idle callbacks whose timeout has
// expired run. It reports whether anything ran.
func (el *eventLoop) step(r *Runtime) bool {
	ran := el.drainMicrotasks(r)

	if r.timers.process(r) {
		ran = true
	}

	el.mu.Lock()
	if len(el.macrotasks) > 0 {
		t := el.macrotasks[0]
		el.macrotasks = el.macrotasks[1:]
		el.mu.Unlock()

		if _, err := t.callback(goja.Undefined(), t.args...); err != nil {
			r.reportError(err)
		}
		el.drainMicrotasks(r)
		return true
	}
	el.mu.Unlock()

	idle := !ran && !r.timers.hasDue() && !r.clock.Now().Equal(el.lastIdle)
	if el.runIdle(r, idle) {
		ran = true
	}
	return ran
}

func (el *eventLoop) drainMicrotasks(r *Runtime) bool {
	ran := false
	for {
		el.mu.Lock()
		if len(el.microtasks) == 0 {
			el.mu.Unlock()
			return ran
		}
		t := el.microtasks[0]
		el.microtasks = el.microtasks[1:]
		el.mu.Unlock()

		ran = true
		if _, err := t.callback(goja.Undefined(), t.args...); err != nil {
			r.reportError(err)
		}
	}
}

// runIdle runs the idle requests that are eligible now. When idle is true all
// requests queued so far run; otherwise only those past their deadline.
func (el *eventLoop) runIdle(r *Runtime, idle bool) bool {
	now := r.clock.Now()

	el.mu.Lock()
	if idle {
		el.lastIdle = now
	}
	var ready []*idleRequest
	var timedOut []bool
	remaining := el.idle[:0:0]
	for _, req := range el.idle {
		expired := req.hasTimeout && !req.deadline.After(now)
		if idle || expired {
			ready = append(ready, req)
			timedOut = append(timedOut, expired && !idle)
		} else {
			remaining = append(remaining, req)
		}
	}
	el.idle = remaining
	el.mu.Unlock()

	budget := maxIdlePeriod
	if next, ok := r.timers.nextDue(); ok {
		if until := next.Sub(now); until < budget {
			budget = until
		}
	}
	if budget < 0 {
		budget = 0
	}

	for i, req := range ready {
		left := budget
		if timedOut[i] {
			left = 0
		}
		if err := req.run(timedOut[i], left); err != nil {
			r.reportError(err)
		}
	}
	return len(ready) > 0
}

// runOnce processes one iteration of the event loop.
// Returns true if there are more events to process.
func (el *eventLoop) runOnce(r *Runtime) bool {
	el.step(r)
	return el.hasPending() || r.timers.hasPending()
}

// nextIdleDeadline returns the earliest idle timeout.
func (el *eventLoop) nextIdleDeadline() (time.Time, bool) {
	el.mu.Lock()
	defer el.mu.Unlock()

	var next time.Time
	found := false
	for _, req := range el.idle {
		if !req.hasTimeout {
			continue
		}
		if !found || req.deadline.Before(next) {
			next = req.deadline
			found = true
		}
	}
	return next, found
}

// hasPending returns true if there are any pending tasks.
func (el *eventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.microtasks) > 0 || len(el.macrotasks) > 0 || len(el.idle) > 0
}

// clear removes all pending tasks.
func (el *eventLoop) clear() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = el.microtasks[:0]
	el.macrotasks = el.macrotasks[:0]
	el.idle = nil
}
