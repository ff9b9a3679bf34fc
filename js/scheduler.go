package js

import (
	"time"

	"github.com/chrisuehlinger/vibeobserver/intersection"
)

// loopScheduler runs intersection observer work on the runtime's event loop,
// so polling and delivery share the goroutine that runs scripts.
type loopScheduler struct {
	r *Runtime
}

// Scheduler returns an intersection.Scheduler backed by the event loop:
// intervals are timers and idle callbacks use requestIdleCallback semantics.
func (r *Runtime) Scheduler() intersection.Scheduler {
	return loopScheduler{r: r}
}

func (s loopScheduler) SetInterval(fn func(), d time.Duration) intersection.CancelFunc {
	id := s.r.timers.setInterval(func() error {
		fn()
		return nil
	}, d)
	return func() { s.r.timers.clearTimer(id) }
}

func (s loopScheduler) RequestIdleCallback(fn func(), timeout time.Duration) intersection.CancelFunc {
	id := s.r.eventLoop.requestIdle(func(bool, time.Duration) error {
		fn()
		return nil
	}, timeout, s.r.clock.Now())
	return func() { s.r.eventLoop.cancelIdle(id) }
}

// performanceClock reads performance.now().
type performanceClock struct {
	r *Runtime
}

// PerformanceClock returns an intersection.Clock reading performance.now(),
// the time base entry timestamps are reported in.
func (r *Runtime) PerformanceClock() intersection.Clock {
	return performanceClock{r: r}
}

func (c performanceClock) Now() float64 {
	return c.r.performanceNow()
}
