package intersection

import (
	"sync"
	"time"
)

// CancelFunc cancels a scheduled callback. Calling it more than once, or
// after the callback ran, is a no-op.
type CancelFunc func()

// Clock is a monotonic millisecond clock.
type Clock interface {
	Now() float64
}

// Scheduler provides the repeating timer and the idle callback the observer
// polls and delivers with. Implementations must never invoke fn synchronously
// from within SetInterval or RequestIdleCallback.
type Scheduler interface {
	// SetInterval calls fn every d until cancelled.
	SetInterval(fn func(), d time.Duration) CancelFunc
	// RequestIdleCallback calls fn once when the host is idle, and at the
	// latest after timeout.
	RequestIdleCallback(fn func(), timeout time.Duration) CancelFunc
}

// SystemClock measures milliseconds since its creation.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose origin is now.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Now implements Clock.
func (c *SystemClock) Now() float64 {
	return float64(time.Since(c.start).Nanoseconds()) / 1e6
}

// TimerScheduler runs callbacks on Go timers. Without a host event loop there
// is no notion of idleness, so idle callbacks run after a short settle delay
// bounded by their timeout.
//
// Callbacks fire on timer goroutines. When the observed document is owned by
// another goroutine, set Dispatch to marshal them onto it.
type TimerScheduler struct {
	// Dispatch runs fn on the goroutine that owns the document. Nil runs fn
	// directly on the timer goroutine.
	Dispatch func(fn func())
	// IdleDelay is how long an idle callback waits before running when the
	// timeout is longer. Defaults to 1ms.
	IdleDelay time.Duration
}

// NewTimerScheduler returns a scheduler dispatching through dispatch.
func NewTimerScheduler(dispatch func(fn func())) *TimerScheduler {
	return &TimerScheduler{Dispatch: dispatch}
}

func (s *TimerScheduler) run(fn func()) {
	if s.Dispatch != nil {
		s.Dispatch(fn)
		return
	}
	fn()
}

// SetInterval implements Scheduler.
func (s *TimerScheduler) SetInterval(fn func(), d time.Duration) CancelFunc {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.run(fn)
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// RequestIdleCallback implements Scheduler.
func (s *TimerScheduler) RequestIdleCallback(fn func(), timeout time.Duration) CancelFunc {
	delay := s.IdleDelay
	if delay <= 0 {
		delay = time.Millisecond
	}
	if timeout > 0 && timeout < delay {
		delay = timeout
	}
	timer := time.AfterFunc(delay, func() { s.run(fn) })
	return func() { timer.Stop() }
}
