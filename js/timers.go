package js

import (
	"sort"
	"sync"
	"time"
)

// minInterval is the clamp applied to repeating timers and to timeouts nested
// deeper than maxNesting.
const (
	minInterval = 4 * time.Millisecond
	maxNesting  = 5
)

// timer represents a scheduled timer (setTimeout or setInterval).
type timer struct {
	id       int
	run      func() error
	dueTime  time.Time
	interval time.Duration // 0 for setTimeout, >0 for setInterval
	nesting  int
	cleared  bool
}

// timerManager manages setTimeout and setInterval timers.
type timerManager struct {
	timers map[int]*timer
	nextID int
	clock  Clock
	// nesting is the nesting level of the timer currently running.
	nesting int
	mu      sync.Mutex
}

// newTimerManager creates a new timer manager reading time from clock.
func newTimerManager(clock Clock) *timerManager {
	return &timerManager{
		timers: make(map[int]*timer),
		nextID: 1,
		clock:  clock,
	}
}

func (tm *timerManager) setClock(clock Clock) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.clock = clock
}

// setTimeout schedules a one-time callback.
func (tm *timerManager) setTimeout(run func() error, delay time.Duration) int {
	return tm.add(run, delay, 0)
}

// setInterval schedules a recurring callback.
func (tm *timerManager) setInterval(run func() error, interval time.Duration) int {
	if interval < minInterval {
		interval = minInterval
	}
	return tm.add(run, interval, interval)
}

func (tm *timerManager) add(run func() error, delay, interval time.Duration) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if delay < 0 {
		delay = 0
	}
	level := tm.nesting + 1
	if level > maxNesting && delay < minInterval {
		delay = minInterval
	}
	id := tm.nextID
	tm.nextID++

	tm.timers[id] = &timer{
		id:       id,
		run:      run,
		dueTime:  tm.clock.Now().Add(delay),
		interval: interval,
		nesting:  level,
	}
	return id
}

// clearTimer clears a timer by ID.
func (tm *timerManager) clearTimer(id int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if t, ok := tm.timers[id]; ok {
		t.cleared = true
		delete(tm.timers, id)
	}
}

// due returns the timers due now, earliest first and by ID on ties.
func (tm *timerManager) due() []*timer {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.clock.Now()
	var dueTimers []*timer
	for _, t := range tm.timers {
		if !t.cleared && !t.dueTime.After(now) {
			dueTimers = append(dueTimers, t)
		}
	}
	sort.Slice(dueTimers, func(i, j int) bool {
		if dueTimers[i].dueTime.Equal(dueTimers[j].dueTime) {
			return dueTimers[i].id < dueTimers[j].id
		}
		return dueTimers[i].dueTime.Before(dueTimers[j].dueTime)
	})
	return dueTimers
}

// process executes every due timer and reports whether any ran.
func (tm *timerManager) process(r *Runtime) bool {
	dueTimers := tm.due()

	// Execute due timers outside the lock
	ran := false
	for _, t := range dueTimers {
		if t.cleared {
			continue
		}
		ran = true

		tm.mu.Lock()
		tm.nesting = t.nesting
		tm.mu.Unlock()

		if err := t.run(); err != nil {
			r.reportError(err)
		}

		tm.mu.Lock()
		tm.nesting = 0
		if t.interval > 0 && !t.cleared {
			t.dueTime = tm.clock.Now().Add(t.interval)
		} else {
			delete(tm.timers, t.id)
		}
		tm.mu.Unlock()
	}
	return ran
}

// hasPending returns true if there are any pending timers.
func (tm *timerManager) hasPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.timers) > 0
}

// hasDue reports whether a timer is due now.
func (tm *timerManager) hasDue() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	now := tm.clock.Now()
	for _, t := range tm.timers {
		if !t.cleared && !t.dueTime.After(now) {
			return true
		}
	}
	return false
}

// nextDue returns the earliest due time of any pending timer.
func (tm *timerManager) nextDue() (time.Time, bool) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var next time.Time
	found := false
	for _, t := range tm.timers {
		if t.cleared {
			continue
		}
		if !found || t.dueTime.Before(next) {
			next = t.dueTime
			found = true
		}
	}
	return next, found
}

// clear drops every timer.
func (tm *timerManager) clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for _, t := range tm.timers {
		t.cleared = true
	}
	tm.timers = make(map[int]*timer)
}
