package intersection

import (
	"time"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"go.uber.org/zap"
)

// Default timings for polling and delivery.
const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultIdleTimeout  = 100 * time.Millisecond
	DefaultRootMargin   = "0px 0px 0px 0px"

	// ReportedRootMargin is what RootMargin reports for every observer.
	ReportedRootMargin = "0"
)

type options struct {
	root         *dom.Node
	rootSet      bool
	rootMargin   string
	threshold    Threshold
	clock        Clock
	scheduler    Scheduler
	pollInterval time.Duration
	idleTimeout  time.Duration
	logger       *zap.Logger
	err          error
}

// Option configures an Observer created by New.
type Option func(*options)

// WithRoot sets the element intersections are measured against. The node
// must be an element; anything else fails construction.
func WithRoot(root *dom.Node) Option {
	return func(o *options) {
		o.root = root
		o.rootSet = true
	}
}

// WithRootMargin records a root margin. It is accepted for API compatibility
// and does not change the root rectangle.
func WithRootMargin(margin string) Option {
	return func(o *options) {
		o.rootMargin = margin
	}
}

// WithThreshold sets a scalar threshold: 0 means report on any change.
func WithThreshold(value float64) Option {
	return func(o *options) {
		t, err := ScalarThreshold(value)
		if err != nil {
			o.setErr(err)
			return
		}
		o.threshold = t
	}
}

// WithThresholds sets an explicit list of ratios, kept in the given order.
func WithThresholds(ratios ...float64) Option {
	return func(o *options) {
		t, err := ListThreshold(ratios...)
		if err != nil {
			o.setErr(err)
			return
		}
		o.threshold = t
	}
}

// WithClock sets the clock used for entry timestamps.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithScheduler sets the scheduler that drives polling and delivery. New
// fails without one.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithPollInterval sets the polling period. Defaults to 100ms.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithIdleTimeout bounds how long delivery may wait for an idle moment.
// Defaults to 100ms.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) setErr(err error) {
	if o.err == nil {
		o.err = err
	}
}

func (o *options) applyDefaults() {
	if o.rootMargin == "" {
		o.rootMargin = DefaultRootMargin
	}
	if o.clock == nil {
		o.clock = NewSystemClock()
	}
	if o.pollInterval <= 0 {
		o.pollInterval = DefaultPollInterval
	}
	if o.idleTimeout <= 0 {
		o.idleTimeout = DefaultIdleTimeout
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
}
