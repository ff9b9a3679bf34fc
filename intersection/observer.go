// Package intersection emulates the IntersectionObserver API for hosts
// without native support. An Observer polls the bounding rectangles of its
// targets, intersects them with a root rectangle, and batches an Entry for
// every threshold crossing into an idle-time callback.
package intersection

import (
	"sync"
	"time"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"go.uber.org/zap"
)

// Callback receives the entries queued since the previous delivery.
type Callback func(entries []*Entry, observer *Observer)

// Observer watches targets for intersection changes against a root.
type Observer struct {
	doc        *dom.Document
	callback   Callback
	root       *dom.Element
	rootMargin string
	threshold  Threshold

	clock        Clock
	scheduler    Scheduler
	pollInterval time.Duration
	idleTimeout  time.Duration
	logger       *zap.Logger

	mu      sync.Mutex
	targets map[*dom.Element]*Entry
	order   []*dom.Element
	queue   []*Entry

	connected  bool
	generation uint64
	cancelPoll CancelFunc
	cancelIdle CancelFunc
	idleSeq    uint64
	scroll     *dom.ScrollListener
}

// New creates an observer on doc and starts polling. Without WithRoot the
// implicit root is the viewport of doc.
//
// WithScheduler is required: polls read doc, so they must run on whichever
// goroutine owns it. Use the js runtime's scheduler, or a TimerScheduler
// whose Dispatch hands work to the owning goroutine.
func New(doc *dom.Document, callback Callback, opts ...Option) (*Observer, error) {
	if callback == nil {
		return nil, &ConfigurationError{Message: "callback is not a function"}
	}
	if doc == nil {
		return nil, &ConfigurationError{Message: "document is required"}
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.scheduler == nil {
		return nil, &ConfigurationError{Message: "a scheduler is required"}
	}
	var root *dom.Element
	if o.rootSet {
		if o.root == nil || o.root.NodeType() != dom.ElementNode {
			return nil, &ConfigurationError{Message: "root is not an Element"}
		}
		root = (*dom.Element)(o.root)
	}
	o.applyDefaults()

	obs := &Observer{
		doc:          doc,
		callback:     callback,
		root:         root,
		rootMargin:   o.rootMargin,
		threshold:    o.threshold,
		clock:        o.clock,
		scheduler:    o.scheduler,
		pollInterval: o.pollInterval,
		idleTimeout:  o.idleTimeout,
		logger:       o.logger,
		targets:      make(map[*dom.Element]*Entry),
	}

	obs.mu.Lock()
	obs.connectLocked()
	obs.mu.Unlock()

	return obs, nil
}

// Root returns the explicit root element, or nil for the implicit viewport.
func (obs *Observer) Root() *dom.Element {
	return obs.root
}

// RootNode resolves the root: the explicit root element, or the document.
func (obs *Observer) RootNode() *dom.Node {
	if obs.root != nil {
		return obs.root.AsNode()
	}
	return obs.doc.AsNode()
}

// RootMargin reports the root margin. It is always ReportedRootMargin,
// whatever was configured, because margins do not affect the computation.
func (obs *Observer) RootMargin() string {
	return ReportedRootMargin
}

// ConfiguredRootMargin returns the margin passed to WithRootMargin.
func (obs *Observer) ConfiguredRootMargin() string {
	return obs.rootMargin
}

// Thresholds returns the normalized threshold.
func (obs *Observer) Thresholds() Threshold {
	return obs.threshold
}

// Targets returns the observed elements in observe order.
func (obs *Observer) Targets() []*dom.Element {
	obs.mu.Lock()
	defer obs.mu.Unlock()
	out := make([]*dom.Element, len(obs.order))
	copy(out, obs.order)
	return out
}

// Observe starts watching target. The target must be an element that
// descends from the root. Observing a watched target again is a no-op.
func (obs *Observer) Observe(target *dom.Element) error {
	if target == nil || target.AsNode().NodeType() != dom.ElementNode {
		return &TargetError{Message: "target is not an Element"}
	}
	if !obs.descendsFromRoot(target) {
		return &TargetError{Message: "target element is not a descendant of root"}
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()

	if _, ok := obs.targets[target]; ok {
		return nil
	}
	if !obs.connected {
		obs.connectLocked()
	}
	obs.targets[target] = placeholderEntry(target)
	obs.order = append(obs.order, target)
	obs.logger.Debug("observe", zap.String("target", describe(target)))
	return nil
}

// descendsFromRoot walks the ancestors of target looking for the root. The
// walk fails when it reaches the document (or a detached subtree's top)
// without meeting an explicit root.
func (obs *Observer) descendsFromRoot(target *dom.Element) bool {
	rootNode := obs.RootNode()
	for node := target.AsNode().ParentNode(); node != nil; node = node.ParentNode() {
		if node == rootNode {
			return true
		}
		if node.NodeType() == dom.DocumentNode {
			return false
		}
	}
	return false
}

// Unobserve stops watching target. Unknown targets are ignored.
func (obs *Observer) Unobserve(target *dom.Element) {
	obs.mu.Lock()
	defer obs.mu.Unlock()

	if _, ok := obs.targets[target]; !ok {
		return
	}
	delete(obs.targets, target)
	for i, t := range obs.order {
		if t == target {
			obs.order = append(obs.order[:i], obs.order[i+1:]...)
			break
		}
	}
	obs.logger.Debug("unobserve", zap.String("target", describe(target)))
}

// Disconnect stops all observation: targets and queued entries are dropped,
// and the poll timer, idle callback and scroll listener are cancelled.
// Timer or idle firings already in flight are ignored.
func (obs *Observer) Disconnect() {
	obs.mu.Lock()
	defer obs.mu.Unlock()

	obs.targets = make(map[*dom.Element]*Entry)
	obs.order = nil
	obs.queue = nil
	if !obs.connected {
		return
	}
	obs.connected = false
	obs.generation++
	if obs.cancelPoll != nil {
		obs.cancelPoll()
		obs.cancelPoll = nil
	}
	if obs.cancelIdle != nil {
		obs.cancelIdle()
		obs.cancelIdle = nil
	}
	obs.scroll.Remove()
	obs.scroll = nil
	obs.logger.Debug("disconnect")
}

// TakeRecords recomputes every target immediately, cancels any scheduled
// delivery and returns the queued entries, leaving the queue empty.
func (obs *Observer) TakeRecords() []*Entry {
	obs.mu.Lock()
	defer obs.mu.Unlock()

	obs.checkLocked()
	if obs.cancelIdle != nil {
		obs.cancelIdle()
		obs.cancelIdle = nil
	}
	records := obs.queue
	obs.queue = nil
	return records
}

// Check runs one poll cycle now, as a timer tick or scroll event would.
func (obs *Observer) Check() {
	obs.mu.Lock()
	defer obs.mu.Unlock()
	obs.checkLocked()
}

// connectLocked starts polling and binds the scroll listener on the root.
func (obs *Observer) connectLocked() {
	gen := obs.generation
	obs.connected = true
	obs.cancelPoll = obs.scheduler.SetInterval(func() { obs.tick(gen) }, obs.pollInterval)
	obs.scroll = obs.doc.AddScrollListener(obs.RootNode(), func(*dom.Node) { obs.tick(gen) })
}

// tick is a poll cycle from a timer or scroll event scheduled in generation gen.
func (obs *Observer) tick(gen uint64) {
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if gen != obs.generation || !obs.connected {
		return
	}
	obs.checkLocked()
}

// checkLocked recomputes every target and queues an entry for each crossing.
func (obs *Observer) checkLocked() {
	if len(obs.order) == 0 {
		return
	}
	rootRect := obs.rootRect()
	for _, target := range obs.order {
		targetRect := RectFromDOM(target.GetBoundingClientRect())
		inter := Intersect(rootRect, targetRect)
		ratio := Ratio(inter, targetRect)

		if !obs.crossed(obs.targets[target], ratio) {
			continue
		}
		entry := &Entry{
			time:               obs.clock.Now(),
			rootBounds:         rootRect,
			boundingClientRect: targetRect,
			intersectionRect:   inter,
			intersectionRatio:  ratio,
			target:             target,
			measured:           true,
		}
		obs.queue = append(obs.queue, entry)
		obs.targets[target] = entry
		obs.scheduleLocked()
	}
}

func (obs *Observer) crossed(prev *Entry, ratio float64) bool {
	if !prev.measured {
		return obs.threshold.Reached(ratio)
	}
	return obs.threshold.Crossed(prev.intersectionRatio, ratio)
}

// rootRect is the explicit root's bounding rectangle, or the viewport with
// its origin at 0,0.
func (obs *Observer) rootRect() Rect {
	if obs.root != nil {
		return RectFromDOM(obs.root.GetBoundingClientRect())
	}
	return NewRect(0, 0, obs.doc.ViewportWidth(), obs.doc.ViewportHeight())
}

// scheduleLocked requests delivery unless one is already pending.
func (obs *Observer) scheduleLocked() {
	if obs.cancelIdle != nil || !obs.connected {
		return
	}
	obs.idleSeq++
	seq := obs.idleSeq
	obs.cancelIdle = obs.scheduler.RequestIdleCallback(func() { obs.deliver(seq) }, obs.idleTimeout)
}

// deliver hands the queue to the callback for idle request seq. A request
// that was cancelled or superseded is ignored even if its firing was already
// in flight. The callback runs without the lock held so it may call back
// into the observer.
func (obs *Observer) deliver(seq uint64) {
	obs.mu.Lock()
	if seq != obs.idleSeq || obs.cancelIdle == nil {
		obs.mu.Unlock()
		return
	}
	obs.cancelIdle = nil
	records := obs.queue
	obs.queue = nil
	obs.mu.Unlock()

	if len(records) == 0 {
		return
	}
	obs.logger.Debug("deliver", zap.Int("entries", len(records)))
	obs.callback(records, obs)
}

func describe(el *dom.Element) string {
	if id := el.Id(); id != "" {
		return el.LocalName() + "#" + id
	}
	return el.LocalName()
}
