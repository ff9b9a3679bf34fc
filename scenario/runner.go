// Package scenario runs observer scenarios headlessly on a virtual clock.
package scenario

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/chrisuehlinger/vibeobserver/config"
	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/intersection"
	"github.com/chrisuehlinger/vibeobserver/js"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// DefaultTimeout bounds the wall-clock time of one scenario.
const DefaultTimeout = 30 * time.Second

// epoch is the virtual clock reading at the start of every run.
var epoch = time.Unix(0, 0).UTC()

// Result is the outcome of one scenario run.
type Result struct {
	Name     string        `json:"name"`
	Entries  []EntryLog    `json:"entries"`
	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"` // simulated
}

// Runner runs scenarios.
type Runner struct {
	Timeout time.Duration // wall-clock limit per scenario
	Results []*Result
	logger  *zap.Logger
}

// NewRunner creates a runner logging to logger, which may be nil.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		Timeout: DefaultTimeout,
		logger:  logger,
	}
}

// RunFile loads the scenario at path and runs it.
func (r *Runner) RunFile(ctx context.Context, path string) (*Result, error) {
	sc, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if sc.Name == "" {
		sc.Name = path
	}
	return r.Run(ctx, sc)
}

// Page is a parsed scenario page: the DOM plus the parser tree XPath
// expressions are evaluated against. Elements created later by scripts are
// not reachable through XPath.
type Page struct {
	doc   *dom.Document
	tree  *html.Node
	nodes map[*html.Node]*dom.Node
}

// ParsePage parses HTML content into a Page.
func ParsePage(content string) (*Page, error) {
	tree, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	doc, nodes := dom.ConvertHTML(tree)
	return &Page{doc: doc, tree: tree, nodes: nodes}, nil
}

// Document returns the page's DOM document.
func (p *Page) Document() *dom.Document {
	return p.doc
}

// Element resolves an XPath expression to the first matching element.
func (p *Page) Element(expr string) (*dom.Element, error) {
	n, err := htmlquery.Query(p.tree, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	if n == nil {
		return nil, fmt.Errorf("xpath %q matched nothing", expr)
	}
	return p.toElement(n, expr)
}

// Elements resolves an XPath expression to every matching element.
func (p *Page) Elements(expr string) ([]*dom.Element, error) {
	matches, err := htmlquery.QueryAll(p.tree, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath %q: %w", expr, err)
	}
	out := make([]*dom.Element, 0, len(matches))
	for _, n := range matches {
		el, err := p.toElement(n, expr)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (p *Page) toElement(n *html.Node, expr string) (*dom.Element, error) {
	node, ok := p.nodes[n]
	if !ok || node.NodeType() != dom.ElementNode {
		return nil, fmt.Errorf("xpath %q does not select an element", expr)
	}
	return (*dom.Element)(node), nil
}

// ObserverOptions translates an observe block into observer options: root,
// rootMargin and thresholds. Timing, clock and scheduler are left to the
// caller.
func (p *Page) ObserverOptions(cfg *config.ObserveConfig) ([]intersection.Option, error) {
	var opts []intersection.Option
	if cfg.Root != "" {
		root, err := p.Element(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("observe root: %w", err)
		}
		opts = append(opts, intersection.WithRoot(root.AsNode()))
	}
	if cfg.RootMargin != "" {
		opts = append(opts, intersection.WithRootMargin(cfg.RootMargin))
	}
	if len(cfg.Threshold) > 0 {
		opts = append(opts, intersection.WithThresholds(cfg.Threshold...))
	}
	return opts, nil
}

// ObserveTargets observes every element the block's target expressions
// select. It returns the number of elements observed.
func (p *Page) ObserveTargets(obs *intersection.Observer, cfg *config.ObserveConfig, logger *zap.Logger) (int, error) {
	count := 0
	for _, expr := range cfg.Targets {
		targets, err := p.Elements(expr)
		if err != nil {
			return count, fmt.Errorf("observe targets: %w", err)
		}
		if len(targets) == 0 && logger != nil {
			logger.Warn("observe target matched nothing", zap.String("xpath", expr))
		}
		for _, el := range targets {
			if err := obs.Observe(el); err != nil {
				return count, fmt.Errorf("observe %s: %w", TargetName(el), err)
			}
			count++
		}
	}
	return count, nil
}

// run holds the state of one scenario run.
type run struct {
	sc       *config.Scenario
	page     *Page
	runtime  *js.Runtime
	executor *js.ScriptExecutor
	reports  *ReportBinding
	observer *intersection.Observer
	logger   *zap.Logger

	mu      sync.Mutex
	entries []EntryLog
}

// Run executes sc: it loads the page, runs the page's scripts and then the
// scenario script, applies each step at its offset and drives the event loop
// until the scenario's duration has elapsed on the virtual clock.
func (r *Runner) Run(ctx context.Context, sc *config.Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := r.logger.With(zap.String("scenario", sc.Name))

	p, err := ParsePage(sc.Page)
	if err != nil {
		return nil, err
	}
	p.doc.SetViewportSize(sc.Viewport.Width, sc.Viewport.Height)

	runtime := js.NewRuntime()
	runtime.SetClock(js.NewVirtualClock(epoch))
	runtime.SetLogger(logger.Named("js"))

	executor := js.NewScriptExecutor(runtime)
	defer executor.Cleanup()
	executor.SetupDocument(p.doc)
	executor.IntersectionObservers().SetTimings(sc.PollInterval, sc.IdleTimeout)

	reports := NewReportBinding(runtime, executor.DOMBinder())
	reports.Setup()

	rn := &run{
		sc:       sc,
		page:     p,
		runtime:  runtime,
		executor: executor,
		reports:  reports,
		logger:   logger,
	}
	defer func() {
		if rn.observer != nil {
			rn.observer.Disconnect()
		}
	}()
	if sc.Observe != nil {
		if err := rn.observe(sc.Observe); err != nil {
			return nil, err
		}
	}

	// A cancelled context stops a runaway script.
	stop := context.AfterFunc(ctx, func() {
		runtime.VM().Interrupt(context.Cause(ctx))
	})
	defer stop()

	executor.ExecuteScripts(p.doc)
	if sc.Script != "" {
		executor.ExecuteExternalScript(sc.Script, "scenario")
	}

	for i, step := range sc.Steps {
		if err := rn.advance(ctx, step.At); err != nil {
			return nil, err
		}
		if err := rn.apply(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	if err := rn.advance(ctx, sc.Duration); err != nil {
		return nil, err
	}

	result := rn.result()
	logger.Info("scenario finished",
		zap.Int("entries", len(result.Entries)),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// observe builds the Go-side observer described by cfg.
func (rn *run) observe(cfg *config.ObserveConfig) error {
	opts, err := rn.page.ObserverOptions(cfg)
	if err != nil {
		return err
	}
	opts = append(opts,
		intersection.WithScheduler(rn.runtime.Scheduler()),
		intersection.WithClock(rn.runtime.PerformanceClock()),
		intersection.WithPollInterval(rn.sc.PollInterval),
		intersection.WithIdleTimeout(rn.sc.IdleTimeout),
		intersection.WithLogger(rn.logger.Named("intersection")),
	)

	obs, err := intersection.New(rn.page.doc, rn.deliver, opts...)
	if err != nil {
		return fmt.Errorf("observe: %w", err)
	}
	rn.observer = obs

	_, err = rn.page.ObserveTargets(obs, cfg, rn.logger)
	return err
}

func (rn *run) deliver(entries []*intersection.Entry, _ *intersection.Observer) {
	rn.mu.Lock()
	defer rn.mu.Unlock()
	for _, e := range entries {
		rn.entries = append(rn.entries, entryFromObserver(e))
	}
}

// advance drives the event loop to offset, checking ctx between slices.
func (rn *run) advance(ctx context.Context, offset time.Duration) error {
	deadline := epoch.Add(offset)
	slice := rn.sc.PollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := rn.runtime.Clock().Now()
		if !now.Before(deadline) {
			break
		}
		next := now.Add(slice)
		if next.After(deadline) {
			next = deadline
		}
		rn.runtime.RunUntil(next)
	}
	// Everything due at the offset itself runs before the caller continues.
	rn.runtime.RunPending()
	return ctx.Err()
}

// apply scrolls the step's target and runs its script.
func (rn *run) apply(step config.Step) error {
	if step.Target == config.WindowTarget {
		rn.page.doc.ScrollTo(step.X, step.Y)
	} else {
		el, err := rn.page.Element(step.Target)
		if err != nil {
			return err
		}
		el.ScrollTo(step.X, step.Y)
	}
	rn.logger.Debug("step",
		zap.Duration("at", step.At),
		zap.String("target", step.Target),
		zap.Float64("x", step.X),
		zap.Float64("y", step.Y))

	if step.Script != "" {
		rn.executor.ExecuteExternalScript(step.Script, fmt.Sprintf("step@%s", step.At))
	}
	return nil
}

// result merges observer and script entries by time. Entries with equal
// times keep observer entries first.
func (rn *run) result() *Result {
	rn.mu.Lock()
	entries := append([]EntryLog(nil), rn.entries...)
	rn.mu.Unlock()
	entries = mergeByTime(entries, rn.reports.Entries())

	var errs []string
	for _, err := range rn.runtime.Errors() {
		errs = append(errs, err.Error())
	}

	return &Result{
		Name:     rn.sc.Name,
		Entries:  entries,
		Errors:   errs,
		Duration: rn.runtime.Clock().Now().Sub(epoch),
	}
}

// mergeByTime merges two time-ordered entry lists.
func mergeByTime(a, b []EntryLog) []EntryLog {
	out := make([]EntryLog, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Time < a[i].Time {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
