// Package ui provides a desktop viewer for observer scenarios using Fyne.
package ui

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/chrisuehlinger/vibeobserver/config"
	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/intersection"
	"github.com/chrisuehlinger/vibeobserver/js"
	"github.com/chrisuehlinger/vibeobserver/render"
	"github.com/chrisuehlinger/vibeobserver/scenario"
)

// defaultTargets observes every element with an id when the scenario has no
// observe block.
const defaultTargets = "//body//*[@id]"

// pumpInterval is how often the script event loop is drained.
const pumpInterval = 4 * time.Millisecond

var (
	visibleBorder = color.RGBA{0, 160, 0, 255}
	hiddenBorder  = color.RGBA{200, 0, 0, 255}
)

// Viewer shows a scenario page, lets the user scroll it and highlights the
// observed targets as entries are delivered.
type Viewer struct {
	app    fyne.App
	window fyne.Window

	scenario *config.Scenario
	page     *scenario.Page
	runtime  *js.Runtime
	executor *js.ScriptExecutor
	observer *intersection.Observer
	observe  *config.ObserveConfig
	status   *Status
	logger   *zap.Logger

	image       *canvas.Image
	scroll      *container.Scroll
	statusLabel *widget.Label
	logLabel    *widget.Label

	mu      sync.Mutex
	stopped bool
	timers  []*time.Timer
	done    chan struct{}
}

// NewViewer loads sc into a new window.
func NewViewer(sc *config.Scenario, logger *zap.Logger) (*Viewer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	page, err := scenario.ParsePage(sc.Page)
	if err != nil {
		return nil, err
	}
	doc := page.Document()
	doc.SetViewportSize(sc.Viewport.Width, sc.Viewport.Height)

	a := app.New()
	title := "vibeobserver"
	if sc.Name != "" {
		title += " - " + sc.Name
	}
	w := a.NewWindow(title)
	w.Resize(fyne.NewSize(float32(sc.Viewport.Width)+320, float32(sc.Viewport.Height)+60))

	runtime := js.NewRuntime()
	runtime.SetLogger(logger.Named("js"))
	executor := js.NewScriptExecutor(runtime)
	executor.SetupDocument(doc)
	executor.IntersectionObservers().SetTimings(sc.PollInterval, sc.IdleTimeout)

	v := &Viewer{
		app:      a,
		window:   w,
		scenario: sc,
		page:     page,
		runtime:  runtime,
		executor: executor,
		status:   NewStatus(100),
		logger:   logger,
		done:     make(chan struct{}),
	}

	v.observe = sc.Observe
	if v.observe == nil {
		v.observe = &config.ObserveConfig{Targets: []string{defaultTargets}}
	}
	opts, err := page.ObserverOptions(v.observe)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		intersection.WithScheduler(intersection.NewTimerScheduler(fyne.Do)),
		intersection.WithClock(intersection.NewSystemClock()),
		intersection.WithPollInterval(sc.PollInterval),
		intersection.WithIdleTimeout(sc.IdleTimeout),
		intersection.WithLogger(logger.Named("intersection")),
	)
	v.observer, err = intersection.New(doc, v.onEntries, opts...)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}

	v.setupUI()
	return v, nil
}

// setupUI creates the page view and the status panel.
func (v *Viewer) setupUI() {
	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillOriginal
	v.image.ScaleMode = canvas.ImageScalePixels

	v.scroll = container.NewScroll(v.image)
	v.scroll.OnScrolled = func(pos fyne.Position) {
		v.page.Document().ScrollTo(float64(pos.X), float64(pos.Y))
	}

	v.statusLabel = widget.NewLabel("")
	v.statusLabel.Wrapping = fyne.TextWrapWord
	v.logLabel = widget.NewLabel("")
	v.logLabel.TextStyle = fyne.TextStyle{Monospace: true}

	sidebar := container.NewBorder(v.statusLabel, nil, nil, nil, container.NewVScroll(v.logLabel))
	split := container.NewHSplit(v.scroll, sidebar)
	split.Offset = 0.6

	v.window.SetContent(split)
	v.window.SetOnClosed(v.stop)

	v.repaint()
	v.updateStatus()
}

// onEntries runs on the UI goroutine for every delivery.
func (v *Viewer) onEntries(entries []*intersection.Entry, _ *intersection.Observer) {
	v.status.Record(entries)
	v.repaint()
	v.updateStatus()
}

// style outlines observed targets by their last reported state.
func (v *Viewer) style(el *dom.Element) (render.BoxStyle, bool) {
	s, ok := render.DefaultStyle(el)
	if !ok {
		return s, false
	}
	if ratio, reported := v.status.Ratio(el); reported {
		s.BorderWidth = 3
		if ratio > 0 {
			s.Border = visibleBorder
		} else {
			s.Border = hiddenBorder
		}
	}
	return s, true
}

// repaint redraws the whole page.
func (v *Viewer) repaint() {
	doc := v.page.Document()
	width, height := render.PageSize(doc)
	c := render.NewCanvas(width, height)
	c.Paint(doc, v.style)

	v.image.Image = c.ToImage()
	v.image.SetMinSize(fyne.NewSize(float32(width), float32(height)))
	v.image.Refresh()
}

func (v *Viewer) updateStatus() {
	v.statusLabel.SetText(v.status.Summary())
	v.logLabel.SetText(v.status.Log())
}

// start observes the targets, runs the page scripts, starts the script
// event loop pump and schedules the scenario's steps.
func (v *Viewer) start() {
	n, err := v.page.ObserveTargets(v.observer, v.observe, v.logger)
	if err != nil {
		v.statusLabel.SetText(fmt.Sprintf("Error: %v", err))
		v.logger.Error("observe failed", zap.Error(err))
	}
	v.logger.Info("observing", zap.Int("targets", n))

	v.executor.ExecuteScripts(v.page.Document())
	if v.scenario.Script != "" {
		v.executor.ExecuteExternalScript(v.scenario.Script, "scenario")
	}

	go v.pump()

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, step := range v.scenario.Steps {
		v.timers = append(v.timers, time.AfterFunc(step.At, func() {
			fyne.Do(func() { v.applyStep(step) })
		}))
	}
}

// pump drains the script event loop on the UI goroutine until the viewer
// stops.
func (v *Viewer) pump() {
	ticker := time.NewTicker(pumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			fyne.Do(func() {
				if !v.isStopped() {
					v.runtime.RunPending()
				}
			})
		case <-v.done:
			return
		}
	}
}

// applyStep replays a scroll step. Window steps move the page view along
// with the document.
func (v *Viewer) applyStep(step config.Step) {
	if v.isStopped() {
		return
	}
	if step.Target == config.WindowTarget {
		pos := fyne.NewPos(float32(step.X), float32(step.Y))
		v.scroll.Offset = pos
		v.scroll.Refresh()
		v.page.Document().ScrollTo(step.X, step.Y)
	} else {
		el, err := v.page.Element(step.Target)
		if err != nil {
			v.logger.Warn("step target", zap.Error(err))
			return
		}
		el.ScrollTo(step.X, step.Y)
		v.repaint()
	}
	if step.Script != "" {
		v.executor.ExecuteExternalScript(step.Script, fmt.Sprintf("step@%s", step.At))
	}
}

func (v *Viewer) isStopped() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stopped
}

// stop releases the observer, timers and the script runtime.
func (v *Viewer) stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	for _, t := range v.timers {
		t.Stop()
	}
	close(v.done)
	v.mu.Unlock()

	v.observer.Disconnect()
	v.executor.Cleanup()
}

// Run shows the window and blocks until it is closed.
func (v *Viewer) Run() {
	v.start()
	v.window.ShowAndRun()
	v.stop()
}
