// Package config loads observer scenarios from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadFile and Parse.
const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
	DefaultDuration       = time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultIdleTimeout    = 100 * time.Millisecond
)

// WindowTarget is the step target that scrolls the document viewport.
const WindowTarget = "window"

// Scenario is a page, optional script, an observer configuration and a list
// of timed scroll steps.
type Scenario struct {
	Name     string         `yaml:"name"`
	Page     string         `yaml:"page"`      // inline HTML
	PageFile string         `yaml:"page_file"` // relative to the scenario file
	Script   string         `yaml:"script"`    // runs after the page's own scripts
	Viewport Viewport       `yaml:"viewport"`
	Observe  *ObserveConfig `yaml:"observe"`
	Steps    []Step         `yaml:"steps"`

	Duration     time.Duration `yaml:"duration"`
	PollInterval time.Duration `yaml:"poll_interval"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Viewport is the size of the document viewport in CSS pixels.
type Viewport struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// ObserveConfig describes an observer created from Go. Root and Targets are
// XPath expressions; an empty Root observes against the viewport.
type ObserveConfig struct {
	Root       string    `yaml:"root"`
	Targets    []string  `yaml:"targets"`
	RootMargin string    `yaml:"root_margin"`
	Threshold  []float64 `yaml:"threshold"` // empty: report any change
}

// Step scrolls Target to (X, Y) at offset At from the start of the run, then
// runs Script if set.
type Step struct {
	At     time.Duration `yaml:"at"`
	Target string        `yaml:"target"` // "window" or an XPath expression
	X      float64       `yaml:"x"`
	Y      float64       `yaml:"y"`
	Script string        `yaml:"script"`
}

// LoadFile reads a YAML scenario file. A page_file is resolved relative to
// the scenario's directory and loaded into Page.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if sc.PageFile != "" && sc.Page == "" {
		pagePath := sc.PageFile
		if !filepath.IsAbs(pagePath) {
			pagePath = filepath.Join(filepath.Dir(path), pagePath)
		}
		page, err := os.ReadFile(pagePath)
		if err != nil {
			return nil, fmt.Errorf("load page: %w", err)
		}
		sc.Page = string(page)
	}

	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes a scenario and applies defaults. It does not load page_file.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	sc.applyDefaults()
	return &sc, nil
}

func (s *Scenario) applyDefaults() {
	if s.Viewport.Width <= 0 {
		s.Viewport.Width = DefaultViewportWidth
	}
	if s.Viewport.Height <= 0 {
		s.Viewport.Height = DefaultViewportHeight
	}
	if s.Duration <= 0 {
		s.Duration = DefaultDuration
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	for i := range s.Steps {
		if s.Steps[i].Target == "" {
			s.Steps[i].Target = WindowTarget
		}
	}
	sort.SliceStable(s.Steps, func(i, j int) bool {
		return s.Steps[i].At < s.Steps[j].At
	})
}

// Validate reports a scenario that cannot run.
func (s *Scenario) Validate() error {
	if s.Page == "" {
		return errors.New("scenario has no page")
	}
	if s.Observe != nil && len(s.Observe.Targets) == 0 {
		return errors.New("observe block has no targets")
	}
	for i, step := range s.Steps {
		if step.At < 0 {
			return fmt.Errorf("step %d: negative offset %s", i, step.At)
		}
		if step.At > s.Duration {
			return fmt.Errorf("step %d: offset %s is after the end of the run (%s)", i, step.At, s.Duration)
		}
	}
	return nil
}
