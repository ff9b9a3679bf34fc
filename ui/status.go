package ui

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/intersection"
	"github.com/chrisuehlinger/vibeobserver/scenario"
)

// Status records observer deliveries for display: the latest ratio of every
// reported target and a bounded log of entries, newest first.
type Status struct {
	mu     sync.Mutex
	limit  int
	lines  []string
	ratios map[*dom.Element]float64
}

// NewStatus creates a status that keeps at most limit log lines.
func NewStatus(limit int) *Status {
	if limit <= 0 {
		limit = 50
	}
	return &Status{
		limit:  limit,
		ratios: make(map[*dom.Element]float64),
	}
}

// Record adds delivered entries.
func (s *Status) Record(entries []*intersection.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		s.ratios[e.Target()] = e.IntersectionRatio()
		marker := "○"
		if e.IsIntersecting() {
			marker = "●"
		}
		line := fmt.Sprintf("%s %8.1fms  %-16s %.3f", marker, e.Time(), scenario.TargetName(e.Target()), e.IntersectionRatio())
		s.lines = append([]string{line}, s.lines...)
	}
	if len(s.lines) > s.limit {
		s.lines = s.lines[:s.limit]
	}
}

// Ratio returns the last reported ratio for el.
func (s *Status) Ratio(el *dom.Element) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratios[el]
	return r, ok
}

// Visible returns the names of targets whose last entry was intersecting,
// sorted.
func (s *Status) Visible() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var names []string
	for el, r := range s.ratios {
		if r > 0 {
			names = append(names, scenario.TargetName(el))
		}
	}
	sort.Strings(names)
	return names
}

// Log returns the entry log, newest first.
func (s *Status) Log() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

// Summary is a one-line description of what is currently visible.
func (s *Status) Summary() string {
	visible := s.Visible()
	if len(visible) == 0 {
		return "No observed targets visible"
	}
	return fmt.Sprintf("%d visible: %s", len(visible), strings.Join(visible, ", "))
}
