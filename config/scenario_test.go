package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseDefaults(t *testing.T) {
	sc, err := Parse([]byte(`
page: "<html><body></body></html>"
steps:
  - at: 300ms
    y: 50
  - at: 100ms
    target: //div[@id='list']
    y: 10
`))
	if err != nil {
		t.Fatal(err)
	}

	if sc.Viewport.Width != DefaultViewportWidth || sc.Viewport.Height != DefaultViewportHeight {
		t.Errorf("Viewport = %+v", sc.Viewport)
	}
	if sc.Duration != time.Second {
		t.Errorf("Duration = %s", sc.Duration)
	}
	if sc.PollInterval != 100*time.Millisecond || sc.IdleTimeout != 100*time.Millisecond {
		t.Errorf("PollInterval = %s, IdleTimeout = %s", sc.PollInterval, sc.IdleTimeout)
	}
	if len(sc.Steps) != 2 {
		t.Fatalf("Steps len = %d", len(sc.Steps))
	}
	if sc.Steps[0].At != 100*time.Millisecond || sc.Steps[0].Target != "//div[@id='list']" {
		t.Errorf("Steps should be sorted by offset, got %+v", sc.Steps[0])
	}
	if sc.Steps[1].Target != WindowTarget {
		t.Errorf("Step target should default to window, got %q", sc.Steps[1].Target)
	}
}

func TestParseExplicitValues(t *testing.T) {
	sc, err := Parse([]byte(`
name: lazy images
page: "<html></html>"
viewport:
  width: 320
  height: 480
duration: 2s
poll_interval: 50ms
idle_timeout: 20ms
observe:
  root: //div[@id='feed']
  targets: ["//img"]
  root_margin: 10px
  threshold: [0, 0.5, 1]
`))
	if err != nil {
		t.Fatal(err)
	}

	if sc.Name != "lazy images" {
		t.Errorf("Name = %q", sc.Name)
	}
	if sc.Viewport.Width != 320 || sc.Viewport.Height != 480 {
		t.Errorf("Viewport = %+v", sc.Viewport)
	}
	if sc.Duration != 2*time.Second || sc.PollInterval != 50*time.Millisecond || sc.IdleTimeout != 20*time.Millisecond {
		t.Errorf("timings = %s %s %s", sc.Duration, sc.PollInterval, sc.IdleTimeout)
	}
	if sc.Observe == nil {
		t.Fatal("Observe should be set")
	}
	if sc.Observe.Root != "//div[@id='feed']" || sc.Observe.RootMargin != "10px" {
		t.Errorf("Observe = %+v", sc.Observe)
	}
	if len(sc.Observe.Threshold) != 3 || sc.Observe.Threshold[1] != 0.5 {
		t.Errorf("Threshold = %v", sc.Observe.Threshold)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("steps: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFileResolvesPageFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html><body><div id="x"></div></body></html>`)
	path := writeFile(t, dir, "scenario.yaml", "page_file: page.html\n")

	sc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sc.Page, `id="x"`) {
		t.Errorf("Page = %q", sc.Page)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no page", "name: empty\n", "no page"},
		{"missing page file", "page_file: nowhere.html\n", "load page"},
		{"observe without targets", "page: '<html></html>'\nobserve:\n  root: //body\n", "no targets"},
		{"step after end", "page: '<html></html>'\nduration: 100ms\nsteps:\n  - at: 200ms\n", "after the end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadFile error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := LoadFile(filepath.Join(dir, "absent.yaml")); err == nil {
		t.Error("expected error for a missing scenario file")
	}
}
