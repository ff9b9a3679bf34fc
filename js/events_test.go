package js

import (
	"strings"
	"testing"
)

func TestEventsWindowScroll(t *testing.T) {
	r, _, doc := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var windowScrolls = [];
		var documentScrolls = [];
		window.addEventListener('scroll', function(e) {
			windowScrolls.push(e.type + ':' + e.isTrusted + ':' + scrollY);
		});
		document.addEventListener('scroll', function(e) {
			documentScrolls.push(e.target === document);
		});
		window.scrollTo(0, 10);
		window.scrollTo(0, 20);
	`)

	// Nothing fires until the queued task runs.
	if got := evalString(t, r, "String(windowScrolls.length)"); got != "0" {
		t.Fatalf("Expected scroll events to be asynchronous, got %s", got)
	}
	r.RunPending()

	if got := evalString(t, r, "windowScrolls.join(',')"); got != "scroll:true:20" {
		t.Errorf("Expected one coalesced window scroll, got %q", got)
	}
	if got := evalString(t, r, "documentScrolls.join(',')"); got != "true" {
		t.Errorf("Expected one document scroll targeting document, got %q", got)
	}

	// Scrolls from Go reach script the same way.
	doc.ScrollTo(0, 0)
	r.RunPending()
	if got := evalString(t, r, "String(windowScrolls.length)"); got != "2" {
		t.Errorf("Expected a second window scroll, got %s", got)
	}
}

func TestEventsElementScroll(t *testing.T) {
	r, _, _ := newPage(t, `<!DOCTYPE html>
<html><body>
<div id="scroller" style="top: 0px; left: 0px; width: 50px; height: 50px">
  <div style="top: 0px; left: 0px; width: 50px; height: 500px"></div>
</div>
</body></html>`)

	mustExecute(t, r, `
		var seen = [];
		var scroller = document.getElementById('scroller');
		function onScroll(e) { seen.push(this === scroller && e.target === scroller); }
		scroller.addEventListener('scroll', onScroll);
		scroller.addEventListener('scroll', onScroll);
		scroller.scrollTop = 40;
	`)
	r.RunPending()

	if got := evalString(t, r, "seen.join(',')"); got != "true" {
		t.Errorf("Expected a single listener call, got %q", got)
	}

	mustExecute(t, r, `
		scroller.removeEventListener('scroll', onScroll);
		scroller.scrollTop = 80;
	`)
	r.RunPending()
	if got := evalString(t, r, "String(seen.length)"); got != "1" {
		t.Errorf("Removed listener should not run, got %s calls", got)
	}
}

func TestEventsDispatchEvent(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	tests := []struct {
		code     string
		expected string
	}{
		{`(function() {
			var a = document.getElementById('a');
			var calls = 0;
			a.addEventListener('ping', function() { calls++; }, { once: true });
			a.dispatchEvent(new Event('ping'));
			a.dispatchEvent(new Event('ping'));
			return String(calls);
		})()`, "1"},
		{`(function() {
			var a = document.getElementById('a');
			a.addEventListener('check', function(e) { e.preventDefault(); });
			return String(a.dispatchEvent(new Event('check', { cancelable: true })));
		})()`, "false"},
		{`(function() {
			var order = [];
			var b = document.getElementById('b');
			b.addEventListener('x', function(e) { order.push(1); e.stopImmediatePropagation(); });
			b.addEventListener('x', function() { order.push(2); });
			b.dispatchEvent(new Event('x'));
			return order.join(',');
		})()`, "1"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}
}

func TestEventsListenerErrorDoesNotStopDispatch(t *testing.T) {
	r, _, _ := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var reached = false;
		var a = document.getElementById('a');
		a.addEventListener('go', function() { throw new Error('listener failed'); });
		a.addEventListener('go', function() { reached = true; });
		a.dispatchEvent(new Event('go'));
	`)

	if got := evalString(t, r, "String(reached)"); got != "true" {
		t.Error("Second listener should run after the first throws")
	}
	if errs := r.Errors(); len(errs) != 1 || !strings.Contains(errs[0].Error(), "listener failed") {
		t.Errorf("Expected the listener error to be reported, got %v", errs)
	}
}
