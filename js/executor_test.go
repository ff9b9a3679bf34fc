package js

import (
	"testing"
	"time"

	"github.com/chrisuehlinger/vibeobserver/dom"
)

func TestScriptExecutorBasic(t *testing.T) {
	r, se, doc := newPage(t, `<!DOCTYPE html>
<html>
<head></head>
<body>
<div id="test">Hello</div>
<script>
var el = document.getElementById("test");
el.setAttribute("data-modified", "true");
</script>
</body>
</html>`)

	errs := se.ExecuteScripts(doc)
	if len(errs) > 0 {
		t.Fatalf("Script execution errors: %v", errs)
	}

	if got := doc.GetElementById("test").GetAttribute("data-modified"); got != "true" {
		t.Errorf("Expected data-modified='true', got %q", got)
	}
	if se.Runtime() != r {
		t.Error("Runtime() should return the executor's runtime")
	}
}

func TestScriptExecutorNonJSScripts(t *testing.T) {
	_, se, doc := newPage(t, `<!DOCTYPE html>
<html><body>
<script type="text/template">this is not javascript {{</script>
<script type="application/json">{"a": 1}</script>
<script src="external.js"></script>
<script>   </script>
</body></html>`)

	if errs := se.ExecuteScripts(doc); len(errs) != 0 {
		t.Errorf("Expected non-JS, external and empty scripts to be skipped, got %v", errs)
	}
}

func TestScriptExecutorErrorRecovery(t *testing.T) {
	r, se, doc := newPage(t, `<!DOCTYPE html>
<html><body>
<script id="broken">undefinedFunction();</script>
<script>var secondRan = true;</script>
</body></html>`)

	errs := se.ExecuteScripts(doc)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errs), errs)
	}
	if got := evalString(t, r, "String(secondRan)"); got != "true" {
		t.Error("Second script should run after the first fails")
	}
}

func TestScriptExecutorExternalScript(t *testing.T) {
	r, se, _ := newPage(t, boxesHTML)

	if err := se.ExecuteExternalScript("var external = document.getElementById('a').id;", "https://example.test/a.js"); err != nil {
		t.Fatalf("ExecuteExternalScript failed: %v", err)
	}
	if got := evalString(t, r, "external"); got != "a" {
		t.Errorf("Expected 'a', got %q", got)
	}
	if err := se.ExecuteExternalScript("  ", "empty.js"); err != nil {
		t.Errorf("Empty external script should be a no-op, got %v", err)
	}
}

func TestScriptExecutorWindowViewport(t *testing.T) {
	r, _, doc := newPage(t, `<!DOCTYPE html>
<html><body>
<div id="box" style="top: 200px; left: 0px; width: 10px; height: 10px"></div>
</body></html>`)
	doc.SetViewportSize(320, 240)

	mustExecute(t, r, "window.scrollTo(0, 150); scrollBy({ top: 20 });")

	tests := []struct {
		code     string
		expected string
	}{
		{"String(innerWidth)", "320"},
		{"String(window.innerHeight)", "240"},
		{"String(scrollY)", "170"},
		{"String(window.pageYOffset)", "170"},
		{"String(scrollX)", "0"},
		{"String(document.getElementById('box').getBoundingClientRect().top)", "30"},
	}
	for _, tt := range tests {
		if got := evalString(t, r, tt.code); got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.code, tt.expected, got)
		}
	}
	if doc.ScrollY() != 170 {
		t.Errorf("Expected document scrollY 170, got %v", doc.ScrollY())
	}
}

func TestScriptExecutorObserverScript(t *testing.T) {
	r, se, doc := newPage(t, `<!DOCTYPE html>
<html><body>
<div id="hero" style="top: 0px; left: 0px; width: 100px; height: 100px"></div>
<div id="footer" style="top: 900px; left: 0px; width: 100px; height: 100px"></div>
<script>
var seen = [];
var io = new IntersectionObserver(function(entries) {
	entries.forEach(function(e) {
		seen.push(e.target.id + ":" + e.isIntersecting);
	});
});
io.observe(document.getElementById('hero'));
io.observe(document.getElementById('footer'));
setTimeout(function() { window.scrollTo(0, 850); }, 250);
</script>
</body></html>`)
	doc.SetViewportSize(200, 200)

	if errs := se.ExecuteScripts(doc); len(errs) != 0 {
		t.Fatalf("Script execution errors: %v", errs)
	}
	se.RunFor(400 * time.Millisecond)

	// Both targets are reported on the first poll, the footer as hidden.
	want := "hero:true,footer:false,hero:false,footer:true"
	if got := evalString(t, r, "seen.join(',')"); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestScriptExecutorSetupDocumentReplacesObservers(t *testing.T) {
	r, se, _ := newPage(t, boxesHTML)

	mustExecute(t, r, `
		var io = new IntersectionObserver(function() {});
		io.observe(document.getElementById('a'));
	`)
	if len(se.IntersectionObservers().Observers()) != 1 {
		t.Fatal("Expected one observer")
	}

	next, err := dom.ParseHTML(`<html><body><div id="z"></div></body></html>`)
	if err != nil {
		t.Fatalf("ParseHTML failed: %v", err)
	}
	se.SetupDocument(next)

	if len(se.IntersectionObservers().Observers()) != 0 {
		t.Error("Binding a new document should disconnect the old observers")
	}
	if got := evalString(t, r, "document.getElementById('z').id"); got != "z" {
		t.Errorf("Expected the new document to be bound, got %q", got)
	}
}
