package ui

import (
	"time"

	"github.com/chrisuehlinger/vibeobserver/config"
)

const demoPage = `<!DOCTYPE html>
<html><body>
<div id="intro" style="top: 20px; left: 20px; width: 360px; height: 120px; background-color: lightblue"></div>
<div id="card-1" style="top: 400px; left: 20px; width: 170px; height: 150px; background-color: pink"></div>
<div id="card-2" style="top: 400px; left: 210px; width: 170px; height: 150px; background-color: lightgreen"></div>
<div id="feed" style="top: 700px; left: 20px; width: 360px; height: 200px; background-color: #eeeeee">
  <div id="post-1" style="top: 20px; left: 20px; width: 320px; height: 80px; background-color: orange"></div>
  <div id="post-2" style="top: 260px; left: 20px; width: 320px; height: 80px; background-color: tomato"></div>
  <div id="post-3" style="top: 500px; left: 20px; width: 320px; height: 80px; background-color: steelblue"></div>
</div>
<div id="footer" style="top: 1200px; left: 20px; width: 360px; height: 60px; background-color: gray"></div>
<script>
var feedObserver = new IntersectionObserver(function(entries) {
  entries.forEach(function(e) {
    console.log('feed', e.target.id, e.intersectionRatio);
  });
}, { root: document.getElementById('feed'), threshold: [0, 0.5, 1] });
['post-1', 'post-2', 'post-3'].forEach(function(id) {
  feedObserver.observe(document.getElementById(id));
});
</script>
</body></html>`

// DemoScenario is the scenario shown when the viewer starts without one: a
// page of cards and a scrollable feed, observed against the viewport.
func DemoScenario() *config.Scenario {
	sc, err := config.Parse([]byte(`
name: demo
viewport: {width: 400, height: 300}
observe:
  targets: ["//body/div"]
  threshold: [0, 0.25, 0.5, 0.75, 1]
`))
	if err != nil {
		panic(err)
	}
	sc.Page = demoPage
	sc.Steps = []config.Step{
		{At: 2 * time.Second, Target: config.WindowTarget, Y: 300},
		{At: 4 * time.Second, Target: "//div[@id='feed']", Y: 200},
		{At: 6 * time.Second, Target: config.WindowTarget, Y: 0},
	}
	sc.Duration = 8 * time.Second
	return sc
}
