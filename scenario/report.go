package scenario

import (
	"encoding/json"
	"math"
	"strconv"
	"sync"

	"github.com/chrisuehlinger/vibeobserver/dom"
	"github.com/chrisuehlinger/vibeobserver/intersection"
	"github.com/chrisuehlinger/vibeobserver/js"
	"github.com/dop251/goja"
)

// Entry sources.
const (
	SourceObserver = "observer" // the observer built from the scenario's observe block
	SourceScript   = "script"   // __report calls made by page or scenario scripts
)

// Ratio is an intersection ratio. NaN and infinities (zero-area targets)
// encode as null.
type Ratio float64

// MarshalJSON implements json.Marshaler.
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// EntryLog is one reported intersection entry.
type EntryLog struct {
	Source       string  `json:"source"`
	Label        string  `json:"label,omitempty"`
	Target       string  `json:"target"`
	Time         float64 `json:"time"`
	Ratio        Ratio   `json:"ratio"`
	Intersecting bool    `json:"isIntersecting"`
}

// entryFromObserver converts an entry delivered to a Go observer.
func entryFromObserver(e *intersection.Entry) EntryLog {
	return EntryLog{
		Source:       SourceObserver,
		Target:       TargetName(e.Target()),
		Time:         e.Time(),
		Ratio:        Ratio(e.IntersectionRatio()),
		Intersecting: e.IsIntersecting(),
	}
}

// TargetName names an element for reports: "#id" when it has an id,
// otherwise its lower-case tag name.
func TargetName(el *dom.Element) string {
	if el == nil {
		return ""
	}
	if id := el.Id(); id != "" {
		return "#" + id
	}
	return el.LocalName()
}

// ReportBinding installs the __report global scripts use to hand entries
// back to the runner: __report(entry) or __report(entry, label).
type ReportBinding struct {
	runtime   *js.Runtime
	domBinder *js.DOMBinder
	mu        sync.Mutex
	entries   []EntryLog
}

// NewReportBinding creates a report binding for the runtime.
func NewReportBinding(runtime *js.Runtime, domBinder *js.DOMBinder) *ReportBinding {
	return &ReportBinding{
		runtime:   runtime,
		domBinder: domBinder,
	}
}

// Setup installs __report. Call it before running any script that reports.
func (rb *ReportBinding) Setup() {
	vm := rb.runtime.VM()
	vm.Set("__report", func(call goja.FunctionCall) goja.Value {
		entry, ok := call.Argument(0).(*goja.Object)
		if !ok {
			panic(vm.NewTypeError("__report: argument 1 is not an IntersectionObserverEntry"))
		}
		label := ""
		if arg := call.Argument(1); !goja.IsUndefined(arg) && !goja.IsNull(arg) {
			label = arg.String()
		}
		rb.add(rb.entryFromScript(entry, label))
		return goja.Undefined()
	})
}

func (rb *ReportBinding) entryFromScript(entry *goja.Object, label string) EntryLog {
	return EntryLog{
		Source:       SourceScript,
		Label:        label,
		Target:       TargetName(rb.domBinder.GoElement(entry.Get("target"))),
		Time:         numberProperty(entry, "time"),
		Ratio:        Ratio(numberProperty(entry, "intersectionRatio")),
		Intersecting: boolProperty(entry, "isIntersecting"),
	}
}

func (rb *ReportBinding) add(e EntryLog) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.entries = append(rb.entries, e)
}

// Entries returns everything reported so far, in report order.
func (rb *ReportBinding) Entries() []EntryLog {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return append([]EntryLog(nil), rb.entries...)
}

func numberProperty(obj *goja.Object, name string) float64 {
	v := obj.Get(name)
	if v == nil {
		return math.NaN()
	}
	return v.ToFloat()
}

func boolProperty(obj *goja.Object, name string) bool {
	v := obj.Get(name)
	return v != nil && v.ToBoolean()
}

// ExportJSON encodes results as an indented JSON array.
func ExportJSON(results []*Result) ([]byte, error) {
	if results == nil {
		results = []*Result{}
	}
	return json.MarshalIndent(results, "", "  ")
}
