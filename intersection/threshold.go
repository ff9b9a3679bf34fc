package intersection

import (
	"fmt"
	"math"
)

// Threshold is the set of ratios at which an observer reports. The zero value
// is the "report on any change" sentinel.
type Threshold struct {
	ratios   []float64
	explicit bool
}

// AnyChange is the sentinel threshold: every change of ratio is reported.
var AnyChange = Threshold{}

// ScalarThreshold normalizes a single threshold value: 0 is the any-change
// sentinel, any other value becomes a one-element list.
func ScalarThreshold(value float64) (Threshold, error) {
	if value == 0 {
		return AnyChange, nil
	}
	return ListThreshold(value)
}

// ListThreshold keeps the ratios in the order given. Every ratio must lie in
// [0, 1].
func ListThreshold(ratios ...float64) (Threshold, error) {
	for _, r := range ratios {
		if math.IsNaN(r) || r < 0 || r > 1 {
			return Threshold{}, &ConfigurationError{
				Message: fmt.Sprintf("threshold values must be numbers between 0 and 1, got %v", r),
			}
		}
	}
	copied := make([]float64, len(ratios))
	copy(copied, ratios)
	return Threshold{ratios: copied, explicit: true}, nil
}

// AnyChange reports whether t is the any-change sentinel.
func (t Threshold) AnyChange() bool {
	return !t.explicit
}

// Ratios returns a copy of the explicit ratios, or nil for the sentinel.
func (t Threshold) Ratios() []float64 {
	if !t.explicit {
		return nil
	}
	out := make([]float64, len(t.ratios))
	copy(out, t.ratios)
	return out
}

// Crossed reports whether moving from oldRatio to newRatio crosses t.
// For the sentinel any change counts; two NaN ratios are unchanged.
// For explicit ratios the vector of (ratio >= threshold) must differ.
func (t Threshold) Crossed(oldRatio, newRatio float64) bool {
	if !t.explicit {
		if math.IsNaN(oldRatio) && math.IsNaN(newRatio) {
			return false
		}
		return oldRatio != newRatio
	}
	for _, r := range t.ratios {
		if (r <= oldRatio) != (r <= newRatio) {
			return true
		}
	}
	return false
}

// Reached reports whether the first measurement of a target, at newRatio,
// crosses t. There is no previous ratio, so the sentinel always reports and
// explicit ratios report once newRatio reaches one of them.
func (t Threshold) Reached(newRatio float64) bool {
	if !t.explicit {
		return true
	}
	for _, r := range t.ratios {
		if r <= newRatio {
			return true
		}
	}
	return false
}

func (t Threshold) String() string {
	if !t.explicit {
		return "0"
	}
	return fmt.Sprint(t.ratios)
}
