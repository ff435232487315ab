package optimize

import "math"

// filterEntry is one (violation, merit) pair that blocks a region of trial
// points from being accepted.
type filterEntry struct {
	theta float64
	phi   float64
}

const (
	gammaTheta = 1e-5
	gammaPhi   = 1e-5
)

// stepFilter implements the line-search filter. A trial point is acceptable
// when it sufficiently improves either the constraint violation or the
// barrier merit relative to every stored entry.
type stepFilter struct {
	entries  []filterEntry
	maxTheta float64
}

func newStepFilter() *stepFilter {
	return &stepFilter{maxTheta: 1e4}
}

// reset clears the filter, typically after a barrier parameter update or a
// restoration pass, and rescales the violation ceiling to the current point.
func (f *stepFilter) reset(theta0 float64) {
	f.entries = f.entries[:0]
	f.maxTheta = 1e4 * math.Max(1, theta0)
}

// add inserts an entry, dropping any existing entries it dominates.
func (f *stepFilter) add(theta, phi float64) {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if !(theta <= e.theta && phi <= e.phi) {
			kept = append(kept, e)
		}
	}
	f.entries = append(kept, filterEntry{theta: theta, phi: phi})
}

func (f *stepFilter) acceptable(theta, phi float64) bool {
	if math.IsNaN(theta) || math.IsNaN(phi) || theta > f.maxTheta {
		return false
	}
	for _, e := range f.entries {
		if theta >= (1-gammaTheta)*e.theta && phi >= e.phi-gammaPhi*e.theta {
			return false
		}
	}
	return true
}
