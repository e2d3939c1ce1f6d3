// Package filters reconciles the technical-filter selection against the
// bounds derived from the visible robot population.
package filters

import "github.com/smartconfig/configurator-engine/internal/models"

// Reconcile clamps the filter values into the given ranges and returns the
// adjusted filters plus whether anything changed:
//   - payload/reach bounds are clamped into [min,max]
//   - a pair left inverted by clamping is reset to the full range
//   - a protection rating not in the available set is cleared
//
// A reconciliation that changes nothing reports false so callers can skip
// redundant updates.
func Reconcile(f models.TechFilters, r models.Ranges) (models.TechFilters, bool) {
	changed := false

	clampF := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		c := *v
		if c < r.PayloadMin {
			c = r.PayloadMin
		}
		if c > r.PayloadMax {
			c = r.PayloadMax
		}
		if c != *v {
			changed = true
		}
		return &c
	}
	clampI := func(v *int) *int {
		if v == nil {
			return nil
		}
		c := *v
		if c < r.ReachMin {
			c = r.ReachMin
		}
		if c > r.ReachMax {
			c = r.ReachMax
		}
		if c != *v {
			changed = true
		}
		return &c
	}

	f.PayloadMin = clampF(f.PayloadMin)
	f.PayloadMax = clampF(f.PayloadMax)
	f.ReachMin = clampI(f.ReachMin)
	f.ReachMax = clampI(f.ReachMax)

	// Never leave an inverted pair behind
	if f.PayloadMin != nil && f.PayloadMax != nil && *f.PayloadMin > *f.PayloadMax {
		pmin, pmax := r.PayloadMin, r.PayloadMax
		f.PayloadMin, f.PayloadMax = &pmin, &pmax
		changed = true
	}
	if f.ReachMin != nil && f.ReachMax != nil && *f.ReachMin > *f.ReachMax {
		rmin, rmax := r.ReachMin, r.ReachMax
		f.ReachMin, f.ReachMax = &rmin, &rmax
		changed = true
	}

	if f.Protection != "" && !r.HasProtection(f.Protection) {
		f.Protection = ""
		changed = true
	}

	return f, changed
}

// ActiveCount counts the constraints that actually narrow the population.
// Payload and reach count only when tighter than the full current range;
// axes, collaborative and protection count whenever set.
func ActiveCount(f models.TechFilters, r models.Ranges) int {
	count := 0

	payloadModified := (f.PayloadMin != nil && *f.PayloadMin != r.PayloadMin) ||
		(f.PayloadMax != nil && *f.PayloadMax != r.PayloadMax)
	if payloadModified {
		count++
	}

	reachModified := (f.ReachMin != nil && *f.ReachMin != r.ReachMin) ||
		(f.ReachMax != nil && *f.ReachMax != r.ReachMax)
	if reachModified {
		count++
	}

	if f.Axes != nil {
		count++
	}
	if f.Collaborative != nil {
		count++
	}
	if f.Protection != "" {
		count++
	}

	return count
}
