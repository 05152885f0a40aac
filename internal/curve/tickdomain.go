// Package curve converts a simulated outcome map into a tick-aligned
// loss-exceedance curve, aligns several curves onto a shared tick
// domain, and extracts the standard quantile set.
package curve

import (
	"sort"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
)

// tickEpsilon is the deduplication tolerance for tick domains.
const tickEpsilon = 1e-9

// StandardTicks is the default tick domain used when a caller does not
// supply one.
var StandardTicks = []float64{0.99, 0.95, 0.90, 0.80, 0.70, 0.60, 0.50, 0.40, 0.30, 0.20, 0.10, 0.05, 0.01}

// TickDomain is a sorted-descending, deduplicated vector of exceedance
// probabilities in (0,1).
type TickDomain struct {
	ticks []float64
}

// NewTickDomain validates and builds a TickDomain from an arbitrary
// (unordered, possibly duplicated) set of candidate ticks. Every tick
// must lie strictly within (0,1); the result is non-empty.
func NewTickDomain(candidates []float64) (TickDomain, error) {
	if len(candidates) == 0 {
		return TickDomain{}, riskerrors.New(riskerrors.EMPTY_COLLECTION, "tick domain must be non-empty")
	}
	for _, t := range candidates {
		if t <= 0 || t >= 1 {
			return TickDomain{}, riskerrors.Newf(riskerrors.INVALID_RANGE, "tick %v out of (0,1)", t)
		}
	}

	sorted := append([]float64{}, candidates...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	deduped := sorted[:1]
	for _, t := range sorted[1:] {
		if deduped[len(deduped)-1]-t > tickEpsilon {
			deduped = append(deduped, t)
		}
	}
	return TickDomain{ticks: deduped}, nil
}

// MustStandardTickDomain builds the TickDomain from StandardTicks; it
// never fails because StandardTicks is a fixed, valid constant.
func MustStandardTickDomain() TickDomain {
	d, err := NewTickDomain(StandardTicks)
	if err != nil {
		panic(err)
	}
	return d
}

// Ticks returns the domain's ticks in descending order.
func (d TickDomain) Ticks() []float64 { return d.ticks }

// Len reports the number of ticks in the domain.
func (d TickDomain) Len() int { return len(d.ticks) }

// Union merges two tick domains, deduplicating within tickEpsilon and
// preserving descending order.
func Union(a, b TickDomain) TickDomain {
	merged := append(append([]float64{}, a.ticks...), b.ticks...)
	out, err := NewTickDomain(merged)
	if err != nil {
		// a and b are each already validated non-empty domains, so their
		// union cannot fail validation.
		panic(err)
	}
	return out
}
