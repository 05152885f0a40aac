package curve

import (
	"math"
	"sort"

	"github.com/riskforge/lossengine/internal/types"
)

// Interpolate returns the loss at an arbitrary tick against c, using:
// linear interpolation between the two bracketing known ticks when tick
// falls within c's domain range; clamp to the loss at c's smallest tick
// (its largest-magnitude, most extreme value) when tick is below that
// tick, a conservative upper bound; clamp to the loss at c's largest
// tick when tick exceeds it, a conservative lower bound.
func Interpolate(c Curve, tick float64) types.Loss {
	ticks := c.Domain.Ticks()
	if len(ticks) == 0 {
		return types.ZeroLoss
	}

	// ticks is descending; ticks[0] is the largest (least extreme),
	// ticks[len-1] the smallest (most extreme).
	maxTick := ticks[0]
	minTick := ticks[len(ticks)-1]

	if tick >= maxTick {
		return c.Losses[0]
	}
	if tick <= minTick {
		return c.Losses[len(ticks)-1]
	}
	if within(tick, maxTick) {
		return c.Losses[0]
	}

	// Find the bracketing pair: since ticks descend, find the first
	// index whose tick is <= the target, its predecessor brackets above.
	for i := 1; i < len(ticks); i++ {
		if within(tick, ticks[i]) {
			return c.Losses[i]
		}
		if ticks[i] < tick {
			hi, lo := ticks[i-1], ticks[i]
			hiLoss, loLoss := c.Losses[i-1], c.Losses[i]
			frac := (tick - lo) / (hi - lo)
			return interpolateLoss(hiLoss, loLoss, frac)
		}
	}
	return c.Losses[len(ticks)-1]
}

func within(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}

// interpolateLoss linearly interpolates between two Loss bounds at
// fraction frac in [0,1] of the distance from lo to hi.
func interpolateLoss(hi, lo types.Loss, frac float64) types.Loss {
	delta := float64(hi.Int64()-lo.Int64()) * frac
	v := lo.Int64() + int64(math.Round(delta))
	loss, err := types.NewLoss(v)
	if err != nil {
		return lo
	}
	return loss
}

// Bundle holds tick-aligned curves for several nodes sharing a single
// union tick domain.
type Bundle struct {
	Domain TickDomain
	Curves map[string][]types.Loss
}

// Align computes the union tick domain across the given per-node curves
// and re-expresses every curve over that shared domain, interpolating
// per Interpolate's rules wherever a node's original curve lacked an
// exact tick.
func Align(curves map[string]Curve) Bundle {
	if len(curves) == 0 {
		return Bundle{Curves: map[string][]types.Loss{}}
	}

	ids := make([]string, 0, len(curves))
	for id := range curves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	union := curves[ids[0]].Domain
	for _, id := range ids[1:] {
		union = Union(union, curves[id].Domain)
	}

	aligned := make(map[string][]types.Loss, len(curves))
	for _, id := range ids {
		c := curves[id]
		losses := make([]types.Loss, len(union.Ticks()))
		for i, t := range union.Ticks() {
			losses[i] = Interpolate(c, t)
		}
		aligned[id] = losses
	}
	return Bundle{Domain: union, Curves: aligned}
}
