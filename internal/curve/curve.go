package curve

import (
	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/types"
)

// Curve pairs a TickDomain with the loss-at-tick for each of its ticks,
// in the same order as Domain.Ticks().
type Curve struct {
	Domain TickDomain
	Losses []types.Loss
}

// Build converts a simulated outcome into a tick-aligned loss
// exceedance curve: for each tick t (a target exceedance probability),
// the loss-at-tick is the smallest L such that P(loss>=L) <= t. Over n
// trials sorted ascending, that is the entry at 0-based index
// ceil((1-t)*n), i.e. the empirical quantile at 1-t; ties among equal
// loss values resolve to the larger index, the conservative (higher
// loss) choice.
func Build(m outcome.Map, domain TickDomain) Curve {
	sorted := m.SortedLosses()
	n := len(sorted)
	losses := make([]types.Loss, len(domain.Ticks()))

	for i, t := range domain.Ticks() {
		losses[i] = lossAtTick(sorted, n, t)
	}
	return Curve{Domain: domain, Losses: losses}
}

// lossAtTick returns the smallest loss L such that the fraction of
// trials with loss >= L is at most t. Over an ascending n-length sample,
// the k-th entry (0-based) has P(loss >= sorted[k]) = (n-k)/n, so the
// smallest satisfying index is k = ceil(n*(1-t)); ties at that boundary
// carry the same value, so no separate tie-break step is needed, and
// the result is already the conservative (larger-index) choice.
func lossAtTick(sorted []types.Loss, n int, t float64) types.Loss {
	if n == 0 {
		return types.ZeroLoss
	}
	idx := int(ceilFloat(float64(n) * (1 - t)))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return sorted[idx]
}

func ceilFloat(f float64) float64 {
	i := float64(int64(f))
	if f > i {
		return i + 1
	}
	return i
}

// Standard quantile ticks, named per the conventional loss-exceedance
// percentile labels.
const (
	p50Tick = 0.50
	p90Tick = 0.10
	p95Tick = 0.05
	p99Tick = 0.01
)

// Quantile extracts the loss at an arbitrary tick from c, interpolating
// per the aligner rules (Interpolate) when tick is not exactly present
// in c's domain.
func (c Curve) Quantile(tick float64) types.Loss {
	return Interpolate(c, tick)
}

// P50 returns the median loss.
func (c Curve) P50() types.Loss { return c.Quantile(p50Tick) }

// P90 returns the loss at the 90th percentile (tick 0.10).
func (c Curve) P90() types.Loss { return c.Quantile(p90Tick) }

// P95 returns the loss at the 95th percentile (tick 0.05).
func (c Curve) P95() types.Loss { return c.Quantile(p95Tick) }

// P99 returns the loss at the 99th percentile (tick 0.01).
func (c Curve) P99() types.Loss { return c.Quantile(p99Tick) }
