package curve

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/types"
)

func drawOutcome(t *rapid.T, nTrials int) outcome.Map {
	losses := make(map[int]types.Loss, nTrials)
	for trial := 0; trial < nTrials; trial++ {
		v := rapid.Int64Range(0, 1_000_000).Draw(t, fmt.Sprintf("loss-%d", trial))
		loss, err := types.NewLoss(v)
		if err != nil {
			t.Fatalf("NewLoss: %v", err)
		}
		losses[trial] = loss
	}
	return outcome.New(nTrials, losses)
}

// TestPropertyQuantileMonotoneInTick verifies that a higher exceedance
// tick never yields a larger loss than a lower one.
func TestPropertyQuantileMonotoneInTick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nTrials := rapid.IntRange(1, 100).Draw(t, "nTrials")
		m := drawOutcome(t, nTrials)
		domain := MustStandardTickDomain()
		c := Build(m, domain)

		tick2 := rapid.Float64Range(0.001, 0.999).Draw(t, "tick2")
		tick1 := rapid.Float64Range(tick2, 0.999).Draw(t, "tick1")

		loss1 := c.Quantile(tick1)
		loss2 := c.Quantile(tick2)
		if loss1.Int64() > loss2.Int64() {
			t.Fatalf("Quantile(%v)=%d > Quantile(%v)=%d, want non-increasing as tick grows", tick1, loss1.Int64(), tick2, loss2.Int64())
		}
	})
}

// TestPropertyBuildProducesOneLossPerTick verifies Build always returns
// exactly as many losses as the domain has ticks.
func TestPropertyBuildProducesOneLossPerTick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nTrials := rapid.IntRange(0, 50).Draw(t, "nTrials")
		m := drawOutcome(t, nTrials)
		domain := MustStandardTickDomain()
		c := Build(m, domain)
		if len(c.Losses) != domain.Len() {
			t.Fatalf("len(Losses) = %d, want %d", len(c.Losses), domain.Len())
		}
	})
}

// TestPropertyUnionDomainIsIdempotent verifies expanding a curve to its
// own domain returns identical values, and the union of a domain with
// itself changes nothing.
func TestPropertyUnionDomainIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nTrials := rapid.IntRange(1, 50).Draw(t, "nTrials")
		m := drawOutcome(t, nTrials)
		domain := MustStandardTickDomain()
		c := Build(m, domain)

		union := Union(domain, domain)
		if union.Len() != domain.Len() {
			t.Fatalf("Union(d,d).Len() = %d, want %d", union.Len(), domain.Len())
		}
		for i, tick := range union.Ticks() {
			got := Interpolate(c, tick)
			if !got.Equal(c.Losses[i]) {
				t.Fatalf("tick %v: Interpolate=%s, want %s", tick, got, c.Losses[i])
			}
		}
	})
}

// TestPropertyAlignPreservesExactTickValues verifies that after Align,
// every node's value at a tick present in its own original domain is
// unchanged from that original curve's value (the union domain is a
// superset, so every original tick survives exactly).
func TestPropertyAlignPreservesExactTickValues(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nTrials := rapid.IntRange(1, 50).Draw(t, "nTrials")
		mA := drawOutcome(t, nTrials)
		mB := drawOutcome(t, nTrials)
		domain := MustStandardTickDomain()
		cA := Build(mA, domain)
		cB := Build(mB, domain)

		bundle := Align(map[string]Curve{"a": cA, "b": cB})
		for i, tick := range domain.Ticks() {
			idx := -1
			for j, ut := range bundle.Domain.Ticks() {
				if within(ut, tick) {
					idx = j
					break
				}
			}
			if idx < 0 {
				t.Fatalf("union domain missing original tick %v", tick)
			}
			if !bundle.Curves["a"][idx].Equal(cA.Losses[i]) {
				t.Fatalf("a: tick %v changed after Align: %s vs %s", tick, bundle.Curves["a"][idx], cA.Losses[i])
			}
			if !bundle.Curves["b"][idx].Equal(cB.Losses[i]) {
				t.Fatalf("b: tick %v changed after Align: %s vs %s", tick, bundle.Curves["b"][idx], cB.Losses[i])
			}
		}
	})
}
