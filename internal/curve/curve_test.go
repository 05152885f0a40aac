package curve

import (
	"testing"

	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/types"
)

func mustLoss(t *testing.T, v int64) types.Loss {
	t.Helper()
	l, err := types.NewLoss(v)
	if err != nil {
		t.Fatalf("NewLoss(%d): %v", v, err)
	}
	return l
}

func TestNewTickDomainRejectsEmpty(t *testing.T) {
	if _, err := NewTickDomain(nil); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestNewTickDomainRejectsOutOfRange(t *testing.T) {
	if _, err := NewTickDomain([]float64{0, 0.5}); err == nil {
		t.Fatal("expected error for tick == 0")
	}
	if _, err := NewTickDomain([]float64{1, 0.5}); err == nil {
		t.Fatal("expected error for tick == 1")
	}
}

func TestNewTickDomainSortsDescendingAndDedups(t *testing.T) {
	d, err := NewTickDomain([]float64{0.1, 0.9, 0.5, 0.5, 0.5 + 1e-10})
	if err != nil {
		t.Fatalf("NewTickDomain: %v", err)
	}
	ticks := d.Ticks()
	if len(ticks) != 3 {
		t.Fatalf("expected 3 ticks after dedup, got %d: %v", len(ticks), ticks)
	}
	if ticks[0] != 0.9 || ticks[1] != 0.5+1e-10 || ticks[2] != 0.1 {
		t.Errorf("unexpected order: %v", ticks)
	}
}

func TestMustStandardTickDomainHas13Ticks(t *testing.T) {
	d := MustStandardTickDomain()
	if d.Len() != 13 {
		t.Fatalf("expected 13 standard ticks, got %d", d.Len())
	}
}

func buildOutcome(t *testing.T, losses []int64) outcome.Map {
	t.Helper()
	m := make(map[int]types.Loss, len(losses))
	for i, v := range losses {
		m[i] = mustLoss(t, v)
	}
	return outcome.New(len(losses), m)
}

func TestBuildLossAtTickIsMonotonicWithTick(t *testing.T) {
	losses := make([]int64, 1000)
	for i := range losses {
		losses[i] = int64(i)
	}
	out := buildOutcome(t, losses)
	c := Build(out, MustStandardTickDomain())

	for i := 1; i < len(c.Losses); i++ {
		if c.Losses[i].Int64() > c.Losses[i-1].Int64() {
			t.Fatalf("loss at smaller tick (more extreme) should be >= loss at larger tick: %v then %v",
				c.Losses[i-1], c.Losses[i])
		}
	}
}

func TestBuildExtremeTickNearsMax(t *testing.T) {
	losses := make([]int64, 100)
	for i := range losses {
		losses[i] = int64(i)
	}
	out := buildOutcome(t, losses)
	d, _ := NewTickDomain([]float64{0.01})
	c := Build(out, d)
	if c.Losses[0].Int64() != 99 {
		t.Errorf("at tick 0.01 over 100 trials expected the max loss 99, got %d", c.Losses[0].Int64())
	}
}

func TestBuildMedianTickIsMidRange(t *testing.T) {
	losses := make([]int64, 100)
	for i := range losses {
		losses[i] = int64(i)
	}
	out := buildOutcome(t, losses)
	d, _ := NewTickDomain([]float64{0.50})
	c := Build(out, d)
	if c.Losses[0].Int64() != 50 {
		t.Errorf("expected median-tick loss 50, got %d", c.Losses[0].Int64())
	}
}

func TestQuantileHelpersOrderedP50LEp99(t *testing.T) {
	losses := make([]int64, 1000)
	for i := range losses {
		losses[i] = int64(i)
	}
	out := buildOutcome(t, losses)
	c := Build(out, MustStandardTickDomain())

	if c.P50().Int64() > c.P90().Int64() {
		t.Error("p50 should be <= p90")
	}
	if c.P90().Int64() > c.P95().Int64() {
		t.Error("p90 should be <= p95")
	}
	if c.P95().Int64() > c.P99().Int64() {
		t.Error("p95 should be <= p99")
	}
}

func TestInterpolateExactTickReturnsStoredLoss(t *testing.T) {
	losses := make([]int64, 1000)
	for i := range losses {
		losses[i] = int64(i)
	}
	out := buildOutcome(t, losses)
	c := Build(out, MustStandardTickDomain())

	got := Interpolate(c, 0.50)
	if got.Int64() != c.P50().Int64() {
		t.Errorf("Interpolate(0.50) = %d, want %d", got.Int64(), c.P50().Int64())
	}
}

func TestInterpolateClampsAboveMaxTick(t *testing.T) {
	d, _ := NewTickDomain([]float64{0.90, 0.10})
	c := Curve{Domain: d, Losses: []types.Loss{mustLoss(t, 100), mustLoss(t, 900)}}

	got := Interpolate(c, 0.99)
	if got.Int64() != 100 {
		t.Errorf("tick above domain max should clamp to the max-tick loss (conservative lower bound), got %d", got.Int64())
	}
}

func TestInterpolateClampsBelowMinTick(t *testing.T) {
	d, _ := NewTickDomain([]float64{0.90, 0.10})
	c := Curve{Domain: d, Losses: []types.Loss{mustLoss(t, 100), mustLoss(t, 900)}}

	got := Interpolate(c, 0.01)
	if got.Int64() != 900 {
		t.Errorf("tick below domain min should clamp to the min-tick loss (conservative upper bound), got %d", got.Int64())
	}
}

func TestInterpolateLinearBetweenBracketingTicks(t *testing.T) {
	d, _ := NewTickDomain([]float64{0.80, 0.20})
	c := Curve{Domain: d, Losses: []types.Loss{mustLoss(t, 200), mustLoss(t, 800)}}

	got := Interpolate(c, 0.50)
	if got.Int64() != 500 {
		t.Errorf("Interpolate(0.50) between (0.80,200) and (0.20,800) = %d, want 500", got.Int64())
	}
}

func TestInterpolateWeightsTowardTheNearerTick(t *testing.T) {
	d, _ := NewTickDomain([]float64{0.90, 0.50})
	c := Curve{Domain: d, Losses: []types.Loss{mustLoss(t, 100), mustLoss(t, 500)}}

	got := Interpolate(c, 0.80)
	if got.Int64() != 200 {
		t.Errorf("Interpolate(0.80) between (0.90,100) and (0.50,500) = %d, want 200", got.Int64())
	}
}

func TestUnionDeduplicatesSharedTicks(t *testing.T) {
	a, _ := NewTickDomain([]float64{0.9, 0.5, 0.1})
	b, _ := NewTickDomain([]float64{0.5, 0.3})
	u := Union(a, b)
	if u.Len() != 4 {
		t.Fatalf("expected union of 4 distinct ticks, got %d: %v", u.Len(), u.Ticks())
	}
}

func TestAlignProducesSharedDomainAcrossCurves(t *testing.T) {
	dA, _ := NewTickDomain([]float64{0.9, 0.5, 0.1})
	dB, _ := NewTickDomain([]float64{0.9, 0.3, 0.1})
	curves := map[string]Curve{
		"a": {Domain: dA, Losses: []types.Loss{mustLoss(t, 10), mustLoss(t, 50), mustLoss(t, 100)}},
		"b": {Domain: dB, Losses: []types.Loss{mustLoss(t, 20), mustLoss(t, 60), mustLoss(t, 120)}},
	}
	bundle := Align(curves)

	if bundle.Domain.Len() != 4 {
		t.Fatalf("expected union domain of 4 ticks, got %d", bundle.Domain.Len())
	}
	if len(bundle.Curves["a"]) != bundle.Domain.Len() || len(bundle.Curves["b"]) != bundle.Domain.Len() {
		t.Error("every aligned curve should cover the full union domain")
	}
}

func TestAlignIsIdempotentWhenDomainsAlreadyMatch(t *testing.T) {
	d := MustStandardTickDomain()
	out := buildOutcome(t, func() []int64 {
		losses := make([]int64, 500)
		for i := range losses {
			losses[i] = int64(i * 3)
		}
		return losses
	}())
	c := Build(out, d)

	bundle := Align(map[string]Curve{"only": c})
	for i, tick := range bundle.Domain.Ticks() {
		if bundle.Curves["only"][i].Int64() != c.Losses[i].Int64() {
			t.Errorf("tick %v: realigning a curve to its own domain should be a no-op, got %d want %d",
				tick, bundle.Curves["only"][i].Int64(), c.Losses[i].Int64())
		}
	}
}
