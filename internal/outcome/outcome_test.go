package outcome

import (
	"testing"

	"github.com/riskforge/lossengine/internal/types"
)

func loss(v int64) types.Loss {
	l, err := types.NewLoss(v)
	if err != nil {
		panic(err)
	}
	return l
}

func TestEmptyIsIdentity(t *testing.T) {
	a := New(10, map[int]types.Loss{2: loss(500), 7: loss(1200)})
	empty := Empty(10)

	left := Combine(empty, a)
	right := Combine(a, empty)

	for trial := 0; trial < 10; trial++ {
		if left.At(trial).Int64() != a.At(trial).Int64() {
			t.Fatalf("Combine(empty, a) differs from a at trial %d", trial)
		}
		if right.At(trial).Int64() != a.At(trial).Int64() {
			t.Fatalf("Combine(a, empty) differs from a at trial %d", trial)
		}
	}
}

func TestCombineIsCommutative(t *testing.T) {
	a := New(5, map[int]types.Loss{0: loss(10), 3: loss(40)})
	b := New(5, map[int]types.Loss{0: loss(5), 1: loss(100)})

	ab := Combine(a, b)
	ba := Combine(b, a)

	for trial := 0; trial < 5; trial++ {
		if ab.At(trial).Int64() != ba.At(trial).Int64() {
			t.Fatalf("Combine not commutative at trial %d: %d != %d",
				trial, ab.At(trial).Int64(), ba.At(trial).Int64())
		}
	}
}

func TestCombineIsAssociative(t *testing.T) {
	a := New(4, map[int]types.Loss{0: loss(1)})
	b := New(4, map[int]types.Loss{1: loss(2)})
	c := New(4, map[int]types.Loss{2: loss(3)})

	left := Combine(Combine(a, b), c)
	right := Combine(a, Combine(b, c))

	for trial := 0; trial < 4; trial++ {
		if left.At(trial).Int64() != right.At(trial).Int64() {
			t.Fatalf("Combine not associative at trial %d", trial)
		}
	}
}

func TestCombineUnionsKeysAndSumsValues(t *testing.T) {
	a := New(3, map[int]types.Loss{0: loss(10)})
	b := New(3, map[int]types.Loss{0: loss(5), 2: loss(7)})

	c := Combine(a, b)
	if c.At(0).Int64() != 15 {
		t.Errorf("trial 0: got %d, want 15", c.At(0).Int64())
	}
	if c.At(1).Int64() != 0 {
		t.Errorf("trial 1: got %d, want 0", c.At(1).Int64())
	}
	if c.At(2).Int64() != 7 {
		t.Errorf("trial 2: got %d, want 7", c.At(2).Int64())
	}
}

func TestCombinePanicsOnMismatchedTrialCounts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic combining outcomes with different nTrials")
		}
	}()
	Combine(Empty(10), Empty(20))
}

func TestCombineAllFoldsChildOutcomes(t *testing.T) {
	children := []Map{
		New(3, map[int]types.Loss{0: loss(1)}),
		New(3, map[int]types.Loss{0: loss(2), 1: loss(3)}),
		New(3, map[int]types.Loss{2: loss(9)}),
	}
	combined := CombineAll(children)
	if combined.At(0).Int64() != 3 {
		t.Errorf("trial 0: got %d, want 3", combined.At(0).Int64())
	}
	if combined.At(1).Int64() != 3 {
		t.Errorf("trial 1: got %d, want 3", combined.At(1).Int64())
	}
	if combined.At(2).Int64() != 9 {
		t.Errorf("trial 2: got %d, want 9", combined.At(2).Int64())
	}
}

func TestCombineDetectsOverflow(t *testing.T) {
	huge := New(1, map[int]types.Loss{0: loss(1<<62)})
	combined := Combine(huge, huge)
	combined = Combine(combined, combined)
	if !combined.IsOverflow() {
		t.Error("expected overflow to propagate through repeated combination")
	}
}

func TestSparseRepresentationDropsZeros(t *testing.T) {
	m := New(3, map[int]types.Loss{0: loss(0), 1: loss(5)})
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (zero-loss trial should be dropped)", m.Len())
	}
}

func TestSortedLossesIncludesImplicitZeros(t *testing.T) {
	m := New(3, map[int]types.Loss{1: loss(5)})
	sorted := m.SortedLosses()
	if len(sorted) != 3 {
		t.Fatalf("SortedLosses() length = %d, want 3", len(sorted))
	}
	if sorted[0].Int64() != 0 || sorted[1].Int64() != 0 || sorted[2].Int64() != 5 {
		t.Errorf("SortedLosses() = %v, want [0,0,5]", sorted)
	}
}
