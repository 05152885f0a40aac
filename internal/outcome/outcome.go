// Package outcome implements the sparse per-trial loss map and its
// combination monoid: the algebra portfolios use to fold child outcomes
// into their own.
package outcome

import (
	"sort"

	"github.com/riskforge/lossengine/internal/types"
)

// Map is a sparse TrialId→Loss mapping over nTrials total trials. Trials
// absent from the map are treated as zero loss; only trials with a
// strictly positive loss are stored, since leaves with small occurrence
// probability produce mostly-empty maps.
type Map struct {
	nTrials  int
	losses   map[int]types.Loss
	overflow bool
}

// Empty returns the monoid identity for the given trial count: no
// stored trials, every trial implicitly zero.
func Empty(nTrials int) Map {
	return Map{nTrials: nTrials, losses: make(map[int]types.Loss)}
}

// New builds a Map from an explicit trial→loss set. Trials with zero
// loss are dropped to keep the representation sparse.
func New(nTrials int, losses map[int]types.Loss) Map {
	m := Empty(nTrials)
	for trial, loss := range losses {
		if loss.Int64() != 0 {
			m.losses[trial] = loss
		}
	}
	return m
}

// Set stores loss for trial, dropping the entry if loss is zero.
func (m *Map) Set(trial int, loss types.Loss) {
	if loss.Int64() == 0 {
		delete(m.losses, trial)
		return
	}
	m.losses[trial] = loss
}

// NTrials returns the total trial count this outcome was simulated over.
func (m Map) NTrials() int { return m.nTrials }

// At returns the loss recorded for trial, or ZeroLoss if absent.
func (m Map) At(trial int) types.Loss {
	if loss, ok := m.losses[trial]; ok {
		return loss
	}
	return types.ZeroLoss
}

// Len reports how many trials carry a non-zero loss.
func (m Map) Len() int { return len(m.losses) }

// IsOverflow reports whether this outcome was produced by a combination
// that overflowed the representable loss range.
func (m Map) IsOverflow() bool { return m.overflow }

// Trials returns the sorted set of trial indices carrying a non-zero
// loss, for deterministic iteration (curve building, tests).
func (m Map) Trials() []int {
	trials := make([]int, 0, len(m.losses))
	for t := range m.losses {
		trials = append(trials, t)
	}
	sort.Ints(trials)
	return trials
}

// SortedLosses returns every trial's loss (including implicit zeros) in
// ascending order, the form the curve builder consumes to compute
// exceedance at a threshold.
func (m Map) SortedLosses() []types.Loss {
	out := make([]types.Loss, m.nTrials)
	for trial, loss := range m.losses {
		if trial >= 0 && trial < m.nTrials {
			out[trial] = loss
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Combine folds two outcomes trial-wise: requires identical nTrials,
// result's key set is the union of both, value per trial is the sum
// (missing treated as zero). Combine is associative and commutative
// because integer addition is; overflow propagates rather than panics,
// the caller maps it to SIMULATION_OVERFLOW.
func Combine(a, b Map) Map {
	if a.nTrials != b.nTrials {
		panic("outcome: Combine requires equal nTrials")
	}
	if a.overflow || b.overflow {
		return Map{nTrials: a.nTrials, losses: map[int]types.Loss{}, overflow: true}
	}

	out := Empty(a.nTrials)
	for trial, loss := range a.losses {
		out.losses[trial] = loss
	}
	for trial, loss := range b.losses {
		sum := out.At(trial).Add(loss)
		if sum.IsOverflow() {
			return Map{nTrials: a.nTrials, losses: map[int]types.Loss{}, overflow: true}
		}
		out.Set(trial, sum)
	}
	return out
}

// CombineAll folds a non-empty slice of same-nTrials outcomes left to
// right; used by portfolio aggregation over its children.
func CombineAll(maps []Map) Map {
	if len(maps) == 0 {
		return Empty(0)
	}
	acc := maps[0]
	for _, m := range maps[1:] {
		acc = Combine(acc, m)
	}
	return acc
}

// ProbExceedance returns the fraction of trials whose loss is greater
// than or equal to threshold. Trials absent from m are implicit zeros,
// so for threshold <= 0 every trial qualifies.
func (m Map) ProbExceedance(threshold int64) float64 {
	if m.nTrials == 0 {
		return 0
	}
	if threshold <= 0 {
		return 1
	}
	count := 0
	for _, loss := range m.losses {
		if loss.Int64() >= threshold {
			count++
		}
	}
	return float64(count) / float64(m.nTrials)
}
