// Package resolver computes a node's simulated loss outcome by
// orchestrating leaf simulation and portfolio aggregation over a
// RiskTree, bounding how many simulations run concurrently and
// memoizing results per (tree, node, epoch).
package resolver

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/riskforge/lossengine/internal/cache"
	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/hash"
	"github.com/riskforge/lossengine/internal/leafsim"
	"github.com/riskforge/lossengine/internal/metrics"
	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// Config bundles the simulation knobs a Resolver applies when no
// per-request override is given.
type Config struct {
	NTrials                  int
	TrialParallelism         int
	MaxConcurrentSimulations int
	Seed3                    uint64
	Seed4                    uint64
}

// Resolver computes outcome.Maps for tree nodes, bounding the number of
// simulations in flight at once across all callers via a weighted
// semaphore, and memoizing per (tree, node, epoch) via Cache.
type Resolver struct {
	cfg     Config
	sem     *semaphore.Weighted
	cache   *cache.Cache
	metrics *metrics.Collectors
}

// New constructs a Resolver. A nil cache is replaced with a fresh,
// private Cache, so memoization is always on.
func New(cfg Config, c *cache.Cache) *Resolver {
	if c == nil {
		c = cache.New()
	}
	max := cfg.MaxConcurrentSimulations
	if max < 1 {
		max = 1
	}
	return &Resolver{cfg: cfg, sem: semaphore.NewWeighted(int64(max)), cache: c}
}

// WithMetrics attaches m as the Resolver's metrics sink, returning r for
// chaining. A nil m (the default) makes every observation a no-op.
func (r *Resolver) WithMetrics(m *metrics.Collectors) *Resolver {
	r.metrics = m
	return r
}

// Config returns the simulation knobs this Resolver was constructed
// with, the inputs a provenance record must quote to make a past
// outcome reproducible.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Outcome computes the simulated loss outcome for nodeID within tree,
// recursing into children for a portfolio and folding their outcomes
// via the outcome monoid. Results are served from cache when present at
// the tree's current epoch.
func (r *Resolver) Outcome(ctx context.Context, tree *risktree.Tree, nodeID types.NodeID) (outcome.Map, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return outcome.Map{}, riskerrors.Wrap(err, "acquiring simulation slot")
	}
	r.metrics.SimulationStarted()
	defer r.metrics.SimulationFinished()
	defer r.sem.Release(1)

	return r.resolve(ctx, tree, nodeID)
}

func (r *Resolver) resolve(ctx context.Context, tree *risktree.Tree, nodeID types.NodeID) (outcome.Map, error) {
	if _, hit := r.cache.Get(tree.ID(), nodeID, tree.Epoch()); hit {
		r.metrics.CacheHit()
	} else {
		r.metrics.CacheMiss()
	}

	return r.cache.GetOrCompute(ctx, tree.ID(), nodeID, tree.Epoch(), func(ctx context.Context) (outcome.Map, error) {
		node, ok := tree.Node(nodeID)
		if !ok {
			return outcome.Map{}, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
		}

		start := time.Now()
		var out outcome.Map
		var err error
		if node.IsLeaf() {
			out, err = r.simulateLeaf(ctx, node)
			r.metrics.ObserveSimulation("leaf", time.Since(start))
		} else {
			out, err = r.combinePortfolio(ctx, tree, node)
			r.metrics.ObserveSimulation("portfolio", time.Since(start))
		}
		return out, err
	})
}

// simulateLeaf derives the leaf's PRNG stream identity from its node id
// and runs its occurrence/loss simulation.
func (r *Resolver) simulateLeaf(ctx context.Context, node risktree.Node) (outcome.Map, error) {
	entityID, occVarID, lossVarID := hash.StreamIDs(node.ID().String())
	dist := node.Distribution()

	return leafsim.Simulate(ctx, leafsim.Params{
		EntityID:     entityID,
		OccVarID:     occVarID,
		LossVarID:    lossVarID,
		Seed3:        r.cfg.Seed3,
		Seed4:        r.cfg.Seed4,
		Probability:  dist.Probability().Float64(),
		Distribution: dist,
		NTrials:      r.cfg.NTrials,
		Parallelism:  r.cfg.TrialParallelism,
	})
}

// combinePortfolio resolves every child's outcome (recursing, but not
// re-acquiring the top-level semaphore slot) and folds them via the
// outcome monoid.
func (r *Resolver) combinePortfolio(ctx context.Context, tree *risktree.Tree, node risktree.Node) (outcome.Map, error) {
	children := tree.Index().Children(node.ID())
	childOutcomes := make([]outcome.Map, 0, len(children))
	for _, childID := range children {
		out, err := r.resolve(ctx, tree, childID)
		if err != nil {
			return outcome.Map{}, err
		}
		childOutcomes = append(childOutcomes, out)
	}

	combined := outcome.CombineAll(childOutcomes)
	if combined.IsOverflow() {
		return outcome.Map{}, riskerrors.Newf(riskerrors.SIMULATION_OVERFLOW,
			"combining outcomes for portfolio %s overflowed the representable loss range", node.ID())
	}
	return combined, nil
}
