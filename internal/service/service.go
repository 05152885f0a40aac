// Package service provides the tree service facade for coordinating
// risk-tree operations across the repository, resolver, cache, curve
// builder, and event bus.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/riskforge/lossengine/internal/cache"
	"github.com/riskforge/lossengine/internal/curve"
	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/events"
	"github.com/riskforge/lossengine/internal/metrics"
	"github.com/riskforge/lossengine/internal/repository"
	"github.com/riskforge/lossengine/internal/resolver"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
	"github.com/riskforge/lossengine/internal/validate"
)

// TreeService orchestrates risk-tree mutations and queries across its
// collaborators. It holds no state of its own beyond those
// collaborators: the repository is the system of record, the cache and
// resolver compute and memoize simulated outcomes, and the bus notifies
// subscribers of what changed.
type TreeService struct {
	repo    repository.Repository
	resolve *resolver.Resolver
	cache   *cache.Cache
	bus     *events.Bus
}

// New constructs a TreeService. bus and m may both be nil: a nil bus
// means no events are published, a nil m means res's metrics collection
// stays a no-op.
func New(repo repository.Repository, res *resolver.Resolver, c *cache.Cache, bus *events.Bus, m *metrics.Collectors) *TreeService {
	if m != nil {
		res.WithMetrics(m)
	}
	return &TreeService{repo: repo, resolve: res, cache: c, bus: bus}
}

func (s *TreeService) publish(evt events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(evt)
}

func (s *TreeService) log(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// CreateTree resolves req into a fresh RiskTree, persists it, and emits
// a NodeChanged event for every node it contains.
func (s *TreeService) CreateTree(ctx context.Context, req validate.TreeRequest) (*risktree.Tree, error) {
	tree, err := validate.ResolveTree(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tree); err != nil {
		return nil, err
	}

	for _, n := range tree.Nodes() {
		s.publish(events.NewNodeChanged(tree.ID(), n.ID(), tree.Epoch()))
	}
	s.log(ctx).Info().Str("tree_id", tree.ID().String()).Int("nodes", len(tree.Nodes())).Msg("tree created")
	return tree, nil
}

// GetTree loads a tree by id.
func (s *TreeService) GetTree(ctx context.Context, id types.TreeID) (*risktree.Tree, error) {
	return s.repo.Get(ctx, id)
}

// ListTrees lists every stored tree's summary.
func (s *TreeService) ListTrees(ctx context.Context) ([]repository.Summary, error) {
	return s.repo.List(ctx)
}

// DeleteTree removes a tree and evicts every cached outcome derived
// from it.
func (s *TreeService) DeleteTree(ctx context.Context, id types.TreeID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateTree(id)
	s.log(ctx).Info().Str("tree_id", id.String()).Msg("tree deleted")
	return nil
}

// UpdateTree replaces treeID's node set with req's, per §4.6's
// full-PUT semantics: existing nodes are identified by id, new nodes are
// allocated server-side, and nodes omitted from req are deleted
// (rejected by Build's topology check if that would empty a
// portfolio). Every added, updated, or removed node's ancestor path is
// invalidated and a NodeChanged is emitted for it.
func (s *TreeService) UpdateTree(ctx context.Context, treeID types.TreeID, req validate.TreeRequest) (*risktree.Tree, error) {
	old, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return nil, err
	}

	next, err := validate.ResolveTreeUpdate(treeID, old.Epoch()+1, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, next, old.Epoch()); err != nil {
		return nil, err
	}

	changed := diffNodeIDs(old, next)
	s.invalidateAndPublish(ctx, old, next, changed)
	s.log(ctx).Info().Str("tree_id", treeID.String()).Uint64("epoch", next.Epoch()).Int("changed_nodes", len(changed)).Msg("tree updated")
	return next, nil
}

// PatchDistribution replaces a single leaf's distribution, rejecting
// non-leaf targets with INVALID_NODE_TYPE.
func (s *TreeService) PatchDistribution(ctx context.Context, treeID types.TreeID, nodeID types.NodeID, dr validate.DistributionRequest) (*risktree.Tree, error) {
	old, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return nil, err
	}
	target, ok := old.Node(nodeID)
	if !ok {
		return nil, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
	}
	if !target.IsLeaf() {
		return nil, riskerrors.Newf(riskerrors.INVALID_NODE_TYPE, "node %s is not a leaf", nodeID)
	}

	dist, err := validate.ResolveDistribution(dr)
	if err != nil {
		return nil, err
	}

	next, err := s.rebuildWith(old, nodeID, func(n risktree.Node) risktree.Node {
		return risktree.NewLeaf(n.ID(), n.Name(), n.ParentID(), dist)
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, next, old.Epoch()); err != nil {
		return nil, err
	}
	s.invalidateAndPublish(ctx, old, next, []types.NodeID{nodeID})
	s.log(ctx).Info().Str("tree_id", treeID.String()).Str("node_id", nodeID.String()).Msg("distribution patched")
	return next, nil
}

// RenameNode renames a single node, relying on Build's own tree-wide
// name-uniqueness check to reject collisions.
func (s *TreeService) RenameNode(ctx context.Context, treeID types.TreeID, nodeID types.NodeID, name string) (*risktree.Tree, error) {
	old, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return nil, err
	}
	if _, ok := old.Node(nodeID); !ok {
		return nil, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
	}

	newName, err := validate.ResolveName(name)
	if err != nil {
		return nil, err
	}

	next, err := s.rebuildWith(old, nodeID, func(n risktree.Node) risktree.Node {
		if n.IsLeaf() {
			return risktree.NewLeaf(n.ID(), newName, n.ParentID(), n.Distribution())
		}
		return risktree.NewPortfolio(n.ID(), newName, n.ParentID(), n.ChildIDs())
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, next, old.Epoch()); err != nil {
		return nil, err
	}
	s.invalidateAndPublish(ctx, old, next, []types.NodeID{nodeID})
	s.log(ctx).Info().Str("tree_id", treeID.String()).Str("node_id", nodeID.String()).Msg("node renamed")
	return next, nil
}

// DeleteNode removes nodeID from the tree. Deleting the root is
// rejected; deleting a portfolio cascades to its entire subtree; a
// delete that would leave a surviving portfolio with no children is
// rejected by Build's topology check.
func (s *TreeService) DeleteNode(ctx context.Context, treeID types.TreeID, nodeID types.NodeID) (*risktree.Tree, error) {
	old, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return nil, err
	}
	target, ok := old.Node(nodeID)
	if !ok {
		return nil, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
	}
	if nodeID.Equal(old.RootID()) {
		return nil, riskerrors.Newf(riskerrors.INVALID_NODE_TYPE, "cannot delete the root node %s", nodeID)
	}

	idx := old.Index()
	removed := map[string]bool{nodeID.String(): true}
	if target.IsPortfolio() {
		for _, d := range idx.DescendantIDs(nodeID) {
			removed[d.String()] = true
		}
	}
	parentID := target.ParentID()

	kept := make([]risktree.Node, 0, len(old.Nodes()))
	for _, n := range old.Nodes() {
		if n.ID().Equal(nodeID) || idx.IsDescendant(nodeID, n.ID()) {
			continue
		}
		if parentID != nil && n.ID().Equal(*parentID) && n.IsPortfolio() {
			n = risktree.NewPortfolio(n.ID(), n.Name(), n.ParentID(), withoutID(n.ChildIDs(), nodeID))
		}
		kept = append(kept, n)
	}

	next, err := risktree.Build(treeID, old.Name(), old.Epoch()+1, kept)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, next, old.Epoch()); err != nil {
		return nil, err
	}

	changed := make([]types.NodeID, 0, len(removed))
	for idStr := range removed {
		id, parseErr := types.ParseNodeID(idStr)
		if parseErr == nil {
			changed = append(changed, id)
		}
	}
	s.invalidateAndPublish(ctx, old, next, changed)
	s.log(ctx).Info().Str("tree_id", treeID.String()).Str("node_id", nodeID.String()).Int("cascade_removed", len(removed)-1).Msg("node deleted")
	return next, nil
}

// LECCurve is the result shape getLECCurve returns.
type LECCurve struct {
	ID         types.NodeID
	Name       string
	Curve      curve.Curve
	Quantiles  Quantiles
	ChildIDs   []types.NodeID
	Provenance *TreeProvenance
}

// Quantiles bundles the four named percentiles every curve response
// carries.
type Quantiles struct {
	P50, P90, P95, P99 types.Loss
}

// LECCurveOption customizes a GetLECCurve call.
type LECCurveOption func(*lecCurveOptions)

type lecCurveOptions struct {
	includeProvenance bool
}

// WithProvenance asks GetLECCurve to attach the TreeProvenance covering
// nodeID and every leaf beneath it, per §3's lazily-computed
// provenance-on-request rule.
func WithProvenance() LECCurveOption {
	return func(o *lecCurveOptions) { o.includeProvenance = true }
}

// GetLECCurve resolves nodeID's simulated outcome and builds its loss
// exceedance curve over domain (the standard ticks if ticks is empty).
func (s *TreeService) GetLECCurve(ctx context.Context, treeID types.TreeID, nodeID types.NodeID, ticks []float64, opts ...LECCurveOption) (LECCurve, error) {
	var o lecCurveOptions
	for _, opt := range opts {
		opt(&o)
	}

	tree, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return LECCurve{}, err
	}
	node, ok := tree.Node(nodeID)
	if !ok {
		return LECCurve{}, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
	}

	domain, err := tickDomainFor(ticks)
	if err != nil {
		return LECCurve{}, err
	}

	out, err := s.resolve.Outcome(ctx, tree, nodeID)
	if err != nil {
		return LECCurve{}, err
	}

	c := curve.Build(out, domain)
	s.publish(events.NewLECUpdated(treeID, nodeID, tree.Epoch()))

	var childIDs []types.NodeID
	if node.IsPortfolio() {
		childIDs = tree.Index().Children(nodeID)
	}

	result := LECCurve{
		ID:    nodeID,
		Name:  node.Name().String(),
		Curve: c,
		Quantiles: Quantiles{
			P50: c.P50(),
			P90: c.P90(),
			P95: c.P95(),
			P99: c.P99(),
		},
		ChildIDs: childIDs,
	}
	if o.includeProvenance {
		p := s.treeProvenance(tree, nodeID)
		result.Provenance = &p
	}
	return result, nil
}

// GetLECCurvesMulti resolves every node in nodeIDs and aligns their
// curves onto a shared union tick domain.
func (s *TreeService) GetLECCurvesMulti(ctx context.Context, treeID types.TreeID, nodeIDs []types.NodeID, ticks []float64) (curve.Bundle, error) {
	if len(nodeIDs) == 0 {
		return curve.Bundle{}, riskerrors.New(riskerrors.EMPTY_COLLECTION, "nodeIds must be non-empty")
	}

	tree, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return curve.Bundle{}, err
	}

	domain, err := tickDomainFor(ticks)
	if err != nil {
		return curve.Bundle{}, err
	}

	curves := make(map[string]curve.Curve, len(nodeIDs))
	for _, id := range nodeIDs {
		if _, ok := tree.Node(id); !ok {
			return curve.Bundle{}, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", id)
		}
		out, err := s.resolve.Outcome(ctx, tree, id)
		if err != nil {
			return curve.Bundle{}, err
		}
		curves[id.String()] = curve.Build(out, domain)
	}

	return curve.Align(curves), nil
}

// ProbOfExceedance returns the fraction of nodeID's simulated trials
// whose loss is at least threshold.
func (s *TreeService) ProbOfExceedance(ctx context.Context, treeID types.TreeID, nodeID types.NodeID, threshold int64) (float64, error) {
	tree, err := s.repo.Get(ctx, treeID)
	if err != nil {
		return 0, err
	}
	if _, ok := tree.Node(nodeID); !ok {
		return 0, riskerrors.Newf(riskerrors.NODE_NOT_FOUND, "node %s not found", nodeID)
	}
	out, err := s.resolve.Outcome(ctx, tree, nodeID)
	if err != nil {
		return 0, err
	}
	return out.ProbExceedance(threshold), nil
}

func tickDomainFor(ticks []float64) (curve.TickDomain, error) {
	if len(ticks) == 0 {
		return curve.MustStandardTickDomain(), nil
	}
	return curve.NewTickDomain(ticks)
}

func withoutID(ids []types.NodeID, target types.NodeID) []types.NodeID {
	out := make([]types.NodeID, 0, len(ids))
	for _, id := range ids {
		if !id.Equal(target) {
			out = append(out, id)
		}
	}
	return out
}

// rebuildWith applies mutate to the node identified by nodeID and
// rebuilds the tree with the tree's epoch bumped by one.
func (s *TreeService) rebuildWith(old *risktree.Tree, nodeID types.NodeID, mutate func(risktree.Node) risktree.Node) (*risktree.Tree, error) {
	nodes := old.Nodes()
	for i, n := range nodes {
		if n.ID().Equal(nodeID) {
			nodes[i] = mutate(n)
		}
	}
	return risktree.Build(old.ID(), old.Name(), old.Epoch()+1, nodes)
}

// invalidateAndPublish evicts cached outcomes along every changed node's
// ancestor path — walked against next's index when the node survives,
// or old's index when it was removed — bumps having already happened via
// next's epoch, and emits NodeChanged plus one CacheInvalidated summarizing
// every evicted node.
func (s *TreeService) invalidateAndPublish(ctx context.Context, old, next *risktree.Tree, changed []types.NodeID) {
	var invalidated []types.NodeID
	for _, id := range changed {
		idx := next.Index()
		if !idx.Contains(id) {
			idx = old.Index()
		}
		path := s.cache.InvalidateAncestors(old.ID(), idx, id, old.Epoch())
		invalidated = append(invalidated, path...)
		s.publish(events.NewNodeChanged(old.ID(), id, next.Epoch()))
	}
	if len(invalidated) > 0 {
		s.publish(events.NewCacheInvalidated(old.ID(), invalidated))
	}
}

// diffNodeIDs returns every node id that was added, removed, or whose
// name/parent/topology/distribution changed between old and next.
func diffNodeIDs(old, next *risktree.Tree) []types.NodeID {
	var changed []types.NodeID
	seen := make(map[string]bool)

	for _, n := range next.Nodes() {
		seen[n.ID().String()] = true
		prior, existed := old.Node(n.ID())
		if !existed || !nodesEqual(prior, n) {
			changed = append(changed, n.ID())
		}
	}
	for _, n := range old.Nodes() {
		if !seen[n.ID().String()] {
			changed = append(changed, n.ID())
		}
	}
	return changed
}

func nodesEqual(a, b risktree.Node) bool {
	if a.Kind() != b.Kind() || !a.Name().Equal(b.Name()) {
		return false
	}
	if (a.ParentID() == nil) != (b.ParentID() == nil) {
		return false
	}
	if a.ParentID() != nil && !a.ParentID().Equal(*b.ParentID()) {
		return false
	}
	if a.IsPortfolio() {
		ac, bc := a.ChildIDs(), b.ChildIDs()
		if len(ac) != len(bc) {
			return false
		}
		for i := range ac {
			if !ac[i].Equal(bc[i]) {
				return false
			}
		}
		return true
	}
	return distributionsEqual(a.Distribution(), b.Distribution())
}

func distributionsEqual(a, b risktree.Distribution) bool {
	if a.Kind() != b.Kind() || a.Probability().Float64() != b.Probability().Float64() {
		return false
	}
	switch a.Kind() {
	case risktree.KindLognormal:
		aMin, aMax := a.MinMax()
		bMin, bMax := b.MinMax()
		return aMin == bMin && aMax == bMax
	case risktree.KindExpert:
		aPct, aQuant, aTerms := a.ExpertParams()
		bPct, bQuant, bTerms := b.ExpertParams()
		if aTerms != bTerms || len(aPct) != len(bPct) || len(aQuant) != len(bQuant) {
			return false
		}
		for i := range aPct {
			if aPct[i] != bPct[i] {
				return false
			}
		}
		for i := range aQuant {
			if aQuant[i] != bQuant[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
