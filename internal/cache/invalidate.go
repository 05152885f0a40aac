package cache

import (
	"github.com/riskforge/lossengine/internal/treeindex"
	"github.com/riskforge/lossengine/internal/types"
)

// InvalidateAncestors drops cached outcomes for nodeID and every one of
// its ancestors up to the root, at the tree's prior epoch: a portfolio's
// outcome folds in its descendants, so a mutation at nodeID stales every
// ancestor's cached result the same way a changed leaf stales the
// aggregates above it. The mutation itself is expected to have already
// bumped the tree's epoch; callers pass the epoch being retired.
func (c *Cache) InvalidateAncestors(treeID types.TreeID, idx *treeindex.Index, nodeID types.NodeID, staleEpoch uint64) []types.NodeID {
	path := idx.AncestorPath(nodeID)
	for _, ancestorID := range path {
		c.lru.Remove(key{treeID: treeID, nodeID: ancestorID, epoch: staleEpoch})
	}
	return path
}
