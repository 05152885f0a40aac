package service

import (
	"github.com/riskforge/lossengine/internal/hash"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// NodeProvenance records exactly what a single node's simulated outcome
// depended on: the derived PRNG stream identity, the global seeds and
// distribution it was simulated against, and when the record was taken.
// Holding these is enough to rerun the same simulation and reproduce
// the same outcome bit for bit.
type NodeProvenance struct {
	NodeID       types.NodeID
	EntityID     uint64
	OccVarID     uint64
	LossVarID    uint64
	Seed3        uint64
	Seed4        uint64
	Distribution risktree.Distribution
	Timestamp    types.Timestamp
}

// TreeProvenance bundles the global simulation parameters shared by
// every node alongside each simulated node's own NodeProvenance.
type TreeProvenance struct {
	TreeID      types.TreeID
	Seed3       uint64
	Seed4       uint64
	NTrials     int
	Parallelism int
	PerNode     map[string]NodeProvenance
}

// nodeProvenance builds a NodeProvenance for a single leaf, deriving its
// stream identity the same way the resolver does before simulating it.
// Portfolios carry no distribution of their own and are never simulated
// directly, so they are omitted from a TreeProvenance's PerNode set.
func (s *TreeService) nodeProvenance(node risktree.Node) NodeProvenance {
	entityID, occVarID, lossVarID := hash.StreamIDs(node.ID().String())
	cfg := s.resolve.Config()
	return NodeProvenance{
		NodeID:       node.ID(),
		EntityID:     entityID,
		OccVarID:     occVarID,
		LossVarID:    lossVarID,
		Seed3:        cfg.Seed3,
		Seed4:        cfg.Seed4,
		Distribution: node.Distribution(),
		Timestamp:    types.Now(),
	}
}

// treeProvenance builds the TreeProvenance covering nodeID and every
// leaf reachable beneath it — the full set of nodes whose simulation
// actually fed the requested outcome.
func (s *TreeService) treeProvenance(tree *risktree.Tree, nodeID types.NodeID) TreeProvenance {
	cfg := s.resolve.Config()
	perNode := make(map[string]NodeProvenance)

	var visit func(types.NodeID)
	visit = func(id types.NodeID) {
		node, ok := tree.Node(id)
		if !ok {
			return
		}
		if node.IsLeaf() {
			perNode[id.String()] = s.nodeProvenance(node)
			return
		}
		for _, childID := range tree.Index().Children(id) {
			visit(childID)
		}
	}
	visit(nodeID)

	return TreeProvenance{
		TreeID:      tree.ID(),
		Seed3:       cfg.Seed3,
		Seed4:       cfg.Seed4,
		NTrials:     cfg.NTrials,
		Parallelism: cfg.TrialParallelism,
		PerNode:     perNode,
	}
}
