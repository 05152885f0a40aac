// Package treeindex builds and queries the derived parent/child
// adjacency of a RiskTree's flat node set: O(1) parent lookup, O(depth)
// ancestor paths, and O(descendants) subtree enumeration.
package treeindex

import (
	"github.com/RoaringBitmap/roaring/v2"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/types"
)

// NodeRef describes one node's identity and parent for index
// construction, independent of whether it is a leaf or a portfolio.
type NodeRef struct {
	ID       types.NodeID
	ParentID *types.NodeID
}

// Index is the derived adjacency of a tree: parents[c]=p iff c is a
// direct child of p, and children[p] contains exactly the c for which
// that holds. It is immutable once built; any topology change rebuilds
// a fresh Index rather than mutating this one.
type Index struct {
	rootID   types.NodeID
	parents  map[string]types.NodeID
	children map[string][]types.NodeID
	ids      map[string]types.NodeID
	ordinal  map[string]uint32
	order    []types.NodeID
}

// Build constructs and validates an Index from a flat node set. It
// enforces exactly one root (a node with no ParentID) and acyclicity;
// other topology rules (non-empty portfolios, unique names, type
// consistency) are the validator's responsibility and are checked
// before Build is ever called in practice.
func Build(nodes []NodeRef) (*Index, error) {
	parents := make(map[string]types.NodeID, len(nodes))
	children := make(map[string][]types.NodeID, len(nodes))
	ids := make(map[string]types.NodeID, len(nodes))
	ordinal := make(map[string]uint32, len(nodes))

	order := make([]types.NodeID, 0, len(nodes))
	var roots []types.NodeID
	for i, n := range nodes {
		ids[n.ID.String()] = n.ID
		ordinal[n.ID.String()] = uint32(i)
		order = append(order, n.ID)
		if n.ParentID == nil {
			roots = append(roots, n.ID)
			continue
		}
		parents[n.ID.String()] = *n.ParentID
		children[n.ParentID.String()] = append(children[n.ParentID.String()], n.ID)
	}

	if len(roots) == 0 {
		return nil, riskerrors.New(riskerrors.MISSING_REFERENCE, "tree has no root: every node declares a parent")
	}
	if len(roots) > 1 {
		return nil, riskerrors.New(riskerrors.AMBIGUOUS_REFERENCE, "tree has more than one root")
	}

	allIDs := make([]types.NodeID, 0, len(nodes))
	for _, n := range nodes {
		allIDs = append(allIDs, n.ID)
	}
	if cycle := detectAnyCycle(parents, allIDs); cycle.HasCycle {
		return nil, riskerrors.Newf(riskerrors.CONSTRAINT_VIOLATION, "%s", cycle.Error())
	}

	for _, n := range nodes {
		if n.ParentID == nil {
			continue
		}
		if _, ok := ids[n.ParentID.String()]; !ok {
			return nil, riskerrors.Newf(riskerrors.MISSING_REFERENCE, "node %s references missing parent %s", n.ID, n.ParentID)
		}
	}

	return &Index{
		rootID:   roots[0],
		parents:  parents,
		children: children,
		ids:      ids,
		ordinal:  ordinal,
		order:    order,
	}, nil
}

// RootID returns the tree's single root node.
func (idx *Index) RootID() types.NodeID { return idx.rootID }

// Parent returns the parent of id, or false if id is the root or unknown.
func (idx *Index) Parent(id types.NodeID) (types.NodeID, bool) {
	p, ok := idx.parents[id.String()]
	return p, ok
}

// Children returns the direct children of id, in the order they were
// supplied to Build. Returns nil for a leaf or unknown id.
func (idx *Index) Children(id types.NodeID) []types.NodeID {
	return idx.children[id.String()]
}

// IsLeaf reports whether id has no children, i.e. it is absent from the
// children adjacency.
func (idx *Index) IsLeaf(id types.NodeID) bool {
	return len(idx.children[id.String()]) == 0
}

// AncestorPath returns id followed by every ancestor up to and including
// the root, in that order. Used to determine which cache entries a
// mutation at id must invalidate.
func (idx *Index) AncestorPath(id types.NodeID) []types.NodeID {
	path := []types.NodeID{id}
	cur := id
	for {
		p, ok := idx.Parent(cur)
		if !ok {
			return path
		}
		path = append(path, p)
		cur = p
	}
}

// Descendants returns every node reachable from id via children, not
// including id itself, as a compact bitmap keyed by each node's build
// ordinal — cheap membership testing for large subtrees.
func (idx *Index) Descendants(id types.NodeID) *roaring.Bitmap {
	bm := roaring.New()
	idx.collectDescendants(id, bm)
	return bm
}

func (idx *Index) collectDescendants(id types.NodeID, bm *roaring.Bitmap) {
	for _, child := range idx.Children(id) {
		bm.Add(idx.ordinal[child.String()])
		idx.collectDescendants(child, bm)
	}
}

// IsDescendant reports whether id is strictly below ancestor in the tree,
// testing membership in ancestor's bitmap rather than walking parent
// pointers — the check a cascading delete needs to decide, for every
// surviving node, whether it falls inside the subtree being removed.
func (idx *Index) IsDescendant(ancestor, id types.NodeID) bool {
	ord, ok := idx.ordinal[id.String()]
	if !ok {
		return false
	}
	return idx.Descendants(ancestor).Contains(ord)
}

// DescendantIDs returns every node reachable from id via children, not
// including id itself, as concrete NodeIDs in DFS order — the shape a
// cascading delete needs to know exactly which nodes to remove.
func (idx *Index) DescendantIDs(id types.NodeID) []types.NodeID {
	var out []types.NodeID
	for _, child := range idx.Children(id) {
		out = append(out, child)
		out = append(out, idx.DescendantIDs(child)...)
	}
	return out
}

// LeafIDs returns every node with no children, in build order.
func (idx *Index) LeafIDs() []types.NodeID {
	var leaves []types.NodeID
	for _, id := range idx.order {
		if idx.IsLeaf(id) {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Contains reports whether id is a known node in this index.
func (idx *Index) Contains(id types.NodeID) bool {
	_, ok := idx.ids[id.String()]
	return ok
}
