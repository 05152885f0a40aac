package risktree

import (
	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/treeindex"
	"github.com/riskforge/lossengine/internal/types"
)

// NodeKind discriminates RiskLeaf from RiskPortfolio. Node is a tagged
// union over this field per the "tagged unions over inheritance" design
// note: callers switch on Kind() and never assume the other variant's
// fields are populated.
type NodeKind int

const (
	NodeKindLeaf NodeKind = iota + 1
	NodeKindPortfolio
)

// Node is either a RiskLeaf or a RiskPortfolio, discriminated by Kind.
// Per the tagged-union design note, exactly one of the leaf/portfolio
// payloads is meaningful for a given Kind.
type Node struct {
	kind     NodeKind
	id       types.NodeID
	name     types.Name
	parentID *types.NodeID

	distribution Distribution // meaningful iff kind == NodeKindLeaf
	childIDs     []types.NodeID // meaningful iff kind == NodeKindPortfolio
}

// NewLeaf constructs a leaf node. Per the open question resolved in
// design, only leaves carry an occurrence distribution.
func NewLeaf(id types.NodeID, name types.Name, parentID *types.NodeID, dist Distribution) Node {
	return Node{kind: NodeKindLeaf, id: id, name: name, parentID: parentID, distribution: dist}
}

// NewPortfolio constructs a portfolio node. childIDs must be non-empty;
// that invariant is enforced by the validator before a tree is built,
// not re-checked here, since Build below performs the authoritative
// topology check.
func NewPortfolio(id types.NodeID, name types.Name, parentID *types.NodeID, childIDs []types.NodeID) Node {
	return Node{kind: NodeKindPortfolio, id: id, name: name, parentID: parentID, childIDs: append([]types.NodeID{}, childIDs...)}
}

// Kind reports whether this is a leaf or a portfolio.
func (n Node) Kind() NodeKind { return n.kind }

// ID returns the node's identity.
func (n Node) ID() types.NodeID { return n.id }

// Name returns the node's display name.
func (n Node) Name() types.Name { return n.name }

// ParentID returns the node's parent, or nil if this is the root.
func (n Node) ParentID() *types.NodeID { return n.parentID }

// Distribution returns the leaf's distribution. Only meaningful when
// Kind() == NodeKindLeaf.
func (n Node) Distribution() Distribution { return n.distribution }

// ChildIDs returns the portfolio's declared children. Only meaningful
// when Kind() == NodeKindPortfolio.
func (n Node) ChildIDs() []types.NodeID { return n.childIDs }

// IsLeaf reports whether this node is a RiskLeaf.
func (n Node) IsLeaf() bool { return n.kind == NodeKindLeaf }

// IsPortfolio reports whether this node is a RiskPortfolio.
func (n Node) IsPortfolio() bool { return n.kind == NodeKindPortfolio }

// Tree owns a flat node set and its derived index. It is immutable once
// constructed: any mutation (create, update, patch, delete) builds and
// validates a fresh Tree rather than mutating an existing one in place.
type Tree struct {
	id    types.TreeID
	name  types.Name
	epoch uint64
	nodes map[string]Node
	index *treeindex.Index
}

// Build validates the full topology of nodes (unique names, single
// root, non-empty portfolios, acyclicity, parent/child consistency) and
// constructs an immutable Tree. epoch is the caller-assigned version
// counter; it is bumped by the caller on every successful mutation, not
// by Build itself.
func Build(id types.TreeID, name types.Name, epoch uint64, nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, riskerrors.New(riskerrors.EMPTY_COLLECTION, "tree must contain at least one node")
	}

	seenNames := make(map[string]bool, len(nodes))
	byID := make(map[string]Node, len(nodes))
	refs := make([]treeindex.NodeRef, 0, len(nodes))

	for _, n := range nodes {
		key := n.ID().String()
		if _, dup := byID[key]; dup {
			return nil, riskerrors.Newf(riskerrors.DUPLICATE_VALUE, "duplicate node id %s", key)
		}
		byID[key] = n

		nameKey := n.Name().String()
		if seenNames[nameKey] {
			return nil, riskerrors.Newf(riskerrors.DUPLICATE_VALUE, "duplicate node name %q", nameKey)
		}
		seenNames[nameKey] = true

		if n.IsPortfolio() && len(n.ChildIDs()) == 0 {
			return nil, riskerrors.Newf(riskerrors.EMPTY_COLLECTION, "portfolio %s has no children", key)
		}

		refs = append(refs, treeindex.NodeRef{ID: n.ID(), ParentID: n.ParentID()})
	}

	idx, err := treeindex.Build(refs)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		parentID := n.ParentID()
		if parentID == nil {
			continue
		}
		parent, ok := byID[parentID.String()]
		if !ok {
			continue // missing reference already rejected by treeindex.Build
		}
		if !parent.IsPortfolio() {
			return nil, riskerrors.Newf(riskerrors.INVALID_NODE_TYPE,
				"node %s declares parent %s, which is a leaf and cannot have children", n.ID(), *parentID)
		}
	}

	for _, n := range nodes {
		if !n.IsPortfolio() {
			continue
		}
		declared := make(map[string]bool, len(n.ChildIDs()))
		for _, c := range n.ChildIDs() {
			declared[c.String()] = true
		}
		actual := idx.Children(n.ID())
		if len(actual) != len(declared) {
			return nil, riskerrors.Newf(riskerrors.CONSTRAINT_VIOLATION,
				"portfolio %s declared children do not match parent pointers", n.ID())
		}
		for _, c := range actual {
			if !declared[c.String()] {
				return nil, riskerrors.Newf(riskerrors.CONSTRAINT_VIOLATION,
					"node %s points to portfolio %s as parent but is not in its declared children", c, n.ID())
			}
		}
	}

	return &Tree{id: id, name: name, epoch: epoch, nodes: byID, index: idx}, nil
}

// ID returns the tree's identity.
func (t *Tree) ID() types.TreeID { return t.id }

// Name returns the tree's display name.
func (t *Tree) Name() types.Name { return t.name }

// Epoch returns the tree's version counter.
func (t *Tree) Epoch() uint64 { return t.epoch }

// RootID returns the tree's single root node.
func (t *Tree) RootID() types.NodeID { return t.index.RootID() }

// Index returns the tree's derived adjacency.
func (t *Tree) Index() *treeindex.Index { return t.index }

// Node looks up a node by id.
func (t *Tree) Node(id types.NodeID) (Node, bool) {
	n, ok := t.nodes[id.String()]
	return n, ok
}

// Nodes returns every node in the tree, in no particular order.
func (t *Tree) Nodes() []Node {
	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

// WithEpoch returns a shallow copy of t with epoch bumped to the given
// value; used after a mutation has been committed to the repository.
func (t *Tree) WithEpoch(epoch uint64) *Tree {
	return &Tree{id: t.id, name: t.name, epoch: epoch, nodes: t.nodes, index: t.index}
}
