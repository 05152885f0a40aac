package validate

import (
	"strconv"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// DistributionRequest is the wire-level shape of a leaf's occurrence
// distribution, accepting either a lognormal fit from a confidence
// interval or an expert-elicited Metalog quantile function.
type DistributionRequest struct {
	Type        string  `json:"type"`
	Probability float64 `json:"probability"`

	// Lognormal fields.
	MinLoss int64 `json:"minLoss,omitempty"`
	MaxLoss int64 `json:"maxLoss,omitempty"`

	// Expert (Metalog) fields.
	Percentiles []float64 `json:"percentiles,omitempty"`
	Quantiles   []int64   `json:"quantiles,omitempty"`
	Terms       int       `json:"terms,omitempty"`
}

// NodeRequest is the wire-level shape of a single tree node: either a
// leaf (Kind == "leaf", Distribution populated) or a portfolio
// (Kind == "portfolio", ChildIDs populated).
type NodeRequest struct {
	ID           string               `json:"id,omitempty"`
	Kind         string               `json:"kind"`
	Name         string               `json:"name"`
	ParentID     string               `json:"parentId,omitempty"`
	Distribution *DistributionRequest `json:"distribution,omitempty"`
	ChildIDs     []string             `json:"childIds,omitempty"`
}

// TreeRequest is the wire-level shape of a full tree: a name plus its
// flat node set.
type TreeRequest struct {
	Name  string        `json:"name"`
	Nodes []NodeRequest `json:"nodes"`
}

// ResolveTree validates and converts req into a risktree.Tree, assigning
// a fresh TreeID and epoch 0. Every violation found while resolving
// individual nodes is accumulated; if any exist, Build is never called
// and the accumulated Errors is returned.
func ResolveTree(req TreeRequest) (*risktree.Tree, error) {
	return resolveTree(types.NewTreeID(), 0, req)
}

// ResolveTreeUpdate validates and converts req into a full replacement
// for the tree identified by id: existing nodes are carried over by the
// ids req.Nodes supplies, new nodes (empty id) are allocated
// server-side, and any node belonging to the tree but absent from req
// is implicitly deleted. Topology — including "no portfolio left
// empty" — is re-validated over the resulting combined set by Build, the
// same as on create.
func ResolveTreeUpdate(id types.TreeID, epoch uint64, req TreeRequest) (*risktree.Tree, error) {
	return resolveTree(id, epoch, req)
}

func resolveTree(id types.TreeID, epoch uint64, req TreeRequest) (*risktree.Tree, error) {
	var errs Errors

	name, err := types.NewName(req.Name)
	if err != nil {
		errs.Addf(riskerrors.REQUIRED_FIELD, "name", "%v", err)
	}

	if len(req.Nodes) == 0 {
		errs.Addf(riskerrors.EMPTY_COLLECTION, "nodes", "tree must declare at least one node")
	}

	nodes := make([]risktree.Node, 0, len(req.Nodes))
	for i, nr := range req.Nodes {
		n, ok := resolveNode(&errs, i, nr)
		if ok {
			nodes = append(nodes, n)
		}
	}

	if errs.HasErrors() {
		return nil, errs.Err()
	}

	return risktree.Build(id, name, epoch, nodes)
}

// resolveNode validates a single NodeRequest, recording any violations
// against errs and returning ok=false if the node could not be
// constructed at all (callers should still continue resolving siblings
// to surface every problem in one pass).
func resolveNode(errs *Errors, index int, nr NodeRequest) (risktree.Node, bool) {
	field := func(suffix string) string { return nodeField(index, suffix) }

	var id types.NodeID
	if nr.ID == "" {
		id = types.NewNodeID()
	} else {
		parsed, err := types.ParseNodeID(nr.ID)
		if err != nil {
			errs.Addf(riskerrors.INVALID_FORMAT, field("id"), "%v", err)
			return risktree.Node{}, false
		}
		id = parsed
	}

	name, err := types.NewName(nr.Name)
	if err != nil {
		errs.Addf(riskerrors.REQUIRED_FIELD, field("name"), "%v", err)
	}

	var parentID *types.NodeID
	if nr.ParentID != "" {
		p, err := types.ParseNodeID(nr.ParentID)
		if err != nil {
			errs.Addf(riskerrors.INVALID_FORMAT, field("parentId"), "%v", err)
		} else {
			parentID = &p
		}
	}

	switch nr.Kind {
	case "leaf":
		if nr.Distribution == nil {
			errs.Addf(riskerrors.REQUIRED_FIELD, field("distribution"), "leaf nodes require a distribution")
			return risktree.Node{}, false
		}
		if len(nr.ChildIDs) != 0 {
			errs.Addf(riskerrors.INVALID_NODE_TYPE, field("childIds"), "leaf nodes may not declare children")
		}
		dist, ok := resolveDistribution(errs, field("distribution"), *nr.Distribution)
		if !ok {
			return risktree.Node{}, false
		}
		return risktree.NewLeaf(id, name, parentID, dist), true

	case "portfolio":
		if nr.Distribution != nil {
			errs.Addf(riskerrors.INVALID_NODE_TYPE, field("distribution"), "portfolio nodes may not declare a distribution")
		}
		childIDs := make([]types.NodeID, 0, len(nr.ChildIDs))
		for j, raw := range nr.ChildIDs {
			cid, err := types.ParseNodeID(raw)
			if err != nil {
				errs.Addf(riskerrors.INVALID_FORMAT, field(childField(j)), "%v", err)
				continue
			}
			childIDs = append(childIDs, cid)
		}
		return risktree.NewPortfolio(id, name, parentID, childIDs), true

	default:
		errs.Addf(riskerrors.INVALID_NODE_TYPE, field("kind"), "unknown node kind %q", nr.Kind)
		return risktree.Node{}, false
	}
}

// ResolveDistribution validates and fits a standalone DistributionRequest,
// the shape patchDistribution's request body takes.
func ResolveDistribution(dr DistributionRequest) (risktree.Distribution, error) {
	var errs Errors
	dist, ok := resolveDistribution(&errs, "distribution", dr)
	if !ok {
		return risktree.Distribution{}, errs.Err()
	}
	return dist, nil
}

// ResolveName validates a standalone name, the shape renameNode's
// request body takes.
func ResolveName(s string) (types.Name, error) {
	name, err := types.NewName(s)
	if err != nil {
		return types.Name{}, riskerrors.Newf(riskerrors.REQUIRED_FIELD, "%v", err).WithField("name")
	}
	return name, nil
}

// resolveDistribution validates and fits a DistributionRequest.
func resolveDistribution(errs *Errors, field string, dr DistributionRequest) (risktree.Distribution, bool) {
	p, err := types.NewProbability(dr.Probability)
	if err != nil {
		errs.Addf(riskerrors.INVALID_RANGE, field+".probability", "%v", err)
		return risktree.Distribution{}, false
	}

	kind, err := risktree.ParseDistributionKind(dr.Type)
	if err != nil {
		errs.Add(riskerrors.Wrap(err, "distribution type").WithField(field + ".type"))
		return risktree.Distribution{}, false
	}

	switch kind {
	case risktree.KindLognormal:
		dist, err := risktree.NewLognormalDistribution(p, dr.MinLoss, dr.MaxLoss)
		if err != nil {
			errs.Add(riskerrors.Wrap(err, "lognormal fit").WithField(field))
			return risktree.Distribution{}, false
		}
		return dist, true

	case risktree.KindExpert:
		dist, err := risktree.NewExpertDistribution(p, dr.Percentiles, dr.Quantiles, dr.Terms)
		if err != nil {
			errs.Add(riskerrors.Wrap(err, "metalog fit").WithField(field))
			return risktree.Distribution{}, false
		}
		return dist, true
	}

	errs.Addf(riskerrors.UNSUPPORTED_DISTRIBUTION_TYPE, field+".type", "unsupported distribution type %q", dr.Type)
	return risktree.Distribution{}, false
}

func nodeField(index int, suffix string) string {
	return "nodes[" + strconv.Itoa(index) + "]." + suffix
}

func childField(index int) string {
	return "childIds[" + strconv.Itoa(index) + "]"
}
