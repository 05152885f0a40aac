package repository

import (
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// metaRecord is the JSON shape of tree/<treeId>/meta.
type metaRecord struct {
	Name   string `json:"name"`
	RootID string `json:"rootId"`
	Epoch  uint64 `json:"epoch"`
}

// distributionRecord is the JSON shape of a leaf's distribution within
// tree/<treeId>/nodes/<nodeId>.
type distributionRecord struct {
	Type        string    `json:"type"`
	Probability float64   `json:"probability"`
	MinLoss     int64     `json:"minLoss,omitempty"`
	MaxLoss     int64     `json:"maxLoss,omitempty"`
	Percentiles []float64 `json:"percentiles,omitempty"`
	Quantiles   []int64   `json:"quantiles,omitempty"`
	Terms       int       `json:"terms,omitempty"`
}

// nodeRecord is the JSON shape of tree/<treeId>/nodes/<nodeId>.
type nodeRecord struct {
	ID           string              `json:"id"`
	Kind         string              `json:"kind"`
	Name         string              `json:"name"`
	ParentID     string              `json:"parentId,omitempty"`
	Distribution *distributionRecord `json:"distribution,omitempty"`
	ChildIDs     []string            `json:"childIds,omitempty"`
}

// toNodeRecord flattens a risktree.Node into its persisted shape.
func toNodeRecord(n risktree.Node) nodeRecord {
	rec := nodeRecord{ID: n.ID().String(), Name: n.Name().String()}
	if p := n.ParentID(); p != nil {
		rec.ParentID = p.String()
	}
	if n.IsLeaf() {
		rec.Kind = "leaf"
		dist := n.Distribution()
		dr := &distributionRecord{Probability: dist.Probability().Float64()}
		switch dist.Kind() {
		case risktree.KindLognormal:
			dr.Type = "lognormal"
			dr.MinLoss, dr.MaxLoss = dist.MinMax()
		case risktree.KindExpert:
			dr.Type = "expert"
			dr.Percentiles, dr.Quantiles, dr.Terms = dist.ExpertParams()
		}
		rec.Distribution = dr
	} else {
		rec.Kind = "portfolio"
		children := n.ChildIDs()
		rec.ChildIDs = make([]string, len(children))
		for i, c := range children {
			rec.ChildIDs[i] = c.String()
		}
	}
	return rec
}

// fromNodeRecord reconstructs a risktree.Node from its persisted shape.
func fromNodeRecord(rec nodeRecord) (risktree.Node, error) {
	id, err := types.ParseNodeID(rec.ID)
	if err != nil {
		return risktree.Node{}, err
	}
	name, err := types.NewName(rec.Name)
	if err != nil {
		return risktree.Node{}, err
	}
	var parentID *types.NodeID
	if rec.ParentID != "" {
		p, err := types.ParseNodeID(rec.ParentID)
		if err != nil {
			return risktree.Node{}, err
		}
		parentID = &p
	}

	if rec.Kind == "leaf" {
		p, err := types.NewProbability(rec.Distribution.Probability)
		if err != nil {
			return risktree.Node{}, err
		}
		var dist risktree.Distribution
		switch rec.Distribution.Type {
		case "expert":
			dist, err = risktree.NewExpertDistribution(p, rec.Distribution.Percentiles, rec.Distribution.Quantiles, rec.Distribution.Terms)
		default:
			dist, err = risktree.NewLognormalDistribution(p, rec.Distribution.MinLoss, rec.Distribution.MaxLoss)
		}
		if err != nil {
			return risktree.Node{}, err
		}
		return risktree.NewLeaf(id, name, parentID, dist), nil
	}

	childIDs := make([]types.NodeID, len(rec.ChildIDs))
	for i, raw := range rec.ChildIDs {
		cid, err := types.ParseNodeID(raw)
		if err != nil {
			return risktree.Node{}, err
		}
		childIDs[i] = cid
	}
	return risktree.NewPortfolio(id, name, parentID, childIDs), nil
}
