package validate

import (
	"testing"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
)

func TestResolveTreeSingleLeaf(t *testing.T) {
	req := TreeRequest{
		Name: "Cyber",
		Nodes: []NodeRequest{
			{
				Kind: "leaf",
				Name: "Ransomware",
				Distribution: &DistributionRequest{
					Type:        "lognormal",
					Probability: 0.3,
					MinLoss:     1000,
					MaxLoss:     10000,
				},
			},
		},
	}

	tree, err := ResolveTree(req)
	if err != nil {
		t.Fatalf("ResolveTree: %v", err)
	}
	if tree.Name().String() != "Cyber" {
		t.Errorf("Name() = %q, want Cyber", tree.Name().String())
	}
}

func TestResolveTreeAccumulatesMultipleErrors(t *testing.T) {
	req := TreeRequest{
		Name: "",
		Nodes: []NodeRequest{
			{Kind: "leaf", Name: "A"},
			{Kind: "bogus", Name: "B"},
		},
	}

	_, err := ResolveTree(req)
	if err == nil {
		t.Fatal("expected accumulated validation errors")
	}
	ve, ok := err.(*Errors)
	if !ok {
		t.Fatalf("expected *Errors, got %T", err)
	}
	if len(ve.List()) < 3 {
		t.Fatalf("expected at least 3 accumulated errors (name, distribution, kind), got %d: %v",
			len(ve.List()), ve.List())
	}
}

func TestResolveNodeRejectsLeafWithChildren(t *testing.T) {
	req := TreeRequest{
		Name: "Cyber",
		Nodes: []NodeRequest{
			{
				Kind:     "leaf",
				Name:     "Bad",
				ChildIDs: []string{"01ARZ3NDEKTSV4RRFFQ69G5FAV"},
				Distribution: &DistributionRequest{
					Type:        "lognormal",
					Probability: 0.3,
					MinLoss:     1000,
					MaxLoss:     10000,
				},
			},
		},
	}
	_, err := ResolveTree(req)
	ve, ok := err.(*Errors)
	if !ok {
		t.Fatalf("expected *Errors, got %T (%v)", err, err)
	}
	found := false
	for _, e := range ve.List() {
		if riskerrors.Code(e) == riskerrors.INVALID_NODE_TYPE {
			found = true
		}
	}
	if !found {
		t.Errorf("expected INVALID_NODE_TYPE among %v", ve.List())
	}
}

func TestResolveTreeRejectsUnsupportedDistributionType(t *testing.T) {
	req := TreeRequest{
		Name: "Cyber",
		Nodes: []NodeRequest{
			{
				Kind: "leaf",
				Name: "X",
				Distribution: &DistributionRequest{
					Type:        "bogus",
					Probability: 0.5,
				},
			},
		},
	}
	_, err := ResolveTree(req)
	ve, ok := err.(*Errors)
	if !ok {
		t.Fatalf("expected *Errors, got %T", err)
	}
	found := false
	for _, e := range ve.List() {
		if riskerrors.Code(e) == riskerrors.UNSUPPORTED_DISTRIBUTION_TYPE {
			found = true
		}
	}
	if !found {
		t.Errorf("expected UNSUPPORTED_DISTRIBUTION_TYPE among %v", ve.List())
	}
}
