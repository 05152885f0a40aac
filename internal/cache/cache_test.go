package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/treeindex"
	"github.com/riskforge/lossengine/internal/types"
)

func TestGetOrComputeCachesResult(t *testing.T) {
	c := New()
	treeID := types.NewTreeID()
	nodeID := types.NewNodeID()

	var calls int32
	compute := func(context.Context) (outcome.Map, error) {
		atomic.AddInt32(&calls, 1)
		return outcome.Empty(10), nil
	}

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrCompute(context.Background(), treeID, nodeID, 0, compute); err != nil {
			t.Fatalf("GetOrCompute: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}
}

func TestGetOrComputeCollapsesConcurrentCallers(t *testing.T) {
	c := New()
	treeID := types.NewTreeID()
	nodeID := types.NewNodeID()

	var calls int32
	release := make(chan struct{})
	compute := func(context.Context) (outcome.Map, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return outcome.Empty(10), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCompute(context.Background(), treeID, nodeID, 0, compute)
		}()
	}
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("compute called %d times under concurrent access, want 1", calls)
	}
}

func TestDifferentEpochsAreDistinctEntries(t *testing.T) {
	c := New()
	treeID := types.NewTreeID()
	nodeID := types.NewNodeID()

	c.Put(treeID, nodeID, 0, outcome.Empty(5))
	if _, ok := c.Get(treeID, nodeID, 1); ok {
		t.Error("expected no entry at epoch 1")
	}
	if _, ok := c.Get(treeID, nodeID, 0); !ok {
		t.Error("expected entry at epoch 0")
	}
}

func TestInvalidateTreeDropsAllItsEntries(t *testing.T) {
	c := New()
	treeA := types.NewTreeID()
	treeB := types.NewTreeID()
	node := types.NewNodeID()

	c.Put(treeA, node, 0, outcome.Empty(1))
	c.Put(treeB, node, 0, outcome.Empty(1))

	c.InvalidateTree(treeA)

	if _, ok := c.Get(treeA, node, 0); ok {
		t.Error("expected treeA entry removed")
	}
	if _, ok := c.Get(treeB, node, 0); !ok {
		t.Error("expected treeB entry untouched")
	}
}

func TestInvalidateAncestorsWalksUpToRoot(t *testing.T) {
	root := types.NewNodeID()
	mid := types.NewNodeID()
	leaf := types.NewNodeID()
	idx, err := treeindex.Build([]treeindex.NodeRef{
		{ID: root},
		{ID: mid, ParentID: &root},
		{ID: leaf, ParentID: &mid},
	})
	if err != nil {
		t.Fatalf("treeindex.Build: %v", err)
	}

	c := New()
	treeID := types.NewTreeID()
	c.Put(treeID, root, 0, outcome.Empty(1))
	c.Put(treeID, mid, 0, outcome.Empty(1))
	c.Put(treeID, leaf, 0, outcome.Empty(1))

	invalidated := c.InvalidateAncestors(treeID, idx, leaf, 0)
	if len(invalidated) != 3 {
		t.Fatalf("expected 3 invalidated ids (leaf, mid, root), got %d", len(invalidated))
	}

	for _, id := range []types.NodeID{root, mid, leaf} {
		if _, ok := c.Get(treeID, id, 0); ok {
			t.Errorf("expected entry for %s to be invalidated", id)
		}
	}
}
