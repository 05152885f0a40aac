// Package cache holds epoch-tagged per-node simulation outcomes so that
// repeated LEC queries against an unchanged tree avoid resimulating, and
// invalidates itself along a node's ancestor path whenever a mutation
// changes what a portfolio's cached outcome would have folded in.
package cache

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/riskforge/lossengine/internal/outcome"
	"github.com/riskforge/lossengine/internal/types"
)

// key identifies a cached outcome: a specific node within a specific
// tree epoch. Outcomes from a stale epoch are never served; they are
// simply absent once the epoch advances past them, since entries are
// keyed by (tree, node, epoch) rather than overwritten in place.
type key struct {
	treeID types.TreeID
	nodeID types.NodeID
	epoch  uint64
}

// defaultCapacity bounds how many (tree,node,epoch) outcomes are held
// at once; least-recently-used entries are evicted first.
const defaultCapacity = 4096

// Cache memoizes simulated outcomes per (tree, node, epoch) and
// collapses concurrent simulation requests for the same key into one
// simulation via singleflight.
type Cache struct {
	lru    *lru.Cache[key, outcome.Map]
	flight singleflight.Group
}

// New constructs a Cache with the default capacity.
func New() *Cache {
	c, err := lru.New[key, outcome.Map](defaultCapacity)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// defaultCapacity never is.
		panic(err)
	}
	return &Cache{lru: c}
}

// Get returns the cached outcome for (treeID, nodeID, epoch), if present.
func (c *Cache) Get(treeID types.TreeID, nodeID types.NodeID, epoch uint64) (outcome.Map, bool) {
	return c.lru.Get(key{treeID: treeID, nodeID: nodeID, epoch: epoch})
}

// Put stores an outcome for (treeID, nodeID, epoch).
func (c *Cache) Put(treeID types.TreeID, nodeID types.NodeID, epoch uint64, out outcome.Map) {
	c.lru.Add(key{treeID: treeID, nodeID: nodeID, epoch: epoch}, out)
}

// GetOrCompute returns the cached outcome for the key if present;
// otherwise it invokes compute exactly once even if called concurrently
// for the same key, caching and returning the result.
func (c *Cache) GetOrCompute(ctx context.Context, treeID types.TreeID, nodeID types.NodeID, epoch uint64, compute func(context.Context) (outcome.Map, error)) (outcome.Map, error) {
	if out, ok := c.Get(treeID, nodeID, epoch); ok {
		return out, nil
	}

	flightKey := treeID.String() + "/" + nodeID.String() + "/" + strconv.FormatUint(epoch, 10)
	v, err, _ := c.flight.Do(flightKey, func() (any, error) {
		out, err := compute(ctx)
		if err != nil {
			return outcome.Map{}, err
		}
		c.Put(treeID, nodeID, epoch, out)
		return out, nil
	})
	if err != nil {
		return outcome.Map{}, err
	}
	return v.(outcome.Map), nil
}

// InvalidateTree drops every cached entry for treeID, regardless of
// node or epoch; used when a tree is deleted.
func (c *Cache) InvalidateTree(treeID types.TreeID) {
	for _, k := range c.lru.Keys() {
		if k.treeID.Equal(treeID) {
			c.lru.Remove(k)
		}
	}
}
