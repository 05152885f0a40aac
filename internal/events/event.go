// Package events defines the push notifications the engine emits as
// trees are mutated and simulations complete, and the in-process bus
// subscribers receive them on.
package events

import (
	"github.com/riskforge/lossengine/internal/types"
)

// Type identifies the kind of event.
type Type string

const (
	TypeNodeChanged      Type = "node_changed"
	TypeLECUpdated       Type = "lec_updated"
	TypeCacheInvalidated Type = "cache_invalidated"
	TypeConnectionStatus Type = "connection_status"
)

// Event is the common interface every pushed notification satisfies.
type Event interface {
	Type() Type
	Timestamp() types.Timestamp
}

// Base carries the fields every event shares.
type Base struct {
	EventType Type            `json:"type"`
	EventTime types.Timestamp `json:"timestamp"`
}

// Type returns the event's type discriminant.
func (b Base) Type() Type { return b.EventType }

// Timestamp returns when the event was emitted.
func (b Base) Timestamp() types.Timestamp { return b.EventTime }

// NodeChanged is emitted whenever a node's distribution, name, or
// topology position is mutated.
type NodeChanged struct {
	Base
	TreeID types.TreeID `json:"tree_id"`
	NodeID types.NodeID `json:"node_id"`
	Epoch  uint64       `json:"epoch"`
}

// NewNodeChanged constructs a NodeChanged event stamped with the
// current time.
func NewNodeChanged(treeID types.TreeID, nodeID types.NodeID, epoch uint64) NodeChanged {
	return NodeChanged{
		Base:   Base{EventType: TypeNodeChanged, EventTime: types.Now()},
		TreeID: treeID,
		NodeID: nodeID,
		Epoch:  epoch,
	}
}

// LECUpdated is emitted each time the tree service builds a node's loss
// exceedance curve for a query, whether the underlying outcome was
// freshly simulated or served from cache.
type LECUpdated struct {
	Base
	TreeID types.TreeID `json:"tree_id"`
	NodeID types.NodeID `json:"node_id"`
	Epoch  uint64       `json:"epoch"`
}

// NewLECUpdated constructs an LECUpdated event stamped with the current
// time.
func NewLECUpdated(treeID types.TreeID, nodeID types.NodeID, epoch uint64) LECUpdated {
	return LECUpdated{
		Base:   Base{EventType: TypeLECUpdated, EventTime: types.Now()},
		TreeID: treeID,
		NodeID: nodeID,
		Epoch:  epoch,
	}
}

// CacheInvalidated is emitted for every ancestor whose cached curve was
// discarded by a mutation further down the tree.
type CacheInvalidated struct {
	Base
	TreeID  types.TreeID   `json:"tree_id"`
	NodeIDs []types.NodeID `json:"node_ids"`
}

// NewCacheInvalidated constructs a CacheInvalidated event stamped with
// the current time.
func NewCacheInvalidated(treeID types.TreeID, nodeIDs []types.NodeID) CacheInvalidated {
	return CacheInvalidated{
		Base:    Base{EventType: TypeCacheInvalidated, EventTime: types.Now()},
		TreeID:  treeID,
		NodeIDs: append([]types.NodeID{}, nodeIDs...),
	}
}

// ConnectionState describes the subscriber-facing connection lifecycle.
type ConnectionState string

const (
	ConnectionStateConnected    ConnectionState = "connected"
	ConnectionStateDisconnected ConnectionState = "disconnected"
)

// ConnectionStatus is emitted when a subscriber's feed transitions
// connected/disconnected, e.g. around backend-unavailable retries.
type ConnectionStatus struct {
	Base
	State ConnectionState `json:"state"`
}

// NewConnectionStatus constructs a ConnectionStatus event stamped with
// the current time.
func NewConnectionStatus(state ConnectionState) ConnectionStatus {
	return ConnectionStatus{
		Base:  Base{EventType: TypeConnectionStatus, EventTime: types.Now()},
		State: state,
	}
}
