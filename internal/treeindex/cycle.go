package treeindex

import (
	"strings"

	"github.com/riskforge/lossengine/internal/types"
)

// color constants for DFS-based cycle detection using the three-color
// algorithm (white/gray/black).
const (
	white = 0
	gray  = 1
	black = 2
)

// CycleResult reports whether walking the parent relation from a node
// re-visits a node still on the current path.
type CycleResult struct {
	HasCycle bool
	Path     []types.NodeID
}

// Error renders a human-readable description of the cycle, or "" if none.
func (r CycleResult) Error() string {
	if !r.HasCycle {
		return ""
	}
	parts := make([]string, len(r.Path))
	for i, id := range r.Path {
		parts[i] = id.String()
	}
	return "parent cycle detected: " + strings.Join(parts, " -> ")
}

// detectCycleFrom walks the parent chain from startID using three-color
// DFS, returning the first cycle found reachable from startID.
func detectCycleFrom(parents map[string]types.NodeID, startID types.NodeID) CycleResult {
	colors := make(map[string]int)
	path := make([]types.NodeID, 0)
	hasCycle, cyclePath := cycleDFS(parents, startID, colors, path)
	return CycleResult{HasCycle: hasCycle, Path: cyclePath}
}

func cycleDFS(parents map[string]types.NodeID, id types.NodeID, colors map[string]int, path []types.NodeID) (bool, []types.NodeID) {
	key := id.String()
	switch colors[key] {
	case gray:
		cyclePath := make([]types.NodeID, 0, len(path)+1)
		inCycle := false
		for _, p := range path {
			if p.String() == key {
				inCycle = true
			}
			if inCycle {
				cyclePath = append(cyclePath, p)
			}
		}
		cyclePath = append(cyclePath, id)
		return true, cyclePath
	case black:
		return false, nil
	default:
		colors[key] = gray
		newPath := append(append([]types.NodeID{}, path...), id)
		if parent, ok := parents[key]; ok {
			if hasCycle, cyclePath := cycleDFS(parents, parent, colors, newPath); hasCycle {
				return true, cyclePath
			}
		}
		colors[key] = black
		return false, nil
	}
}

// detectAnyCycle checks every node for a reachable cycle in the parent
// relation, short-circuiting on the first one found.
func detectAnyCycle(parents map[string]types.NodeID, allIDs []types.NodeID) CycleResult {
	colors := make(map[string]int)
	for _, id := range allIDs {
		if colors[id.String()] == black {
			continue
		}
		path := make([]types.NodeID, 0)
		if hasCycle, cyclePath := cycleDFS(parents, id, colors, path); hasCycle {
			return CycleResult{HasCycle: true, Path: cyclePath}
		}
	}
	return CycleResult{HasCycle: false}
}
