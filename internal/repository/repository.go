// Package repository persists RiskTrees under the layout
// tree/<treeId>/nodes/<nodeId> plus a tree/<treeId>/meta record, and
// resolves concurrent writers via the tree's epoch counter.
package repository

import (
	"context"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// Repository is the persistence seam the tree service depends on. Every
// implementation enforces optimistic concurrency: Save fails with
// CONFLICT if expectedEpoch does not match the currently stored epoch.
type Repository interface {
	// Create stores a brand-new tree at epoch 0. Fails with CONFLICT if
	// a tree with the same id already exists.
	Create(ctx context.Context, tree *risktree.Tree) error

	// Get loads a tree by id, or fails with TREE_NOT_FOUND if absent.
	Get(ctx context.Context, id types.TreeID) (*risktree.Tree, error)

	// List returns every stored tree's id and name, cheaply (without
	// loading each tree's full node set where the backend allows it).
	List(ctx context.Context) ([]Summary, error)

	// Save persists tree, which must carry epoch = expectedEpoch + 1: the
	// caller bumps the epoch via Tree.WithEpoch before calling Save.
	// Fails with CONFLICT if the stored epoch has since moved past
	// expectedEpoch.
	Save(ctx context.Context, tree *risktree.Tree, expectedEpoch uint64) error

	// Delete removes a tree entirely. Fails with TREE_NOT_FOUND if absent.
	Delete(ctx context.Context, id types.TreeID) error
}

// Summary is the cheap listing shape List returns.
type Summary struct {
	ID    types.TreeID
	Name  types.Name
	Epoch uint64
}

// ErrNotFound helpers shared by every backend.
func notFoundTree(id types.TreeID) error {
	return riskerrors.Newf(riskerrors.TREE_NOT_FOUND, "tree %s not found", id)
}

func conflict(id types.TreeID, expected, actual uint64) error {
	return riskerrors.Newf(riskerrors.CONFLICT,
		"tree %s epoch conflict: expected %d, actual %d", id, expected, actual)
}
