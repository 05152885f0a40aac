package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

// Memory is the default in-process Repository: trees live only for the
// lifetime of the process, guarded by a single mutex.
type Memory struct {
	mu    sync.RWMutex
	trees map[string]*risktree.Tree
}

// NewMemory constructs an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{trees: make(map[string]*risktree.Tree)}
}

func (m *Memory) Create(ctx context.Context, tree *risktree.Tree) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tree.ID().String()
	if _, exists := m.trees[key]; exists {
		return conflict(tree.ID(), 0, m.trees[key].Epoch())
	}
	m.trees[key] = tree
	return nil
}

func (m *Memory) Get(ctx context.Context, id types.TreeID) (*risktree.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tree, ok := m.trees[id.String()]
	if !ok {
		return nil, notFoundTree(id)
	}
	return tree, nil
}

func (m *Memory) List(ctx context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.trees))
	for _, tree := range m.trees {
		out = append(out, Summary{ID: tree.ID(), Name: tree.Name(), Epoch: tree.Epoch()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *Memory) Save(ctx context.Context, tree *risktree.Tree, expectedEpoch uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := tree.ID().String()
	current, ok := m.trees[key]
	if !ok {
		return notFoundTree(tree.ID())
	}
	if current.Epoch() != expectedEpoch {
		return conflict(tree.ID(), expectedEpoch, current.Epoch())
	}
	m.trees[key] = tree
	return nil
}

func (m *Memory) Delete(ctx context.Context, id types.TreeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := id.String()
	if _, ok := m.trees[key]; !ok {
		return notFoundTree(id)
	}
	delete(m.trees, key)
	return nil
}

var _ Repository = (*Memory)(nil)
