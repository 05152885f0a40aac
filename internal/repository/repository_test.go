package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

func mustName(t *testing.T, s string) types.Name {
	t.Helper()
	n, err := types.NewName(s)
	if err != nil {
		t.Fatalf("NewName: %v", err)
	}
	return n
}

func mustProbability(t *testing.T, p float64) types.Probability {
	t.Helper()
	prob, err := types.NewProbability(p)
	if err != nil {
		t.Fatalf("NewProbability: %v", err)
	}
	return prob
}

func singleLeafTree(t *testing.T) *risktree.Tree {
	t.Helper()
	dist, err := risktree.NewLognormalDistribution(mustProbability(t, 0.5), 1000, 10000)
	if err != nil {
		t.Fatalf("NewLognormalDistribution: %v", err)
	}
	leaf := risktree.NewLeaf(types.NewNodeID(), mustName(t, "Ransomware"), nil, dist)
	tree, err := risktree.Build(types.NewTreeID(), mustName(t, "Cyber"), 0, []risktree.Node{leaf})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func portfolioTree(t *testing.T) *risktree.Tree {
	t.Helper()
	rootID := types.NewNodeID()
	aID := types.NewNodeID()
	dist, err := risktree.NewLognormalDistribution(mustProbability(t, 0.5), 1000, 10000)
	if err != nil {
		t.Fatalf("NewLognormalDistribution: %v", err)
	}
	a := risktree.NewLeaf(aID, mustName(t, "A"), &rootID, dist)
	root := risktree.NewPortfolio(rootID, mustName(t, "Root"), nil, []types.NodeID{aID})
	tree, err := risktree.Build(types.NewTreeID(), mustName(t, "Cyber"), 0, []risktree.Node{root, a})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return tree
}

func runRepositoryConformance(t *testing.T, newRepo func(t *testing.T) Repository) {
	t.Run("CreateThenGet", func(t *testing.T) {
		repo := newRepo(t)
		tree := singleLeafTree(t)
		if err := repo.Create(context.Background(), tree); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.Get(context.Background(), tree.ID())
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if !got.ID().Equal(tree.ID()) {
			t.Errorf("Get() id = %s, want %s", got.ID(), tree.ID())
		}
		if got.Name().String() != tree.Name().String() {
			t.Errorf("Get() name = %q, want %q", got.Name(), tree.Name())
		}
	})

	t.Run("GetMissingReturnsTreeNotFound", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Get(context.Background(), types.NewTreeID())
		if riskerrors.Code(err) != riskerrors.TREE_NOT_FOUND {
			t.Fatalf("expected TREE_NOT_FOUND, got %v", err)
		}
	})

	t.Run("CreateDuplicateConflicts", func(t *testing.T) {
		repo := newRepo(t)
		tree := singleLeafTree(t)
		if err := repo.Create(context.Background(), tree); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.Create(context.Background(), tree); riskerrors.Code(err) != riskerrors.CONFLICT {
			t.Fatalf("expected CONFLICT on duplicate create, got %v", err)
		}
	})

	t.Run("SaveWithStaleEpochConflicts", func(t *testing.T) {
		repo := newRepo(t)
		tree := singleLeafTree(t)
		if err := repo.Create(context.Background(), tree); err != nil {
			t.Fatalf("Create: %v", err)
		}
		bumped := tree.WithEpoch(1)
		if err := repo.Save(context.Background(), bumped, 0); err != nil {
			t.Fatalf("Save: %v", err)
		}
		staleBump := tree.WithEpoch(2)
		if err := repo.Save(context.Background(), staleBump, 0); riskerrors.Code(err) != riskerrors.CONFLICT {
			t.Fatalf("expected CONFLICT saving against a stale epoch, got %v", err)
		}
	})

	t.Run("DeleteThenGetNotFound", func(t *testing.T) {
		repo := newRepo(t)
		tree := singleLeafTree(t)
		if err := repo.Create(context.Background(), tree); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.Delete(context.Background(), tree.ID()); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.Get(context.Background(), tree.ID()); riskerrors.Code(err) != riskerrors.TREE_NOT_FOUND {
			t.Fatalf("expected TREE_NOT_FOUND after delete, got %v", err)
		}
	})

	t.Run("ListReturnsAllCreatedTrees", func(t *testing.T) {
		repo := newRepo(t)
		a := singleLeafTree(t)
		b := singleLeafTree(t)
		if err := repo.Create(context.Background(), a); err != nil {
			t.Fatalf("Create a: %v", err)
		}
		if err := repo.Create(context.Background(), b); err != nil {
			t.Fatalf("Create b: %v", err)
		}
		list, err := repo.List(context.Background())
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("List() len = %d, want 2", len(list))
		}
	})

	t.Run("RoundTripsPortfolioWithChildren", func(t *testing.T) {
		repo := newRepo(t)
		tree := portfolioTree(t)
		if err := repo.Create(context.Background(), tree); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.Get(context.Background(), tree.ID())
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got.Index().Children(got.RootID())) != 1 {
			t.Errorf("expected round-tripped portfolio to retain its one child")
		}
	})
}

func TestMemoryRepositoryConformance(t *testing.T) {
	runRepositoryConformance(t, func(t *testing.T) Repository {
		return NewMemory()
	})
}

func TestFSRepositoryConformance(t *testing.T) {
	runRepositoryConformance(t, func(t *testing.T) Repository {
		dir := filepath.Join(t.TempDir(), "repo")
		repo, err := NewFS(dir)
		if err != nil {
			t.Fatalf("NewFS: %v", err)
		}
		return repo
	})
}

type flakyRepository struct {
	Repository
	failuresLeft int
}

func (f *flakyRepository) Get(ctx context.Context, id types.TreeID) (*risktree.Tree, error) {
	if f.failuresLeft > 0 {
		f.failuresLeft--
		return nil, riskerrors.New(riskerrors.BACKEND_UNAVAILABLE, "backend hiccup")
	}
	return f.Repository.Get(ctx, id)
}

func TestRetryingRetriesBackendUnavailable(t *testing.T) {
	mem := NewMemory()
	tree := singleLeafTree(t)
	if err := mem.Create(context.Background(), tree); err != nil {
		t.Fatalf("Create: %v", err)
	}

	flaky := &flakyRepository{Repository: mem, failuresLeft: 2}
	retrying := NewRetrying(flaky, 2*time.Second)

	got, err := retrying.Get(context.Background(), tree.ID())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.ID().Equal(tree.ID()) {
		t.Errorf("Get() id = %s, want %s", got.ID(), tree.ID())
	}
}

func TestRetryingDoesNotRetryNotFound(t *testing.T) {
	mem := NewMemory()
	retrying := NewRetrying(mem, 2*time.Second)

	_, err := retrying.Get(context.Background(), types.NewTreeID())
	if riskerrors.Code(err) != riskerrors.TREE_NOT_FOUND {
		t.Fatalf("expected TREE_NOT_FOUND to pass through unretried, got %v", err)
	}
}
