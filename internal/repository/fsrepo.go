package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	riskerrors "github.com/riskforge/lossengine/internal/errors"
	"github.com/riskforge/lossengine/internal/risktree"
	"github.com/riskforge/lossengine/internal/types"
)

const (
	treesDirName = "tree"
	nodesDirName = "nodes"
	metaFileName = "meta.json"
)

// FS is a filesystem-backed Repository, laying trees out as
// tree/<treeId>/nodes/<nodeId>.json and tree/<treeId>/meta.json. Writes
// are atomic: a temp file is written and renamed into place, so a crash
// mid-write never leaves a half-written record visible.
type FS struct {
	mu   sync.Mutex
	root string
}

// NewFS constructs an FS repository rooted at dir, creating it if
// necessary.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, riskerrors.Wrap(err, "creating repository root")
	}
	return &FS{root: dir}, nil
}

func (f *FS) treeDir(id types.TreeID) string {
	return filepath.Join(f.root, treesDirName, id.String())
}

func (f *FS) nodesDir(id types.TreeID) string {
	return filepath.Join(f.treeDir(id), nodesDirName)
}

func (f *FS) metaPath(id types.TreeID) string {
	return filepath.Join(f.treeDir(id), metaFileName)
}

func (f *FS) nodePath(treeID types.TreeID, nodeID types.NodeID) string {
	return filepath.Join(f.nodesDir(treeID), nodeID.String()+".json")
}

// writeJSON marshals v and writes it to path atomically: write to a
// temp file in the same directory, then rename.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (f *FS) readMeta(id types.TreeID) (metaRecord, error) {
	var meta metaRecord
	if err := readJSON(f.metaPath(id), &meta); err != nil {
		if os.IsNotExist(err) {
			return metaRecord{}, notFoundTree(id)
		}
		return metaRecord{}, riskerrors.Wrap(err, "reading tree meta")
	}
	return meta, nil
}

func (f *FS) readTree(id types.TreeID) (*risktree.Tree, error) {
	meta, err := f.readMeta(id)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(f.nodesDir(id))
	if err != nil {
		return nil, riskerrors.Wrap(err, "listing tree nodes")
	}

	nodes := make([]risktree.Node, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var rec nodeRecord
		if err := readJSON(filepath.Join(f.nodesDir(id), entry.Name()), &rec); err != nil {
			return nil, riskerrors.Wrap(err, "reading node "+entry.Name())
		}
		node, err := fromNodeRecord(rec)
		if err != nil {
			return nil, riskerrors.Wrap(err, "decoding node "+entry.Name())
		}
		nodes = append(nodes, node)
	}

	name, err := types.NewName(meta.Name)
	if err != nil {
		return nil, riskerrors.Wrap(err, "decoding tree name")
	}

	return risktree.Build(id, name, meta.Epoch, nodes)
}

func (f *FS) writeTree(tree *risktree.Tree) error {
	nodesDir := f.nodesDir(tree.ID())
	if err := os.MkdirAll(nodesDir, 0755); err != nil {
		return err
	}

	for _, node := range tree.Nodes() {
		if err := writeJSON(f.nodePath(tree.ID(), node.ID()), toNodeRecord(node)); err != nil {
			return err
		}
	}

	meta := metaRecord{Name: tree.Name().String(), RootID: tree.RootID().String(), Epoch: tree.Epoch()}
	return writeJSON(f.metaPath(tree.ID()), meta)
}

func (f *FS) Create(ctx context.Context, tree *risktree.Tree) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(f.metaPath(tree.ID())); err == nil {
		return conflict(tree.ID(), 0, tree.Epoch())
	}
	return f.writeTree(tree)
}

func (f *FS) Get(ctx context.Context, id types.TreeID) (*risktree.Tree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readTree(id)
}

func (f *FS) List(ctx context.Context) ([]Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	treesRoot := filepath.Join(f.root, treesDirName)
	entries, err := os.ReadDir(treesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, riskerrors.Wrap(err, "listing trees")
	}

	out := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := types.ParseTreeID(entry.Name())
		if err != nil {
			continue
		}
		meta, err := f.readMeta(id)
		if err != nil {
			continue
		}
		name, err := types.NewName(meta.Name)
		if err != nil {
			continue
		}
		out = append(out, Summary{ID: id, Name: name, Epoch: meta.Epoch})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *FS) Save(ctx context.Context, tree *risktree.Tree, expectedEpoch uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	meta, err := f.readMeta(tree.ID())
	if err != nil {
		return err
	}
	if meta.Epoch != expectedEpoch {
		return conflict(tree.ID(), expectedEpoch, meta.Epoch)
	}

	existingNodes, err := os.ReadDir(f.nodesDir(tree.ID()))
	if err == nil {
		kept := make(map[string]bool, len(tree.Nodes()))
		for _, n := range tree.Nodes() {
			kept[n.ID().String()+".json"] = true
		}
		for _, entry := range existingNodes {
			if !kept[entry.Name()] {
				_ = os.Remove(filepath.Join(f.nodesDir(tree.ID()), entry.Name()))
			}
		}
	}

	return f.writeTree(tree)
}

func (f *FS) Delete(ctx context.Context, id types.TreeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.readMeta(id); err != nil {
		return err
	}
	return os.RemoveAll(f.treeDir(id))
}

var _ Repository = (*FS)(nil)
