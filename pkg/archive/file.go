package archive

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

// FileArchive stores snapshots as dir/<treeID>/<snapshotID>.json.
type FileArchive struct {
	dir string
}

// NewFileArchive creates dir if needed.
func NewFileArchive(dir string) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FileArchive{dir: dir}, nil
}

func (a *FileArchive) Save(_ context.Context, t *family.Tree, label string) (Meta, error) {
	if err := errs.ValidateID("treeId", t.ID); err != nil {
		return Meta{}, err
	}
	s, err := NewSnapshot(t, label)
	if err != nil {
		return Meta{}, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return Meta{}, fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Join(a.dir, t.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Meta{}, fmt.Errorf("create tree dir: %w", err)
	}
	path := filepath.Join(dir, s.ID+".json")
	if err := os.WriteFile(path+".tmp", data, 0o644); err != nil {
		return Meta{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		return Meta{}, fmt.Errorf("write snapshot: %w", err)
	}
	return s.Meta, nil
}

func (a *FileArchive) List(_ context.Context, treeID string) ([]Meta, error) {
	if err := errs.ValidateID("treeId", treeID); err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(a.dir, treeID, "*.json"))
	if err != nil {
		return nil, err
	}
	out := []Meta{}
	for _, p := range paths {
		s, err := readSnapshot(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s.Meta)
	}
	slices.SortFunc(out, func(x, y Meta) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out, nil
}

func (a *FileArchive) Get(_ context.Context, id string) (*Snapshot, error) {
	if err := errs.ValidateID("snapshotId", id); err != nil {
		return nil, err
	}
	paths, err := filepath.Glob(filepath.Join(a.dir, "*", id+".json"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return readSnapshot(paths[0])
}

func (a *FileArchive) Close(context.Context) error { return nil }

func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &s, nil
}

var _ Archive = (*FileArchive)(nil)
