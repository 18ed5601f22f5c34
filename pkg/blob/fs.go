package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

const metaSuffix = ".meta.json"

// FSBucket stores each object as a file under a root directory, with its
// metadata in a sidecar file next to it.
type FSBucket struct {
	root string
}

// NewFSBucket creates root if needed.
func NewFSBucket(root string) (*FSBucket, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket dir: %w", err)
	}
	return &FSBucket{root: root}, nil
}

func (b *FSBucket) path(key string) (string, error) {
	if err := errs.ValidateObjectKey(key); err != nil {
		return "", err
	}
	if strings.HasSuffix(key, metaSuffix) {
		return "", errs.New(errs.ErrCodeInvalidPath, "reserved key suffix %s", metaSuffix)
	}
	return filepath.Join(b.root, filepath.FromSlash(key)), nil
}

func (b *FSBucket) Put(_ context.Context, key string, r io.Reader, contentType string) (Object, error) {
	path, err := b.path(key)
	if err != nil {
		return Object{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Object{}, fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return Object{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return Object{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Object{}, fmt.Errorf("store %s: %w", key, err)
	}

	obj := Object{
		Key:         key,
		ContentType: contentType,
		Size:        n,
		ETag:        `"` + hex.EncodeToString(h.Sum(nil))[:32] + `"`,
		Uploaded:    time.Now().UTC(),
	}
	meta, _ := json.Marshal(obj)
	if err := os.WriteFile(path+metaSuffix, meta, 0o644); err != nil {
		return Object{}, fmt.Errorf("write metadata: %w", err)
	}
	return obj, nil
}

func (b *FSBucket) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := b.Head(ctx, key)
	if err != nil {
		return nil, Object{}, err
	}
	path, _ := b.path(key)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, Object{}, err
	}
	return f, obj, nil
}

func (b *FSBucket) Head(_ context.Context, key string) (Object, error) {
	path, err := b.path(key)
	if err != nil {
		return Object{}, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return Object{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Object{}, err
	}

	obj := Object{Key: key, Size: info.Size(), Uploaded: info.ModTime().UTC()}
	if raw, err := os.ReadFile(path + metaSuffix); err == nil {
		_ = json.Unmarshal(raw, &obj)
	}
	if obj.ContentType == "" {
		obj.ContentType = "application/octet-stream"
	}
	return obj, nil
}

func (b *FSBucket) Delete(_ context.Context, key string) error {
	path, err := b.path(key)
	if err != nil {
		return err
	}
	for _, p := range []string{path, path + metaSuffix} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}

func (b *FSBucket) List(ctx context.Context, prefix string) ([]Object, error) {
	var out []Object
	err := filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() || strings.HasSuffix(name, metaSuffix) || strings.HasPrefix(name, ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(b.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		obj, err := b.Head(ctx, key)
		if err != nil {
			return err
		}
		out = append(out, obj)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b Object) int { return strings.Compare(a.Key, b.Key) })
	return out, nil
}

func (b *FSBucket) Close() error { return nil }

var _ Bucket = (*FSBucket)(nil)
