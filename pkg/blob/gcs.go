package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/matzehuels/familytree/pkg/buildinfo"
	errs "github.com/matzehuels/familytree/pkg/errors"
)

// GCSConfig configures [NewGCSBucket].
type GCSConfig struct {
	Bucket string

	// Prefix is prepended to every key, e.g. "images/".
	Prefix string

	// CredentialsFile is a service account JSON file. Empty uses
	// application default credentials.
	CredentialsFile string
}

// GCSBucket stores objects in a Google Cloud Storage bucket.
type GCSBucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// NewGCSBucket creates a storage client for cfg.Bucket.
func NewGCSBucket(ctx context.Context, cfg GCSConfig) (*GCSBucket, error) {
	if cfg.Bucket == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "gcs bucket name is required")
	}
	opts := []option.ClientOption{
		option.WithScopes(storage.ScopeReadWrite),
		option.WithUserAgent(buildinfo.UserAgent()),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSBucket{client: client, bucket: client.Bucket(cfg.Bucket), prefix: cfg.Prefix}, nil
}

func (b *GCSBucket) object(key string) (*storage.ObjectHandle, error) {
	if err := errs.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	return b.bucket.Object(b.prefix + key), nil
}

func (b *GCSBucket) Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error) {
	o, err := b.object(key)
	if err != nil {
		return Object{}, err
	}
	w := o.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("close writer for %s: %w", key, err)
	}
	return b.toObject(w.Attrs()), nil
}

func (b *GCSBucket) Get(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	o, err := b.object(key)
	if err != nil {
		return nil, Object{}, err
	}
	attrs, err := o.Attrs(ctx)
	if err != nil {
		return nil, Object{}, b.mapErr(err, key)
	}
	rc, err := o.NewReader(ctx)
	if err != nil {
		return nil, Object{}, b.mapErr(err, key)
	}
	return rc, b.toObject(attrs), nil
}

func (b *GCSBucket) Head(ctx context.Context, key string) (Object, error) {
	o, err := b.object(key)
	if err != nil {
		return Object{}, err
	}
	attrs, err := o.Attrs(ctx)
	if err != nil {
		return Object{}, b.mapErr(err, key)
	}
	return b.toObject(attrs), nil
}

func (b *GCSBucket) Delete(ctx context.Context, key string) error {
	o, err := b.object(key)
	if err != nil {
		return err
	}
	if err := o.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (b *GCSBucket) List(ctx context.Context, prefix string) ([]Object, error) {
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: b.prefix + prefix})
	var out []Object
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		out = append(out, b.toObject(attrs))
	}
	return out, nil
}

func (b *GCSBucket) Close() error { return b.client.Close() }

func (b *GCSBucket) toObject(a *storage.ObjectAttrs) Object {
	if a == nil {
		return Object{}
	}
	return Object{
		Key:         strings.TrimPrefix(a.Name, b.prefix),
		ContentType: a.ContentType,
		Size:        a.Size,
		ETag:        `"` + a.Etag + `"`,
		Uploaded:    a.Created,
	}
}

func (b *GCSBucket) mapErr(err error, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("gcs %s: %w", key, err)
}

var _ Bucket = (*GCSBucket)(nil)
