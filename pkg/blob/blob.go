// Package blob stores uploaded images behind a small capability interface.
//
// [FSBucket] keeps objects on the local filesystem for development and
// tests; [GCSBucket] stores them in Google Cloud Storage. Keys are
// slash-separated and validated against path traversal by every backend.
package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

// ErrNotFound is returned for keys without an object.
var ErrNotFound = errs.New(errs.ErrCodeNotFound, "object not found")

// Object describes a stored blob.
type Object struct {
	Key         string    `json:"key"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	ETag        string    `json:"etag"`
	Uploaded    time.Time `json:"uploaded"`
}

// Bucket is an object store.
type Bucket interface {
	// Put stores r under key, replacing any existing object.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)

	// Get opens the object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, Object, error)

	// Head returns the object's metadata without its content.
	Head(ctx context.Context, key string) (Object, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns the objects whose key starts with prefix, in key order.
	List(ctx context.Context, prefix string) ([]Object, error)

	Close() error
}

// sniffLen is how much of a stream DetectContentType inspects.
const sniffLen = 3072

// DetectContentType sniffs the content type of r from its first bytes and
// returns a reader that still yields the complete stream.
func DetectContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	return mt.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// BaseType strips parameters from a content type: "text/plain; charset=utf-8"
// becomes "text/plain".
func BaseType(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
