// Package archive keeps point-in-time snapshots of family trees.
//
// A snapshot is a complete copy of a tree in its JSON wire form plus a small
// metadata record. Snapshots are immutable once saved. Backends:
//
//   - [FileArchive]: one JSON file per snapshot, for single-node setups
//   - [MongoArchive]: a MongoDB collection
//   - [Disabled]: rejects every call
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

var (
	// ErrNotFound is returned for unknown snapshot IDs.
	ErrNotFound = errs.New(errs.ErrCodeNotFound, "snapshot not found")

	// ErrDisabled is returned by every call on a [Disabled] archive.
	ErrDisabled = errs.New(errs.ErrCodeUnavailable, "snapshot archive is disabled")
)

// MaxLabelLength bounds snapshot labels.
const MaxLabelLength = 200

// Meta describes a snapshot without its tree.
type Meta struct {
	ID        string    `json:"id" bson:"_id"`
	TreeID    string    `json:"treeId" bson:"treeId"`
	TreeName  string    `json:"treeName" bson:"treeName"`
	Label     string    `json:"label,omitempty" bson:"label,omitempty"`
	Units     int       `json:"units" bson:"units"`
	Persons   int       `json:"persons" bson:"persons"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Snapshot is a saved copy of a tree.
type Snapshot struct {
	Meta `bson:",inline"`
	Tree family.Snapshot `json:"tree" bson:"tree"`
}

// Archive stores snapshots.
type Archive interface {
	Save(ctx context.Context, t *family.Tree, label string) (Meta, error)

	// List returns the snapshots of a tree, newest first.
	List(ctx context.Context, treeID string) ([]Meta, error)

	Get(ctx context.Context, id string) (*Snapshot, error)
	Close(ctx context.Context) error
}

// NewSnapshot captures t with a fresh ID.
func NewSnapshot(t *family.Tree, label string) (*Snapshot, error) {
	if len(label) > MaxLabelLength {
		return nil, errs.New(errs.ErrCodeInvalidInput, "label too long (max %d characters)", MaxLabelLength)
	}
	return &Snapshot{
		Meta: Meta{
			ID:        uuid.NewString(),
			TreeID:    t.ID,
			TreeName:  t.Name,
			Label:     label,
			Units:     t.Len(),
			Persons:   t.PersonCount(),
			CreatedAt: time.Now().UTC(),
		},
		Tree: t.Snapshot(),
	}, nil
}

// Restore rebuilds the tree held by a snapshot.
func (s *Snapshot) Restore() (*family.Tree, error) {
	return family.FromSnapshot(s.Tree)
}

// Disabled is the archive used when none is configured.
type Disabled struct{}

func (Disabled) Save(context.Context, *family.Tree, string) (Meta, error) { return Meta{}, ErrDisabled }
func (Disabled) List(context.Context, string) ([]Meta, error)            { return nil, ErrDisabled }
func (Disabled) Get(context.Context, string) (*Snapshot, error)          { return nil, ErrDisabled }
func (Disabled) Close(context.Context) error                             { return nil }

var _ Archive = Disabled{}
