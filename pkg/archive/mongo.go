package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/familytree/pkg/family"
)

// MongoConfig configures [NewMongoArchive].
type MongoConfig struct {
	URI        string
	Database   string // defaults to "familytree"
	Collection string // defaults to "snapshots"
}

// MongoArchive stores snapshots as documents, one per snapshot.
type MongoArchive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoArchive connects, pings and ensures the (treeId, createdAt) index.
func NewMongoArchive(ctx context.Context, cfg MongoConfig) (*MongoArchive, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = "familytree"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetConnectTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "treeId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &MongoArchive{client: client, coll: coll}, nil
}

func (a *MongoArchive) Save(ctx context.Context, t *family.Tree, label string) (Meta, error) {
	s, err := NewSnapshot(t, label)
	if err != nil {
		return Meta{}, err
	}
	if _, err := a.coll.InsertOne(ctx, s); err != nil {
		return Meta{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return s.Meta, nil
}

func (a *MongoArchive) List(ctx context.Context, treeID string) ([]Meta, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.D{{Key: "tree", Value: 0}})
	cur, err := a.coll.Find(ctx, bson.D{{Key: "treeId", Value: treeID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer cur.Close(ctx)

	out := []Meta{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return out, nil
}

func (a *MongoArchive) Get(ctx context.Context, id string) (*Snapshot, error) {
	var s Snapshot
	err := a.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", id, err)
	}
	return &s, nil
}

func (a *MongoArchive) Close(ctx context.Context) error { return a.client.Disconnect(ctx) }

var _ Archive = (*MongoArchive)(nil)
