package cli

import (
	"context"
	"fmt"

	"github.com/matzehuels/familytree/pkg/archive"
	"github.com/matzehuels/familytree/pkg/blob"
	"github.com/matzehuels/familytree/pkg/cache"
	"github.com/matzehuels/familytree/pkg/config"
	"github.com/matzehuels/familytree/pkg/pipeline"
	"github.com/matzehuels/familytree/pkg/store"
)

// redisKeyPrefix scopes cache keys in a shared Redis.
const redisKeyPrefix = appName + ":"

func (c *CLI) openStore(ctx context.Context, cfg config.Database) (*store.SQLStore, error) {
	st, err := store.Open(ctx, store.Config{
		Driver:  cfg.Driver,
		DSN:     cfg.DSN,
		Migrate: cfg.Migrate,
	}, c.Logger.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	return st, nil
}

func openBucket(ctx context.Context, cfg config.Blob) (blob.Bucket, error) {
	switch cfg.Backend {
	case "gcs":
		return blob.NewGCSBucket(ctx, blob.GCSConfig{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CredentialsFile: cfg.CredentialsFile,
		})
	default:
		return blob.NewFSBucket(cfg.Dir)
	}
}

func openArchive(ctx context.Context, cfg config.Archive) (archive.Archive, error) {
	switch cfg.Backend {
	case "file":
		return archive.NewFileArchive(cfg.Dir)
	case "mongo":
		return archive.NewMongoArchive(ctx, archive.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
	default:
		return archive.Disabled{}, nil
	}
}

// openCache returns the configured cache and the keyer to use with it.
func openCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, cache.Keyer, error) {
	keyer := cache.NewDefaultKeyer()
	if noCache {
		return cache.NewNullCache(), keyer, nil
	}
	switch cfg.Backend {
	case "file":
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return nil, nil, err
		}
		fc, err := cache.NewFileCache(dir)
		return fc, keyer, err
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return rc, cache.NewScopedKeyer(keyer, redisKeyPrefix), err
	default:
		return cache.NewNullCache(), keyer, nil
	}
}

// newRunner creates a pipeline runner on the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Cache, noCache bool) (*pipeline.Runner, error) {
	cc, keyer, err := openCache(ctx, cfg, noCache)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.Backend, err)
	}
	r := pipeline.NewRunner(cc, keyer, c.Logger.With("component", "pipeline"))
	r.TTL = cfg.TTL
	return r, nil
}
