// Package config loads server and CLI settings.
//
// Settings come from three layers, later ones winning:
//
//  1. [Default]
//  2. a TOML file
//  3. FAMILYTREE_* environment variables, optionally read from a .env file
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/layout"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FAMILYTREE_"

type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Blob     Blob     `toml:"blob"`
	Cache    Cache    `toml:"cache"`
	Archive  Archive  `toml:"archive"`
	Layout   Layout   `toml:"layout"`
}

type Server struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// MaxUploadBytes bounds image uploads.
	MaxUploadBytes int64 `toml:"max_upload_bytes"`
}

type Database struct {
	Driver  string `toml:"driver"` // sqlite, postgres or mysql
	DSN     string `toml:"dsn"`
	Migrate bool   `toml:"migrate"`
}

type Blob struct {
	Backend         string `toml:"backend"` // fs or gcs
	Dir             string `toml:"dir"`
	Bucket          string `toml:"bucket"`
	Prefix          string `toml:"prefix"`
	CredentialsFile string `toml:"credentials_file"`
}

type Cache struct {
	Backend string        `toml:"backend"` // none, file or redis
	Dir     string        `toml:"dir"`
	TTL     time.Duration `toml:"ttl"`
	Redis   Redis         `toml:"redis"`
}

type Redis struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type Archive struct {
	Backend string `toml:"backend"` // none, file or mongo
	Dir     string `toml:"dir"`
	Mongo   Mongo  `toml:"mongo"`
}

type Mongo struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

type Layout struct {
	Engine      string  `toml:"engine"`
	NodeSpacing float64 `toml:"node_spacing"`
	RankSpacing float64 `toml:"rank_spacing"`
}

// Default returns a configuration for a single node with local storage.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxUploadBytes:  10 << 20,
		},
		Database: Database{Driver: "sqlite", DSN: "familytree.db", Migrate: true},
		Blob:     Blob{Backend: "fs", Dir: "uploads"},
		Cache:    Cache{Backend: "file", Redis: Redis{Addr: "localhost:6379"}},
		Archive:  Archive{Backend: "none", Dir: "snapshots", Mongo: Mongo{Database: "familytree"}},
		Layout: Layout{
			Engine:      layout.EngineLayered,
			NodeSpacing: layout.DefaultNodeSpacing,
			RankSpacing: layout.DefaultRankSpacing,
		},
	}
}

// Load reads the defaults, then path (skipped when empty), then the
// environment. A .env file in the working directory is loaded first if
// present; variables already set are not replaced.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, errs.Wrap(errs.ErrCodeInvalidFile, err, "read config %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return cfg, errs.New(errs.ErrCodeInvalidFile, "unknown config key %q", undecoded[0].String())
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, errs.Wrap(errs.ErrCodeInvalidFile, err, "read .env")
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ADDR":                 &c.Server.Addr,
		"DATABASE_DRIVER":      &c.Database.Driver,
		"DATABASE_DSN":         &c.Database.DSN,
		"BLOB_BACKEND":         &c.Blob.Backend,
		"BLOB_DIR":             &c.Blob.Dir,
		"BLOB_BUCKET":          &c.Blob.Bucket,
		"BLOB_PREFIX":          &c.Blob.Prefix,
		"GCS_CREDENTIALS_FILE": &c.Blob.CredentialsFile,
		"CACHE_BACKEND":        &c.Cache.Backend,
		"CACHE_DIR":            &c.Cache.Dir,
		"REDIS_ADDR":           &c.Cache.Redis.Addr,
		"REDIS_PASSWORD":       &c.Cache.Redis.Password,
		"ARCHIVE_BACKEND":      &c.Archive.Backend,
		"ARCHIVE_DIR":          &c.Archive.Dir,
		"MONGO_URI":            &c.Archive.Mongo.URI,
		"MONGO_DATABASE":       &c.Archive.Mongo.Database,
		"LAYOUT_ENGINE":        &c.Layout.Engine,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("DATABASE_URL"); ok && os.Getenv(EnvPrefix+"DATABASE_DSN") == "" {
		c.Database.DSN = v
	}

	if v, ok := os.LookupEnv(EnvPrefix + "DATABASE_MIGRATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return envErr("DATABASE_MIGRATE", err)
		}
		c.Database.Migrate = b
	}
	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envErr("REDIS_DB", err)
		}
		c.Cache.Redis.DB = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return envErr("CACHE_TTL", err)
		}
		c.Cache.TTL = d
	}
	return nil
}

func envErr(name string, err error) error {
	return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid %s%s", EnvPrefix, name)
}

// Validate rejects unknown backends and settings a backend cannot start
// without.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return invalid("server.addr is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return invalid("server.max_upload_bytes must be positive")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return invalid("unknown database.driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return invalid("database.dsn is required")
	}

	switch c.Blob.Backend {
	case "fs":
		if c.Blob.Dir == "" {
			return invalid("blob.dir is required for the fs backend")
		}
	case "gcs":
		if c.Blob.Bucket == "" {
			return invalid("blob.bucket is required for the gcs backend")
		}
	default:
		return invalid("unknown blob.backend %q", c.Blob.Backend)
	}

	switch c.Cache.Backend {
	case "none", "":
	case "file":
		// empty dir means the user cache directory
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return invalid("cache.redis.addr is required for the redis backend")
		}
	default:
		return invalid("unknown cache.backend %q", c.Cache.Backend)
	}

	switch c.Archive.Backend {
	case "none", "":
	case "file":
		if c.Archive.Dir == "" {
			return invalid("archive.dir is required for the file backend")
		}
	case "mongo":
		if c.Archive.Mongo.URI == "" {
			return invalid("archive.mongo.uri is required for the mongo backend")
		}
	default:
		return invalid("unknown archive.backend %q", c.Archive.Backend)
	}

	return c.LayoutOptions().Validate()
}

// LayoutOptions returns the configured layout defaults.
func (c Config) LayoutOptions() layout.Options {
	return layout.Options{
		Engine:      c.Layout.Engine,
		NodeSpacing: c.Layout.NodeSpacing,
		RankSpacing: c.Layout.RankSpacing,
	}
}

func invalid(format string, args ...any) error {
	return errs.New(errs.ErrCodeInvalidInput, "config: "+format, args...)
}

// String renders the configuration as TOML with secrets masked.
func (c Config) String() string {
	if c.Cache.Redis.Password != "" {
		c.Cache.Redis.Password = "***"
	}
	if c.Archive.Mongo.URI != "" {
		c.Archive.Mongo.URI = "***"
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return string(data)
}
