package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "familytree.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeFile(t, `
[server]
addr = ":9000"
shutdown_timeout = "3s"

[database]
driver = "postgres"
dsn = "postgres://localhost/familytree"

[cache]
backend = "redis"
ttl = "1h"

[cache.redis]
addr = "cache:6379"
db = 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want default 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.Driver != "postgres" || !cfg.Database.Migrate {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Cache.Redis.Addr != "cache:6379" || cfg.Cache.Redis.DB != 2 || cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(writeFile(t, "[server]\nport = 1\n"))
	if !errs.Is(err, errs.ErrCodeInvalidFile) {
		t.Errorf("Load() = %v, want INVALID_FILE", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FAMILYTREE_ADDR", ":7000")
	t.Setenv("FAMILYTREE_ARCHIVE_BACKEND", "file")
	t.Setenv("FAMILYTREE_DATABASE_MIGRATE", "false")
	t.Setenv("FAMILYTREE_CACHE_TTL", "90m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", cfg.Server.Addr)
	}
	if cfg.Archive.Backend != "file" {
		t.Errorf("Archive.Backend = %q, want file", cfg.Archive.Backend)
	}
	if cfg.Database.Migrate {
		t.Error("Database.Migrate = true, want false")
	}
	if cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("Cache.TTL = %v, want 90m", cfg.Cache.TTL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("FAMILYTREE_LAYOUT_ENGINE=simple\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FAMILYTREE_LAYOUT_ENGINE", "")
	os.Unsetenv("FAMILYTREE_LAYOUT_ENGINE")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Layout.Engine != "simple" {
		t.Errorf("Layout.Engine = %q, want simple", cfg.Layout.Engine)
	}
}

func TestLoadBadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FAMILYTREE_REDIS_DB", "two")
	if _, err := Load(""); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("Load() = %v, want INVALID_INPUT", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"unknown blob", func(c *Config) { c.Blob.Backend = "s3" }, "blob.backend"},
		{"gcs without bucket", func(c *Config) { c.Blob.Backend = "gcs" }, "blob.bucket"},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"mongo without uri", func(c *Config) { c.Archive.Backend = "mongo" }, "archive.mongo.uri"},
		{"unknown engine", func(c *Config) { c.Layout.Engine = "force" }, "layout engine"},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "max_upload_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestStringMasksSecrets(t *testing.T) {
	cfg := Default()
	cfg.Cache.Redis.Password = "hunter2"
	cfg.Archive.Mongo.URI = "mongodb://user:pw@host"
	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "user:pw") {
		t.Errorf("String() leaks secrets:\n%s", s)
	}
	if cfg.Cache.Redis.Password != "hunter2" {
		t.Error("String() modified the config")
	}
}
