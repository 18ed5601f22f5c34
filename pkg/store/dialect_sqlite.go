package store

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }

func (sqliteDialect) DSN(dsn string) string {
	if dsn == "" {
		return "familytree.db"
	}
	return dsn
}

func (sqliteDialect) Rebind(query string) string { return query }

func (sqliteDialect) Configure(db *sql.DB, dsn string) error {
	if strings.Contains(dsn, ":memory:") {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else {
		configurePool(db)
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return err
		}
		if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
			return err
		}
	}
	_, err := db.Exec("PRAGMA foreign_keys=ON;")
	return err
}

func (sqliteDialect) MigrationsDir() string { return "migrations/sqlite" }

func (sqliteDialect) CreateMigrationsTable() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
}
