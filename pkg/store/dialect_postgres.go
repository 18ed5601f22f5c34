package store

import (
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) DSN(dsn string) string {
	return dsn
}

func (postgresDialect) Rebind(query string) string { return rebindNumbered(query) }

func (postgresDialect) Configure(db *sql.DB, _ string) error {
	configurePool(db)
	return nil
}

func (postgresDialect) MigrationsDir() string { return "migrations/postgres" }

func (postgresDialect) CreateMigrationsTable() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`
}
