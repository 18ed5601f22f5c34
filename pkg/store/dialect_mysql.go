package store

import (
	"database/sql"

	"github.com/go-sql-driver/mysql"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

// DSN enables parseTime so DATETIME columns scan into time.Time.
func (mysqlDialect) DSN(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (mysqlDialect) Rebind(query string) string { return query }

func (mysqlDialect) Configure(db *sql.DB, _ string) error {
	configurePool(db)
	_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (mysqlDialect) MigrationsDir() string { return "migrations/mysql" }

func (mysqlDialect) CreateMigrationsTable() string {
	return `CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`
}
