package store

import (
	"database/sql"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Dialect isolates the differences between the supported SQL databases.
type Dialect interface {
	// Name is the config value selecting the dialect.
	Name() string

	// DriverName is the database/sql driver to open.
	DriverName() string

	// DSN adjusts a configured DSN for the driver.
	DSN(dsn string) string

	// Rebind converts ? placeholders to the driver's syntax.
	Rebind(query string) string

	// Configure applies connection settings after opening.
	Configure(db *sql.DB, dsn string) error

	// MigrationsDir is the embedded directory holding this dialect's migrations.
	MigrationsDir() string

	// CreateMigrationsTable is the DDL of the applied-migrations table.
	CreateMigrationsTable() string
}

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return sqliteDialect{}, true
	case "postgres", "postgresql", "pgx":
		return postgresDialect{}, true
	case "mysql":
		return mysqlDialect{}, true
	default:
		return nil, false
	}
}

var placeholderRe = regexp.MustCompile(`\?`)

// rebindNumbered rewrites ? to $1, $2, ...
func rebindNumbered(query string) string {
	n := 0
	return placeholderRe.ReplaceAllStringFunc(query, func(string) string {
		n++
		return "$" + strconv.Itoa(n)
	})
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}
