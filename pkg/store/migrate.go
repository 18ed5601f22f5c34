package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

//go:embed migrations
var migrationsFS embed.FS

// Migration is one embedded schema file.
type Migration struct {
	Version string // file name, e.g. 001_init.sql
	SQL     string
}

// Migrations returns the dialect's migrations in version order.
func Migrations(d Dialect) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, d.MigrationsDir())
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		data, err := migrationsFS.ReadFile(path.Join(d.MigrationsDir(), e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: e.Name(), SQL: string(data)})
	}
	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Version, b.Version) })
	return out, nil
}

// Migrate applies every migration not yet recorded in schema_migrations and
// returns the versions it applied.
func (s *SQLStore) Migrate(ctx context.Context) ([]string, error) {
	if _, err := s.db.ExecContext(ctx, s.dialect.CreateMigrationsTable()); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}
	migrations, err := Migrations(s.dialect)
	if err != nil {
		return nil, err
	}

	c := s.conn()
	var applied []string
	for _, m := range migrations {
		var n int
		if err := c.queryRow(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.Version).Scan(&n); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if n > 0 {
			continue
		}
		for _, stmt := range splitStatements(m.SQL) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("migration %s: %w", m.Version, err)
			}
		}
		if _, err := c.exec(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		s.logger.Info("applied migration", "version", m.Version, "dialect", s.dialect.Name())
		applied = append(applied, m.Version)
	}
	return applied, nil
}

// splitStatements splits a migration file on semicolons at line ends and
// drops comment-only lines. Migrations must not contain semicolons inside
// string literals.
func splitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		cur.WriteString(line)
		cur.WriteString("\n")
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSuffix(strings.TrimSpace(cur.String()), ";")
			out = append(out, stmt)
			cur.Reset()
		}
	}
	if rest := strings.TrimSpace(cur.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}
