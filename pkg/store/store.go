// Package store persists family trees in a relational database.
//
// One implementation, [SQLStore], serves SQLite (default, also used by
// tests), PostgreSQL through pgx and MySQL. The schema lives in embedded
// per-dialect migrations applied by [SQLStore.Migrate].
//
// Units store only their parent; the child lists of a loaded tree are
// rebuilt from parent IDs ordered by the position column, so siblings keep
// insertion order.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

var (
	// ErrTreeNotFound is returned for unknown tree IDs.
	ErrTreeNotFound = errs.New(errs.ErrCodeNotFound, "tree not found")

	// ErrTreeExists is returned when importing a tree whose ID is taken.
	ErrTreeExists = errs.New(errs.ErrCodeInvalidInput, "tree already exists")
)

// Store is the persistence boundary of the service.
type Store interface {
	// ListTrees returns all trees, most recently updated first.
	ListTrees(ctx context.Context) ([]family.Summary, error)

	// CreateTree writes a complete tree in one transaction. Used both for
	// new trees and for imports.
	CreateTree(ctx context.Context, t *family.Tree) error

	// GetTree loads a tree with all units and persons.
	GetTree(ctx context.Context, id string) (*family.Tree, error)

	// DeleteTree removes a tree with its units and persons. Deleting an
	// unknown tree is not an error.
	DeleteTree(ctx context.Context, id string) error

	// InsertUnit adds a new unit with its persons as the last child of
	// its parent.
	InsertUnit(ctx context.Context, treeID string, u *family.Unit) error

	// AppendPerson stores the last person of u and u's type and primary
	// person index, after the unit gained a spouse or mistress.
	AppendPerson(ctx context.Context, treeID string, u *family.Unit) error

	// DeleteUnit removes a unit and all of its descendants and returns
	// their IDs.
	DeleteUnit(ctx context.Context, treeID, unitID string) ([]string, error)

	// UpdatePerson overwrites the stored attributes of p.
	UpdatePerson(ctx context.Context, treeID string, p family.Person) error

	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures the database.
type Config struct {
	Driver string // sqlite (default), postgres or mysql
	DSN    string

	// Migrate applies pending migrations on open.
	Migrate bool
}

// SQLStore implements [Store] on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
}

// Open connects to the configured database and, if requested, migrates it.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*SQLStore, error) {
	dialect, ok := DialectFor(cfg.Driver)
	if !ok {
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported database driver %q", cfg.Driver)
	}
	if logger == nil {
		logger = log.Default()
	}

	dsn := dialect.DSN(cfg.DSN)
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect.Name(), err)
	}
	if err := dialect.Configure(db, dsn); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure %s: %w", dialect.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "database unreachable")
	}

	s := &SQLStore{db: db, dialect: dialect, logger: logger.With("component", "store")}
	if cfg.Migrate {
		if _, err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Dialect returns the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.Wrap(errs.ErrCodeUnavailable, err, "database unreachable")
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) conn() conn { return conn{q: s.db, dialect: s.dialect} }

// withTx runs fn in a transaction, rolling back on error.
func (s *SQLStore) withTx(ctx context.Context, fn func(c conn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err, "begin transaction")
	}
	if err := fn(conn{q: tx, dialect: s.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr(err, "commit")
	}
	return nil
}

// storageErr wraps a driver error as STORAGE_UNAVAILABLE.
func storageErr(err error, format string, args ...any) error {
	var coded *errs.Error
	if errors.As(err, &coded) {
		return err
	}
	return errs.Wrap(errs.ErrCodeStorage, err, format, args...)
}

var _ Store = (*SQLStore)(nil)
