package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/familytree/pkg/family"
)

func (s *SQLStore) ListTrees(ctx context.Context) ([]family.Summary, error) {
	rows, err := s.conn().query(ctx, "SELECT id, name, root_id FROM family_trees ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, storageErr(err, "list trees")
	}
	defer rows.Close()

	out := []family.Summary{}
	for rows.Next() {
		var sum family.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.RootID); err != nil {
			return nil, storageErr(err, "scan tree")
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "list trees")
	}
	return out, nil
}

func (s *SQLStore) CreateTree(ctx context.Context, t *family.Tree) error {
	err := s.withTx(ctx, func(c conn) error {
		exists, err := treeExists(ctx, c, t.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: %s", ErrTreeExists, t.ID)
		}
		if err := checkIDsFree(ctx, c, t); err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := c.exec(ctx,
			"INSERT INTO family_trees (id, name, root_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			t.ID, t.Name, t.RootID, now, now); err != nil {
			return storageErr(err, "insert tree")
		}

		for _, u := range t.Units() {
			pos := 0
			if !u.IsRoot() {
				pos = max(slices.Index(t.Children(u.ParentID), u.ID), 0)
			}
			if err := insertUnit(ctx, c, t.ID, u, pos); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("created tree", "id", t.ID, "units", t.Len())
	return nil
}

func (s *SQLStore) GetTree(ctx context.Context, id string) (*family.Tree, error) {
	c := s.conn()

	var name, rootID string
	err := c.queryRow(ctx, "SELECT name, root_id FROM family_trees WHERE id = ?", id).Scan(&name, &rootID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, id)
	}
	if err != nil {
		return nil, storageErr(err, "load tree %s", id)
	}

	units, err := loadUnits(ctx, c, id)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*family.Unit, len(units))
	for _, u := range units {
		byID[u.ID] = u
	}
	if err := loadPersons(ctx, c, id, byID); err != nil {
		return nil, err
	}
	return family.Assemble(id, name, rootID, units)
}

func (s *SQLStore) DeleteTree(ctx context.Context, id string) error {
	err := s.withTx(ctx, func(c conn) error {
		if _, err := c.exec(ctx,
			"DELETE FROM persons WHERE unit_id IN (SELECT id FROM family_units WHERE tree_id = ?)", id); err != nil {
			return storageErr(err, "delete persons")
		}
		if _, err := c.exec(ctx, "DELETE FROM family_units WHERE tree_id = ?", id); err != nil {
			return storageErr(err, "delete units")
		}
		if _, err := c.exec(ctx, "DELETE FROM family_trees WHERE id = ?", id); err != nil {
			return storageErr(err, "delete tree")
		}
		return nil
	})
	if err == nil {
		s.logger.Debug("deleted tree", "id", id)
	}
	return err
}

func treeExists(ctx context.Context, c conn, id string) (bool, error) {
	var n int
	if err := c.queryRow(ctx, "SELECT COUNT(*) FROM family_trees WHERE id = ?", id).Scan(&n); err != nil {
		return false, storageErr(err, "check tree %s", id)
	}
	return n > 0, nil
}

// checkIDsFree rejects a tree whose unit or person IDs are already stored,
// possibly under another tree.
func checkIDsFree(ctx context.Context, c conn, t *family.Tree) error {
	var unitIDs, personIDs []string
	for _, u := range t.Units() {
		unitIDs = append(unitIDs, u.ID)
		for _, p := range u.Persons {
			personIDs = append(personIDs, p.ID)
		}
	}
	for _, check := range []struct {
		table, kind string
		ids         []string
	}{
		{"family_units", "unit", unitIDs},
		{"persons", "person", personIDs},
	} {
		for _, batch := range chunks(check.ids) {
			taken, err := queryIDs(ctx, c,
				"SELECT id FROM "+check.table+" WHERE id IN ("+placeholders(len(batch))+")", anys(batch)...)
			if err != nil {
				return err
			}
			if len(taken) > 0 {
				return fmt.Errorf("%w: %s %s already exists", family.ErrDuplicateID, check.kind, taken[0])
			}
		}
	}
	return nil
}

func touchTree(ctx context.Context, c conn, id string) error {
	if _, err := c.exec(ctx, "UPDATE family_trees SET updated_at = ? WHERE id = ?", time.Now().UTC(), id); err != nil {
		return storageErr(err, "touch tree %s", id)
	}
	return nil
}

func loadUnits(ctx context.Context, c conn, treeID string) ([]*family.Unit, error) {
	rows, err := c.query(ctx, `SELECT id, type, parent_id, primary_person_index, mother_index
		FROM family_units WHERE tree_id = ? ORDER BY position, id`, treeID)
	if err != nil {
		return nil, storageErr(err, "load units")
	}
	defer rows.Close()

	var units []*family.Unit
	for rows.Next() {
		var (
			u               family.Unit
			typ             string
			parent          sql.NullString
			primary, mother sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &typ, &parent, &primary, &mother); err != nil {
			return nil, storageErr(err, "scan unit")
		}
		u.Type = family.UnitType(typ)
		u.ParentID = parent.String
		u.PrimaryPersonIndex = intPtr(primary)
		u.MotherIndex = intPtr(mother)
		u.Persons = []family.Person{}
		units = append(units, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "load units")
	}
	return units, nil
}

func loadPersons(ctx context.Context, c conn, treeID string, units map[string]*family.Unit) error {
	rows, err := c.query(ctx, `SELECT p.id, p.unit_id, p.first_name, p.last_name, p.gender,
			p.birth_date, p.death_date, p.photo_url, p.biography
		FROM persons p JOIN family_units u ON p.unit_id = u.id
		WHERE u.tree_id = ? ORDER BY p.unit_id, p.position`, treeID)
	if err != nil {
		return storageErr(err, "load persons")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                                      family.Person
			unitID                                 string
			gender, birth, death, photo, biography sql.NullString
		)
		if err := rows.Scan(&p.ID, &unitID, &p.FirstName, &p.LastName, &gender,
			&birth, &death, &photo, &biography); err != nil {
			return storageErr(err, "scan person")
		}
		p.Gender = family.Gender(gender.String)
		p.BirthDate = birth.String
		p.DeathDate = death.String
		p.PhotoURL = photo.String
		p.Biography = biography.String
		if u, ok := units[unitID]; ok {
			u.Persons = append(u.Persons, p)
		}
	}
	if err := rows.Err(); err != nil {
		return storageErr(err, "load persons")
	}
	return nil
}

func insertUnit(ctx context.Context, c conn, treeID string, u *family.Unit, position int) error {
	if _, err := c.exec(ctx, `INSERT INTO family_units
			(id, tree_id, type, parent_id, primary_person_index, mother_index, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, treeID, string(u.Type), nullString(u.ParentID),
		nullInt(u.PrimaryPersonIndex), nullInt(u.MotherIndex), position); err != nil {
		return storageErr(err, "insert unit %s", u.ID)
	}
	for i, p := range u.Persons {
		if err := insertPerson(ctx, c, u.ID, p, i); err != nil {
			return err
		}
	}
	return nil
}

func insertPerson(ctx context.Context, c conn, unitID string, p family.Person, position int) error {
	if _, err := c.exec(ctx, `INSERT INTO persons
			(id, unit_id, first_name, last_name, gender, birth_date, death_date, photo_url, biography, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, unitID, p.FirstName, p.LastName, nullString(string(p.Gender)),
		nullString(p.BirthDate), nullString(p.DeathDate), nullString(p.PhotoURL),
		nullString(p.Biography), position); err != nil {
		return storageErr(err, "insert person %s", p.ID)
	}
	return nil
}
