package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matzehuels/familytree/pkg/family"
)

func (s *SQLStore) InsertUnit(ctx context.Context, treeID string, u *family.Unit) error {
	return s.withTx(ctx, func(c conn) error {
		if err := requireTree(ctx, c, treeID); err != nil {
			return err
		}
		if u.ParentID != "" {
			if err := requireUnit(ctx, c, treeID, u.ParentID); err != nil {
				return err
			}
		}

		var maxPos sql.NullInt64
		if err := c.queryRow(ctx,
			"SELECT MAX(position) FROM family_units WHERE tree_id = ? AND parent_id = ?",
			treeID, u.ParentID).Scan(&maxPos); err != nil {
			return storageErr(err, "next unit position")
		}
		pos := 0
		if maxPos.Valid {
			pos = int(maxPos.Int64) + 1
		}

		if err := insertUnit(ctx, c, treeID, u, pos); err != nil {
			return err
		}
		return touchTree(ctx, c, treeID)
	})
}

func (s *SQLStore) AppendPerson(ctx context.Context, treeID string, u *family.Unit) error {
	if len(u.Persons) == 0 {
		return fmt.Errorf("append person: unit %s has no persons", u.ID)
	}
	p := u.Persons[len(u.Persons)-1]

	return s.withTx(ctx, func(c conn) error {
		if err := requireUnit(ctx, c, treeID, u.ID); err != nil {
			return err
		}

		var maxPos sql.NullInt64
		if err := c.queryRow(ctx, "SELECT MAX(position) FROM persons WHERE unit_id = ?", u.ID).Scan(&maxPos); err != nil {
			return storageErr(err, "next person position")
		}
		pos := 0
		if maxPos.Valid {
			pos = int(maxPos.Int64) + 1
		}
		if err := insertPerson(ctx, c, u.ID, p, pos); err != nil {
			return err
		}

		if _, err := c.exec(ctx,
			"UPDATE family_units SET type = ?, primary_person_index = ? WHERE id = ?",
			string(u.Type), nullInt(u.PrimaryPersonIndex), u.ID); err != nil {
			return storageErr(err, "update unit %s", u.ID)
		}
		return touchTree(ctx, c, treeID)
	})
}

// DeleteUnit collects the unit and its descendants level by level, deletes
// them, then sweeps once for units whose parent vanished meanwhile (a child
// added concurrently under a deleted unit) and deletes those subtrees too.
func (s *SQLStore) DeleteUnit(ctx context.Context, treeID, unitID string) ([]string, error) {
	c := s.conn()

	var rootID string
	err := c.queryRow(ctx, "SELECT root_id FROM family_trees WHERE id = ?", treeID).Scan(&rootID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, treeID)
	}
	if err != nil {
		return nil, storageErr(err, "load tree %s", treeID)
	}
	if unitID == rootID {
		return nil, family.ErrRootUnit
	}
	if err := requireUnit(ctx, c, treeID, unitID); err != nil {
		return nil, err
	}

	deleted, err := s.deleteSubtrees(ctx, treeID, []string{unitID})
	if err != nil {
		return nil, err
	}

	orphans, err := findOrphans(ctx, c, treeID)
	if err != nil {
		return deleted, err
	}
	if len(orphans) > 0 {
		s.logger.Warn("deleting orphaned units", "tree", treeID, "count", len(orphans))
		more, err := s.deleteSubtrees(ctx, treeID, orphans)
		if err != nil {
			return deleted, err
		}
		deleted = append(deleted, more...)
	}

	s.logger.Debug("deleted units", "tree", treeID, "unit", unitID, "count", len(deleted))
	return deleted, nil
}

func (s *SQLStore) deleteSubtrees(ctx context.Context, treeID string, roots []string) ([]string, error) {
	c := s.conn()
	all := append([]string(nil), roots...)
	frontier := roots
	for len(frontier) > 0 {
		var next []string
		for _, batch := range chunks(frontier) {
			args := append([]any{treeID}, anys(batch)...)
			ids, err := queryIDs(ctx, c,
				"SELECT id FROM family_units WHERE tree_id = ? AND parent_id IN ("+placeholders(len(batch))+") ORDER BY position, id",
				args...)
			if err != nil {
				return nil, err
			}
			next = append(next, ids...)
		}
		all = append(all, next...)
		frontier = next
	}

	err := s.withTx(ctx, func(c conn) error {
		for _, batch := range chunks(all) {
			in := placeholders(len(batch))
			if _, err := c.exec(ctx, "DELETE FROM persons WHERE unit_id IN ("+in+")", anys(batch)...); err != nil {
				return storageErr(err, "delete persons")
			}
			if _, err := c.exec(ctx, "DELETE FROM family_units WHERE id IN ("+in+")", anys(batch)...); err != nil {
				return storageErr(err, "delete units")
			}
		}
		return touchTree(ctx, c, treeID)
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

func findOrphans(ctx context.Context, c conn, treeID string) ([]string, error) {
	return queryIDs(ctx, c, `SELECT u.id FROM family_units u
		WHERE u.tree_id = ? AND u.parent_id IS NOT NULL
		AND NOT EXISTS (SELECT 1 FROM family_units p WHERE p.id = u.parent_id)`, treeID)
}

func (s *SQLStore) UpdatePerson(ctx context.Context, treeID string, p family.Person) error {
	return s.withTx(ctx, func(c conn) error {
		var n int
		if err := c.queryRow(ctx, `SELECT COUNT(*) FROM persons p JOIN family_units u ON p.unit_id = u.id
			WHERE p.id = ? AND u.tree_id = ?`, p.ID, treeID).Scan(&n); err != nil {
			return storageErr(err, "find person %s", p.ID)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", family.ErrPersonNotFound, p.ID)
		}
		if _, err := c.exec(ctx, `UPDATE persons SET first_name = ?, last_name = ?, gender = ?,
				birth_date = ?, death_date = ?, photo_url = ?, biography = ? WHERE id = ?`,
			p.FirstName, p.LastName, nullString(string(p.Gender)), nullString(p.BirthDate),
			nullString(p.DeathDate), nullString(p.PhotoURL), nullString(p.Biography), p.ID); err != nil {
			return storageErr(err, "update person %s", p.ID)
		}
		return touchTree(ctx, c, treeID)
	})
}

func requireTree(ctx context.Context, c conn, treeID string) error {
	ok, err := treeExists(ctx, c, treeID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrTreeNotFound, treeID)
	}
	return nil
}

func requireUnit(ctx context.Context, c conn, treeID, unitID string) error {
	var n int
	if err := c.queryRow(ctx, "SELECT COUNT(*) FROM family_units WHERE id = ? AND tree_id = ?", unitID, treeID).Scan(&n); err != nil {
		return storageErr(err, "find unit %s", unitID)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", family.ErrUnitNotFound, unitID)
	}
	return nil
}

func queryIDs(ctx context.Context, c conn, query string, args ...any) ([]string, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err, "query ids")
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(err, "scan id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "query ids")
	}
	return ids, nil
}
