package family

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

// UnitView is the wire form of a unit including its derived child list.
type UnitView struct {
	Unit        `bson:",inline"`
	ChildrenIDs []string `json:"childrenIds" bson:"childrenIds"`
}

// View returns the wire form of the unit with the given ID.
func (t *Tree) View(id string) (UnitView, bool) {
	u, ok := t.units[id]
	if !ok {
		return UnitView{}, false
	}
	children := t.Children(id)
	if children == nil {
		children = []string{}
	}
	return UnitView{Unit: *u.Clone(), ChildrenIDs: children}, true
}

// Summary identifies a tree without its units.
type Summary struct {
	ID     string `json:"id" bson:"id"`
	Name   string `json:"name" bson:"name"`
	RootID string `json:"rootId" bson:"rootId"`
}

// Summary returns the tree's identity fields.
func (t *Tree) Summary() Summary {
	return Summary{ID: t.ID, Name: t.Name, RootID: t.RootID}
}

// Snapshot is the complete wire form of a tree.
type Snapshot struct {
	ID     string              `json:"id" bson:"id"`
	Name   string              `json:"name" bson:"name"`
	RootID string              `json:"rootId" bson:"rootId"`
	Units  map[string]UnitView `json:"units" bson:"units"`
}

// Snapshot returns a detached copy of the tree in wire form.
func (t *Tree) Snapshot() Snapshot {
	s := Snapshot{ID: t.ID, Name: t.Name, RootID: t.RootID, Units: make(map[string]UnitView, len(t.units))}
	for id := range t.units {
		s.Units[id], _ = t.View(id)
	}
	return s
}

// FromSnapshot rebuilds and validates a tree from its wire form.
//
// Sibling order is taken from the childrenIds arrays, which must agree with
// the children's parentId. Units not reachable through childrenIds are
// appended in ID order and then rejected by validation.
func FromSnapshot(s Snapshot) (*Tree, error) {
	for id, v := range s.Units {
		if v.ID != id {
			return nil, fmt.Errorf("%w: unit key %s holds unit %s", ErrInvalidTree, id, v.ID)
		}
		for _, c := range v.ChildrenIDs {
			child, ok := s.Units[c]
			if !ok {
				return nil, fmt.Errorf("%w: unit %s lists missing child %s", ErrInvalidTree, id, c)
			}
			if child.ParentID != id {
				return nil, fmt.Errorf("%w: unit %s lists child %s whose parent is %q", ErrInvalidTree, id, c, child.ParentID)
			}
		}
	}

	ordered := make([]*Unit, 0, len(s.Units))
	seen := make(map[string]bool, len(s.Units))
	if _, ok := s.Units[s.RootID]; ok {
		queue := []string{s.RootID}
		seen[s.RootID] = true
		for len(queue) > 0 {
			v := s.Units[queue[0]]
			queue = queue[1:]
			ordered = append(ordered, v.Unit.Clone())
			for _, c := range v.ChildrenIDs {
				if !seen[c] {
					seen[c] = true
					queue = append(queue, c)
				}
			}
		}
	}
	for _, id := range slices.Sorted(maps.Keys(s.Units)) {
		if !seen[id] {
			u := s.Units[id].Unit
			ordered = append(ordered, u.Clone())
		}
	}

	t, err := Assemble(s.ID, s.Name, s.RootID, ordered)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// MarshalJSON encodes the tree in its wire form.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// UnmarshalJSON decodes and validates a tree in wire form.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := FromSnapshot(s)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// Export writes the tree as indented JSON.
func Export(w io.Writer, t *Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// Import reads a tree previously written by [Export]. Malformed JSON yields
// an INVALID_FORMAT error; structural problems keep their own codes.
func Import(r io.Reader) (*Tree, error) {
	var t Tree
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		if errs.GetCode(err) != "" {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode tree")
	}
	return &t, nil
}
