package family

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

var (
	// ErrUnitNotFound is returned when a unit ID is not part of the tree.
	ErrUnitNotFound = errs.New(errs.ErrCodeNotFound, "unit not found")

	// ErrPersonNotFound is returned when a person ID is not part of the tree.
	ErrPersonNotFound = errs.New(errs.ErrCodeNotFound, "person not found")

	// ErrNotSingle is returned by AddSpouse when the unit already has a spouse.
	ErrNotSingle = errs.New(errs.ErrCodeInvalidAction, "spouse can only be added to a single unit")

	// ErrNeedsSpouse is returned by AddMistress on a single unit.
	ErrNeedsSpouse = errs.New(errs.ErrCodeInvalidAction, "mistress can only be added to a couple or polygamous unit")

	// ErrRootUnit is returned when removing the root unit.
	ErrRootUnit = errs.New(errs.ErrCodeForbidden, "cannot delete root unit")

	// ErrDuplicateID is returned when a unit or person ID appears twice.
	ErrDuplicateID = errs.New(errs.ErrCodeInvalidInput, "duplicate id")

	// ErrInvalidTree is returned by Validate for structural problems.
	ErrInvalidTree = errs.New(errs.ErrCodeInvalidInput, "invalid family tree")
)

// Tree is a rooted family tree of units.
//
// The zero value is not usable; create trees with [NewTree] or [Assemble].
// A Tree is not safe for concurrent use.
type Tree struct {
	ID     string
	Name   string
	RootID string

	units    map[string]*Unit
	order    []string            // insertion order of unit IDs
	children map[string][]string // parent ID -> child unit IDs, insertion order
}

// NewTree creates a tree with a fresh ID whose root is a single unit holding root.
func NewTree(name string, root Person) (*Tree, error) {
	if err := errs.ValidateName("name", name); err != nil {
		return nil, err
	}
	if root.ID == "" {
		return nil, errs.New(errs.ErrCodeInvalidInput, "rootPerson is required")
	}
	u := NewUnit([]Person{root}, UnitOptions{})
	t := empty(uuid.NewString(), name, u.ID)
	t.insert(u)
	return t, nil
}

// Assemble builds a tree from stored units. Units are indexed in the given
// order, which also fixes the order of siblings. Assemble rejects duplicate
// unit IDs but performs no structural validation; call [Tree.Validate].
func Assemble(id, name, rootID string, units []*Unit) (*Tree, error) {
	t := empty(id, name, rootID)
	for _, u := range units {
		if _, ok := t.units[u.ID]; ok {
			return nil, fmt.Errorf("%w: unit %s", ErrDuplicateID, u.ID)
		}
		t.insert(u)
	}
	return t, nil
}

func empty(id, name, rootID string) *Tree {
	return &Tree{
		ID:       id,
		Name:     name,
		RootID:   rootID,
		units:    make(map[string]*Unit),
		children: make(map[string][]string),
	}
}

func (t *Tree) insert(u *Unit) {
	t.units[u.ID] = u
	t.order = append(t.order, u.ID)
	if u.ParentID != "" {
		t.children[u.ParentID] = append(t.children[u.ParentID], u.ID)
	}
}

// Len returns the number of units.
func (t *Tree) Len() int { return len(t.units) }

// Unit returns the unit with the given ID. The returned unit belongs to the
// tree; callers must not change its ID or ParentID.
func (t *Tree) Unit(id string) (*Unit, bool) {
	u, ok := t.units[id]
	return u, ok
}

// Root returns the root unit, if present.
func (t *Tree) Root() (*Unit, bool) { return t.Unit(t.RootID) }

// Units returns all units in insertion order.
func (t *Tree) Units() []*Unit {
	out := make([]*Unit, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.units[id])
	}
	return out
}

// Children returns the IDs of the units whose parent is id, in insertion order.
func (t *Tree) Children(id string) []string {
	return slices.Clone(t.children[id])
}

// PersonCount returns the number of persons across all units.
func (t *Tree) PersonCount() int {
	n := 0
	for _, u := range t.units {
		n += len(u.Persons)
	}
	return n
}

// FindPerson returns the unit holding the person and the person's index in it.
func (t *Tree) FindPerson(personID string) (*Unit, int, bool) {
	for _, id := range t.order {
		u := t.units[id]
		for i, p := range u.Persons {
			if p.ID == personID {
				return u, i, true
			}
		}
	}
	return nil, 0, false
}

// Subtree returns id followed by all of its transitive descendants in
// breadth-first order. It returns nil if id is not in the tree.
func (t *Tree) Subtree(id string) []string {
	if _, ok := t.units[id]; !ok {
		return nil
	}
	out := []string{id}
	for i := 0; i < len(out); i++ {
		out = append(out, t.children[out[i]]...)
	}
	return out
}

// Levels returns the breadth-first depth of every unit reachable from the root.
func (t *Tree) Levels() map[string]int {
	levels := make(map[string]int, len(t.units))
	if _, ok := t.units[t.RootID]; !ok {
		return levels
	}
	levels[t.RootID] = 0
	queue := []string{t.RootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.children[id] {
			if _, seen := levels[c]; seen {
				continue
			}
			levels[c] = levels[id] + 1
			queue = append(queue, c)
		}
	}
	return levels
}

// Validate checks that the tree is connected, acyclic and rooted at RootID,
// that every unit is well formed and that person IDs are unique.
func (t *Tree) Validate() error {
	root, ok := t.units[t.RootID]
	if !ok {
		return fmt.Errorf("%w: root unit %q missing", ErrInvalidTree, t.RootID)
	}
	if !root.IsRoot() {
		return fmt.Errorf("%w: root unit %s has a parent", ErrInvalidTree, root.ID)
	}

	persons := make(map[string]string)
	for _, id := range t.order {
		u := t.units[id]
		if err := u.validate(); err != nil {
			return err
		}
		for _, p := range u.Persons {
			if p.ID == "" {
				return fmt.Errorf("%w: person without id in unit %s", ErrInvalidTree, u.ID)
			}
			if other, dup := persons[p.ID]; dup {
				return fmt.Errorf("%w: person %s in units %s and %s", ErrDuplicateID, p.ID, other, u.ID)
			}
			persons[p.ID] = u.ID
		}
		if u.ID == t.RootID {
			continue
		}
		if u.IsRoot() {
			return fmt.Errorf("%w: unit %s has no parent", ErrInvalidTree, u.ID)
		}
		parent, ok := t.units[u.ParentID]
		if !ok {
			return fmt.Errorf("%w: unit %s references missing parent %s", ErrInvalidTree, u.ID, u.ParentID)
		}
		if u.MotherIndex != nil && (*u.MotherIndex < 1 || *u.MotherIndex >= len(parent.Persons)) {
			return fmt.Errorf("%w: unit %s motherIndex %d out of range", ErrInvalidTree, u.ID, *u.MotherIndex)
		}
	}

	// Every unit has one parent, so any cycle is unreachable from the root.
	if reached := len(t.Levels()); reached != len(t.units) {
		return fmt.Errorf("%w: %d of %d units unreachable from root", ErrInvalidTree, len(t.units)-reached, len(t.units))
	}
	return nil
}
