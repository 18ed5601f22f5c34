package family

import (
	"fmt"
	"slices"
)

// AddSpouse appends spouse to a single unit, turning it into a couple whose
// primary person is the original member.
func (t *Tree) AddSpouse(unitID string, spouse Person) error {
	u, err := t.mustUnit(unitID)
	if err != nil {
		return err
	}
	if err := u.CanAddSpouse(); err != nil {
		return err
	}
	u.Persons = append(u.Persons, spouse)
	u.Type = UnitCouple
	u.PrimaryPersonIndex = Int(0)
	return nil
}

// AddMistress appends a further wife to a couple or polygamous unit.
func (t *Tree) AddMistress(unitID string, mistress Person) error {
	u, err := t.mustUnit(unitID)
	if err != nil {
		return err
	}
	if err := u.CanAddMistress(); err != nil {
		return err
	}
	u.Persons = append(u.Persons, mistress)
	u.Type = UnitPolygamous
	return nil
}

// AddChild creates a single unit for child below parentID. motherIndex is
// kept only when the parent is polygamous and the index names one of its wives.
func (t *Tree) AddChild(parentID string, child Person, motherIndex *int) (*Unit, error) {
	parent, err := t.mustUnit(parentID)
	if err != nil {
		return nil, err
	}
	u := NewUnit([]Person{child}, UnitOptions{
		ParentID:    parent.ID,
		MotherIndex: parent.ChildMotherIndex(motherIndex),
	})
	t.insert(u)
	return u, nil
}

// RemoveUnit deletes the unit, all of its descendants and their persons.
// It returns the removed unit IDs, the unit itself first.
func (t *Tree) RemoveUnit(unitID string) ([]string, error) {
	u, err := t.mustUnit(unitID)
	if err != nil {
		return nil, err
	}
	if u.ID == t.RootID {
		return nil, ErrRootUnit
	}

	removed := t.Subtree(u.ID)
	gone := make(map[string]bool, len(removed))
	for _, id := range removed {
		gone[id] = true
		delete(t.units, id)
		delete(t.children, id)
	}
	t.order = slices.DeleteFunc(t.order, func(id string) bool { return gone[id] })
	t.children[u.ParentID] = slices.DeleteFunc(t.children[u.ParentID], func(id string) bool { return id == u.ID })
	return removed, nil
}

// UpdatePerson applies patch to the person with the given ID.
func (t *Tree) UpdatePerson(personID string, patch PersonPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	u, i, ok := t.FindPerson(personID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrPersonNotFound, personID)
	}
	patch.Apply(&u.Persons[i])
	return nil
}

func (t *Tree) mustUnit(id string) (*Unit, error) {
	u, ok := t.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	return u, nil
}
