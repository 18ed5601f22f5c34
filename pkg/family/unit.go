package family

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

// UnitType classifies a unit by the number of adults it groups.
type UnitType string

const (
	UnitSingle     UnitType = "single"
	UnitCouple     UnitType = "couple"
	UnitPolygamous UnitType = "polygamous"
)

// Valid reports whether t is one of the known unit types.
func (t UnitType) Valid() bool {
	return t == UnitSingle || t == UnitCouple || t == UnitPolygamous
}

// TypeForCount returns the unit type implied by a person count.
func TypeForCount(n int) UnitType {
	switch {
	case n <= 1:
		return UnitSingle
	case n == 2:
		return UnitCouple
	default:
		return UnitPolygamous
	}
}

// Unit is a node of the family tree.
//
// ParentID is empty only for the root. MotherIndex is set only on children
// of a polygamous unit and is a 1-based index into the parent's Persons.
type Unit struct {
	ID                 string   `json:"id" bson:"id"`
	Type               UnitType `json:"type" bson:"type"`
	Persons            []Person `json:"persons" bson:"persons"`
	ParentID           string   `json:"parentId,omitempty" bson:"parentId,omitempty"`
	PrimaryPersonIndex *int     `json:"primaryPersonIndex,omitempty" bson:"primaryPersonIndex,omitempty"`
	MotherIndex        *int     `json:"motherIndex,omitempty" bson:"motherIndex,omitempty"`
}

// UnitOptions configures [NewUnit].
type UnitOptions struct {
	ParentID    string
	MotherIndex *int
}

// NewUnit creates a unit with a fresh ID. The type follows from len(persons).
func NewUnit(persons []Person, opts UnitOptions) *Unit {
	return &Unit{
		ID:          uuid.NewString(),
		Type:        TypeForCount(len(persons)),
		Persons:     slices.Clone(persons),
		ParentID:    opts.ParentID,
		MotherIndex: cloneInt(opts.MotherIndex),
	}
}

// IsRoot reports whether the unit has no parent.
func (u *Unit) IsRoot() bool { return u.ParentID == "" }

// PrimaryIndex returns PrimaryPersonIndex, defaulting to 0.
func (u *Unit) PrimaryIndex() int {
	if u.PrimaryPersonIndex == nil || *u.PrimaryPersonIndex < 0 || *u.PrimaryPersonIndex >= len(u.Persons) {
		return 0
	}
	return *u.PrimaryPersonIndex
}

// Primary returns the blood descendant of the unit, if any person exists.
func (u *Unit) Primary() (Person, bool) {
	if len(u.Persons) == 0 {
		return Person{}, false
	}
	return u.Persons[u.PrimaryIndex()], true
}

// Clone returns a deep copy.
func (u *Unit) Clone() *Unit {
	c := *u
	c.Persons = slices.Clone(u.Persons)
	c.PrimaryPersonIndex = cloneInt(u.PrimaryPersonIndex)
	c.MotherIndex = cloneInt(u.MotherIndex)
	return &c
}

// CanAddSpouse returns nil if a spouse may be added to u.
func (u *Unit) CanAddSpouse() error {
	if u.Type != UnitSingle {
		return fmt.Errorf("%w (unit %s is %s)", ErrNotSingle, u.ID, u.Type)
	}
	return nil
}

// CanAddMistress returns nil if a mistress may be added to u.
func (u *Unit) CanAddMistress() error {
	if u.Type != UnitCouple && u.Type != UnitPolygamous {
		return fmt.Errorf("%w (unit %s is %s)", ErrNeedsSpouse, u.ID, u.Type)
	}
	return nil
}

// ChildMotherIndex returns the motherIndex a new child of u should carry.
// It is nil unless u is polygamous and idx names one of its wives.
func (u *Unit) ChildMotherIndex(idx *int) *int {
	if u.Type != UnitPolygamous || idx == nil {
		return nil
	}
	if *idx < 1 || *idx >= len(u.Persons) {
		return nil
	}
	return cloneInt(idx)
}

// MotherHandle returns the connection handle name for a child edge leaving
// a polygamous unit, e.g. "mother-2".
func MotherHandle(motherIndex int) string {
	return fmt.Sprintf("mother-%d", motherIndex)
}

func (u *Unit) validate() error {
	if u.ID == "" {
		return errs.New(errs.ErrCodeInvalidInput, "unit without id")
	}
	if len(u.Persons) == 0 {
		return errs.New(errs.ErrCodeInvalidInput, "unit %s has no persons", u.ID)
	}
	if !u.Type.Valid() {
		return errs.New(errs.ErrCodeInvalidInput, "unit %s has unknown type %q", u.ID, u.Type)
	}
	if want := TypeForCount(len(u.Persons)); u.Type != want {
		return errs.New(errs.ErrCodeInvalidInput, "unit %s is %s but has %d persons", u.ID, u.Type, len(u.Persons))
	}
	if u.PrimaryPersonIndex != nil && (*u.PrimaryPersonIndex < 0 || *u.PrimaryPersonIndex >= len(u.Persons)) {
		return errs.New(errs.ErrCodeInvalidInput, "unit %s primaryPersonIndex out of range", u.ID)
	}
	return nil
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
