package store

import (
	"context"
	"errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/familytree/pkg/errors"
	"github.com/matzehuels/familytree/pkg/family"
)

func openTest(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: "sqlite", DSN: ":memory:", Migrate: true}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func person(t *testing.T, first string, g family.Gender) family.Person {
	t.Helper()
	p, err := family.NewPerson(family.PersonInput{FirstName: first, LastName: "Doe", Gender: g, BirthDate: "1950"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTree(t *testing.T, s *SQLStore, name string) *family.Tree {
	t.Helper()
	tr, err := family.NewTree(name, person(t, "Root", family.GenderMale))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateTree(context.Background(), tr); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	return tr
}

// addChild mirrors what the API does: mutate in memory, then persist.
func addChild(t *testing.T, s *SQLStore, tr *family.Tree, parentID, name string, mother *int) *family.Unit {
	t.Helper()
	u, err := tr.AddChild(parentID, person(t, name, ""), mother)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertUnit(context.Background(), tr.ID, u); err != nil {
		t.Fatalf("InsertUnit: %v", err)
	}
	return u
}

func TestMigrateIdempotent(t *testing.T) {
	s := openTest(t)
	applied, err := s.Migrate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != 0 {
		t.Errorf("second Migrate applied %v", applied)
	}
}

func TestCreateGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	a := newTree(t, s, "A")
	b := newTree(t, s, "B")

	list, err := s.ListTrees(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("ListTrees() = %+v, want B then A", list)
	}

	// touching A moves it to the front
	addChild(t, s, a, a.RootID, "Kid", nil)
	list, _ = s.ListTrees(ctx)
	if list[0].ID != a.ID {
		t.Errorf("ListTrees()[0] = %s, want %s after update", list[0].ID, a.ID)
	}

	got, err := s.GetTree(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "A" || got.RootID != a.RootID || got.Len() != 2 {
		t.Errorf("GetTree() = %s %s %d units", got.Name, got.RootID, got.Len())
	}
	root, _ := got.Root()
	if root.Persons[0].BirthDate != "1950" || root.Persons[0].Gender != family.GenderMale {
		t.Errorf("root person = %+v", root.Persons[0])
	}

	if err := s.DeleteTree(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetTree(ctx, a.ID); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("GetTree after delete = %v, want NOT_FOUND", err)
	}
	if err := s.DeleteTree(ctx, "missing"); err != nil {
		t.Errorf("DeleteTree(missing) = %v", err)
	}
}

func TestDerivedChildrenOrder(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")

	var want []string
	for _, name := range []string{"C", "A", "B"} {
		want = append(want, addChild(t, s, tr, tr.RootID, name, nil).ID)
	}

	got, err := s.GetTree(ctx, tr.ID)
	if err != nil {
		t.Fatal(err)
	}
	if children := got.Children(got.RootID); !slices.Equal(children, want) {
		t.Errorf("Children(root) = %v, want %v", children, want)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestAppendPerson(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")

	steps := []struct {
		apply func() error
		want  family.UnitType
	}{
		{func() error { return tr.AddSpouse(tr.RootID, person(t, "Wife", family.GenderFemale)) }, family.UnitCouple},
		{func() error { return tr.AddMistress(tr.RootID, person(t, "Second", family.GenderFemale)) }, family.UnitPolygamous},
	}
	for _, st := range steps {
		if err := st.apply(); err != nil {
			t.Fatal(err)
		}
		u, _ := tr.Root()
		if err := s.AppendPerson(ctx, tr.ID, u); err != nil {
			t.Fatalf("AppendPerson: %v", err)
		}
		got, _ := s.GetTree(ctx, tr.ID)
		root, _ := got.Root()
		if root.Type != st.want || len(root.Persons) != len(u.Persons) {
			t.Errorf("root = %s with %d persons, want %s with %d", root.Type, len(root.Persons), st.want, len(u.Persons))
		}
		if root.PrimaryIndex() != 0 || root.PrimaryPersonIndex == nil {
			t.Errorf("primaryPersonIndex = %v, want 0", root.PrimaryPersonIndex)
		}
	}

	got, _ := s.GetTree(ctx, tr.ID)
	root, _ := got.Root()
	names := []string{root.Persons[0].FirstName, root.Persons[1].FirstName, root.Persons[2].FirstName}
	if !slices.Equal(names, []string{"Root", "Wife", "Second"}) {
		t.Errorf("person order = %v", names)
	}
}

func TestMotherIndexPersisted(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")
	root, _ := tr.Root()
	_ = tr.AddSpouse(tr.RootID, person(t, "W1", family.GenderFemale))
	_ = s.AppendPerson(ctx, tr.ID, root)
	_ = tr.AddMistress(tr.RootID, person(t, "W2", family.GenderFemale))
	_ = s.AppendPerson(ctx, tr.ID, root)

	child := addChild(t, s, tr, tr.RootID, "Kid", family.Int(2))

	got, _ := s.GetTree(ctx, tr.ID)
	u, ok := got.Unit(child.ID)
	if !ok || u.MotherIndex == nil || *u.MotherIndex != 2 {
		t.Errorf("child motherIndex = %v, want 2", u.MotherIndex)
	}
}

func TestDeleteUnitCascade(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")

	a := addChild(t, s, tr, tr.RootID, "A", nil)
	b := addChild(t, s, tr, a.ID, "B", nil)
	c := addChild(t, s, tr, b.ID, "C", nil)
	keep := addChild(t, s, tr, tr.RootID, "Keep", nil)

	deleted, err := s.DeleteUnit(ctx, tr.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(deleted, []string{a.ID, b.ID, c.ID}) {
		t.Errorf("DeleteUnit() = %v, want [a b c]", deleted)
	}

	got, _ := s.GetTree(ctx, tr.ID)
	if got.Len() != 2 {
		t.Errorf("remaining units = %d, want 2", got.Len())
	}
	if children := got.Children(got.RootID); !slices.Equal(children, []string{keep.ID}) {
		t.Errorf("Children(root) = %v", children)
	}
	if got.PersonCount() != 2 {
		t.Errorf("PersonCount() = %d, want 2", got.PersonCount())
	}
}

func TestDeleteUnitErrors(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")

	tests := []struct {
		name     string
		treeID   string
		unitID   string
		wantCode errs.Code
	}{
		{"root", tr.ID, tr.RootID, errs.ErrCodeForbidden},
		{"missing tree", "nope", tr.RootID, errs.ErrCodeNotFound},
		{"missing unit", tr.ID, "nope", errs.ErrCodeNotFound},
	}
	for _, tt := range tests {
		_, err := s.DeleteUnit(ctx, tt.treeID, tt.unitID)
		if got := errs.GetCode(err); got != tt.wantCode {
			t.Errorf("%s: code = %q, want %q (err %v)", tt.name, got, tt.wantCode, err)
		}
	}
}

func TestDeleteUnitSweepsOrphans(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")
	a := addChild(t, s, tr, tr.RootID, "A", nil)

	// A unit whose parent is already gone, as left by a concurrent insert.
	orphan := family.NewUnit([]family.Person{person(t, "Lost", "")}, family.UnitOptions{ParentID: "vanished"})
	if err := insertUnit(ctx, s.conn(), tr.ID, orphan, 0); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteUnit(ctx, tr.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(deleted, orphan.ID) {
		t.Errorf("DeleteUnit() = %v, want orphan %s swept", deleted, orphan.ID)
	}
}

func TestUpdatePerson(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "T")
	root, _ := tr.Root()

	bio := "Farmer"
	empty := ""
	pid := root.Persons[0].ID
	if err := tr.UpdatePerson(pid, family.PersonPatch{Biography: &bio, BirthDate: &empty}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdatePerson(ctx, tr.ID, root.Persons[0]); err != nil {
		t.Fatalf("UpdatePerson: %v", err)
	}

	got, _ := s.GetTree(ctx, tr.ID)
	u, i, _ := got.FindPerson(pid)
	if p := u.Persons[i]; p.Biography != "Farmer" || p.BirthDate != "" || p.FirstName != "Root" {
		t.Errorf("person = %+v", p)
	}

	if err := s.UpdatePerson(ctx, tr.ID, family.Person{ID: "ghost", FirstName: "X", LastName: "Y"}); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("UpdatePerson(ghost) = %v, want NOT_FOUND", err)
	}
}

func TestImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)

	tr, _ := family.NewTree("Imported", person(t, "Root", family.GenderMale))
	_ = tr.AddSpouse(tr.RootID, person(t, "Wife", family.GenderFemale))
	_ = tr.AddMistress(tr.RootID, person(t, "Second", family.GenderFemale))
	c1, _ := tr.AddChild(tr.RootID, person(t, "C1", ""), family.Int(2))
	_, _ = tr.AddChild(tr.RootID, person(t, "C2", ""), family.Int(1))
	_, _ = tr.AddChild(c1.ID, person(t, "G", ""), nil)

	if err := s.CreateTree(ctx, tr); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTree(ctx, tr.ID)
	if err != nil {
		t.Fatal(err)
	}

	want, _ := tr.MarshalJSON()
	have, _ := got.MarshalJSON()
	if string(want) != string(have) {
		t.Errorf("round trip mismatch:\nwant %s\nhave %s", want, have)
	}

	if err := s.CreateTree(ctx, tr); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("CreateTree(duplicate) = %v, want INVALID_INPUT", err)
	}
}

func TestCreateTreeRejectsTakenIDs(t *testing.T) {
	ctx := context.Background()
	s := openTest(t)
	tr := newTree(t, s, "Original")
	addChild(t, s, tr, tr.RootID, "Kid", nil)

	snap := tr.Snapshot()
	snap.ID = "renamed"
	sameUnits, err := family.FromSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	root, _ := tr.Root()
	samePerson, err := family.NewTree("Shared root", root.Persons[0])
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		tree *family.Tree
	}{
		{"unit ids", sameUnits},
		{"person id", samePerson},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.CreateTree(ctx, tt.tree)
			if !errors.Is(err, family.ErrDuplicateID) {
				t.Fatalf("CreateTree() = %v, want %v", err, family.ErrDuplicateID)
			}
			if !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", errs.GetCode(err), errs.ErrCodeInvalidInput)
			}
			if _, err := s.GetTree(ctx, tt.tree.ID); !errs.Is(err, errs.ErrCodeNotFound) {
				t.Errorf("GetTree() after rejected create = %v, want NOT_FOUND", err)
			}
		})
	}
}

func TestInsertUnitMissingParent(t *testing.T) {
	s := openTest(t)
	tr := newTree(t, s, "T")
	u := family.NewUnit([]family.Person{person(t, "X", "")}, family.UnitOptions{ParentID: "nope"})
	if err := s.InsertUnit(context.Background(), tr.ID, u); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("InsertUnit(missing parent) = %v, want NOT_FOUND", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	if !errs.Is(err, errs.ErrCodeUnsupported) {
		t.Errorf("Open(oracle) = %v, want UNSUPPORTED", err)
	}
}
