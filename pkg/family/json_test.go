package family

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"strings"
	"testing"

	errs "github.com/matzehuels/familytree/pkg/errors"
)

func buildSample(t *testing.T) *Tree {
	t.Helper()
	tr := newTestTree(t)
	_ = tr.AddSpouse(tr.RootID, person(t, "Wife", GenderFemale))
	_ = tr.AddMistress(tr.RootID, person(t, "Mistress", GenderFemale))
	a, _ := tr.AddChild(tr.RootID, person(t, "A", GenderMale), Int(2))
	_, _ = tr.AddChild(tr.RootID, person(t, "B", GenderFemale), Int(1))
	_, _ = tr.AddChild(a.ID, person(t, "A1", ""), nil)
	return tr
}

func TestExportImportRoundTrip(t *testing.T) {
	orig := buildSample(t)

	var buf bytes.Buffer
	if err := Export(&buf, orig); err != nil {
		t.Fatalf("Export: %v", err)
	}
	got, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if got.Summary() != orig.Summary() {
		t.Errorf("Summary = %+v, want %+v", got.Summary(), orig.Summary())
	}
	if !reflect.DeepEqual(got.Snapshot(), orig.Snapshot()) {
		t.Errorf("Snapshot mismatch after round trip")
	}
	for _, u := range orig.Units() {
		if !slices.Equal(got.Children(u.ID), orig.Children(u.ID)) {
			t.Errorf("Children(%s) = %v, want %v", u.ID, got.Children(u.ID), orig.Children(u.ID))
		}
	}
}

func TestMarshalDerivesChildren(t *testing.T) {
	tr := buildSample(t)
	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw struct {
		RootID string `json:"rootId"`
		Units  map[string]struct {
			ChildrenIDs []string `json:"childrenIds"`
			ParentID    string   `json:"parentId"`
		} `json:"units"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	for id, u := range raw.Units {
		if u.ChildrenIDs == nil {
			t.Errorf("unit %s childrenIds = null, want array", id)
		}
		for _, c := range u.ChildrenIDs {
			if raw.Units[c].ParentID != id {
				t.Errorf("child %s of %s has parentId %q", c, id, raw.Units[c].ParentID)
			}
		}
	}
	if n := len(raw.Units[raw.RootID].ChildrenIDs); n != 2 {
		t.Errorf("root childrenIds = %d, want 2", n)
	}
}

func TestImportRejectsInconsistentChildren(t *testing.T) {
	input := `{
	  "id": "t", "name": "T", "rootId": "r",
	  "units": {
	    "r": {"id": "r", "type": "single", "persons": [{"id": "p1", "firstName": "A", "lastName": "B"}], "childrenIds": ["c"]},
	    "c": {"id": "c", "type": "single", "persons": [{"id": "p2", "firstName": "C", "lastName": "D"}], "parentId": "x", "childrenIds": []}
	  }
	}`
	if _, err := Import(strings.NewReader(input)); err == nil {
		t.Error("Import() with inconsistent childrenIds succeeded, want error")
	}
}

func TestImportRejectsUnreachable(t *testing.T) {
	input := `{
	  "id": "t", "name": "T", "rootId": "r",
	  "units": {
	    "r": {"id": "r", "type": "single", "persons": [{"id": "p1", "firstName": "A", "lastName": "B"}], "childrenIds": []},
	    "c": {"id": "c", "type": "single", "persons": [{"id": "p2", "firstName": "C", "lastName": "D"}], "childrenIds": []}
	  }
	}`
	if _, err := Import(strings.NewReader(input)); err == nil {
		t.Error("Import() with unreachable unit succeeded, want error")
	}
}

func TestImportMalformed(t *testing.T) {
	_, err := Import(strings.NewReader(`{"id": `))
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("Import() = %v, want INVALID_FORMAT", err)
	}
}
