package layout

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/familytree/pkg/family"
)

func mustPerson(t *testing.T, first string, g family.Gender) family.Person {
	t.Helper()
	p, err := family.NewPerson(family.PersonInput{FirstName: first, LastName: "Test", Gender: g})
	if err != nil {
		t.Fatalf("NewPerson: %v", err)
	}
	return p
}

// polygamousTree builds:
//
//	root (husband, wife, mistress1, mistress2)
//	  c3 (mother 3), c1 (mother 1), cx (no mother), c2 (mother 2)
//	  c1 -> g1 (couple)
type fixture struct {
	tree           *family.Tree
	c1, c2, c3, cx *family.Unit
	g1             *family.Unit
}

func polygamousTree(t *testing.T) fixture {
	t.Helper()
	tr, err := family.NewTree("Poly", mustPerson(t, "Husband", family.GenderMale))
	if err != nil {
		t.Fatal(err)
	}
	_ = tr.AddSpouse(tr.RootID, mustPerson(t, "Wife", family.GenderFemale))
	_ = tr.AddMistress(tr.RootID, mustPerson(t, "M1", family.GenderFemale))
	_ = tr.AddMistress(tr.RootID, mustPerson(t, "M2", family.GenderFemale))

	var f fixture
	f.tree = tr
	f.c3, _ = tr.AddChild(tr.RootID, mustPerson(t, "C3", family.GenderFemale), family.Int(3))
	f.c1, _ = tr.AddChild(tr.RootID, mustPerson(t, "C1", family.GenderMale), family.Int(1))
	f.cx, _ = tr.AddChild(tr.RootID, mustPerson(t, "CX", ""), nil)
	f.c2, _ = tr.AddChild(tr.RootID, mustPerson(t, "C2", family.GenderMale), family.Int(2))
	f.g1, _ = tr.AddChild(f.c1.ID, mustPerson(t, "G1", family.GenderMale), nil)
	_ = tr.AddSpouse(f.g1.ID, mustPerson(t, "G1 wife", family.GenderFemale))
	return f
}

func TestSize(t *testing.T) {
	tests := []struct {
		persons int
		wantW   float64
	}{
		{1, SingleNodeWidth},
		{2, NodeWidth},
		{3, NodeWidth + ExtraWifeWidth},
		{5, NodeWidth + 3*ExtraWifeWidth},
	}
	for _, tt := range tests {
		u := &family.Unit{Type: family.TypeForCount(tt.persons), Persons: make([]family.Person, tt.persons)}
		w, h := Size(u)
		if w != tt.wantW || h != NodeHeight {
			t.Errorf("Size(%d persons) = %v x %v, want %v x %v", tt.persons, w, h, tt.wantW, NodeHeight)
		}
	}
}

func TestSortedChildren(t *testing.T) {
	f := polygamousTree(t)
	got := sortedChildren(f.tree, f.tree.RootID)
	want := []string{f.c1.ID, f.c2.ID, f.c3.ID, f.cx.ID}
	if !slices.Equal(got, want) {
		t.Errorf("sortedChildren() = %v, want %v", got, want)
	}
}

func TestBuildGraph(t *testing.T) {
	f := polygamousTree(t)
	g := buildGraph(f.tree)

	if g.NodeCount() != 6 || len(g.Edges()) != 5 {
		t.Fatalf("graph = %d nodes, %d edges, want 6, 5", g.NodeCount(), len(g.Edges()))
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	n, _ := g.Node(f.g1.ID)
	if n.Row != 2 || n.Width != NodeWidth {
		t.Errorf("g1 row %d width %v, want 2, %v", n.Row, n.Width, NodeWidth)
	}
}

func TestToDOT(t *testing.T) {
	f := polygamousTree(t)
	dot, ids := ToDOT(buildGraph(f.tree), Options{NodeSpacing: 72, RankSpacing: 144})

	for _, want := range []string{"rankdir=TB;", "ordering=out;", "nodesep=1.0000;", "ranksep=2.0000;", "n0 -> n1;"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if ids["n0"] != f.tree.RootID {
		t.Errorf("n0 = %s, want root", ids["n0"])
	}
	// children are emitted in motherIndex order
	if ids["n1"] != f.c1.ID || ids["n4"] != f.cx.ID {
		t.Errorf("child order n1=%s n4=%s", ids["n1"], ids["n4"])
	}
}

func TestParsePlain(t *testing.T) {
	out := []byte("graph 1 4 3\nnode n0 2 2.5 1 1 \"\" solid box black lightgrey\nnode \"n1\" 1 0.5 1 1 \"\" solid box black lightgrey\nedge n0 n1 4 2 2 2 1 1 1 1 1 solid black\nstop\n")
	centers, err := parsePlain(out)
	if err != nil {
		t.Fatalf("parsePlain: %v", err)
	}
	if c := centers["n0"]; c.x != 144 || c.y != 36 {
		t.Errorf("n0 = %+v, want {144 36}", c)
	}
	if c := centers["n1"]; c.x != 72 || c.y != 180 {
		t.Errorf("n1 = %+v, want {72 180}", c)
	}
}

func TestAlignLevels(t *testing.T) {
	nodes := []Node{
		{ID: "a", Level: 1, Position: Position{X: 0, Y: 200}},
		{ID: "b", Level: 1, Position: Position{X: 300, Y: 215}},
		{ID: "c", Level: 0, Position: Position{X: 0, Y: 3}},
	}
	alignLevels(nodes)
	if nodes[0].Position.Y != 215 || nodes[1].Position.Y != 215 {
		t.Errorf("level 1 y = %v, %v, want 215", nodes[0].Position.Y, nodes[1].Position.Y)
	}
	if nodes[2].Position.Y != 3 {
		t.Errorf("level 0 y = %v, want 3", nodes[2].Position.Y)
	}
}

func TestReorderPolygamousChildren(t *testing.T) {
	f := polygamousTree(t)
	// Place children in reverse motherIndex order.
	nodes := []Node{
		{ID: f.c3.ID, Level: 1, Position: Position{X: 0}},
		{ID: f.c2.ID, Level: 1, Position: Position{X: 100}},
		{ID: f.cx.ID, Level: 1, Position: Position{X: 250}},
		{ID: f.c1.ID, Level: 1, Position: Position{X: 400}},
	}
	reorderPolygamousChildren(f.tree, nodes)

	got := map[string]float64{}
	for _, n := range nodes {
		got[n.ID] = n.Position.X
	}
	want := map[string]float64{f.c1.ID: 0, f.c2.ID: 100, f.c3.ID: 250, f.cx.ID: 400}
	for id, x := range want {
		if got[id] != x {
			t.Errorf("x[%s] = %v, want %v", id, got[id], x)
		}
	}
}

func TestBuildEdges(t *testing.T) {
	f := polygamousTree(t)
	r, err := Compute(context.Background(), f.tree, Options{Engine: EngineSimple})
	if err != nil {
		t.Fatal(err)
	}

	edges := map[string]Edge{}
	for _, e := range r.Edges {
		edges[e.Target] = e
	}
	if len(edges) != 5 {
		t.Fatalf("len(edges) = %d, want 5", len(edges))
	}

	tests := []struct {
		unit       *family.Unit
		wantHandle string
		wantColor  string
	}{
		{f.c1, "mother-1", ColorMale},
		{f.c2, "mother-2", ColorMale},
		{f.c3, "mother-3", ColorFemale},
		{f.cx, "", ColorUnknown},
		{f.g1, "", ColorMale},
	}
	for _, tt := range tests {
		e := edges[tt.unit.ID]
		if e.ID != EdgeID(tt.unit.ParentID, tt.unit.ID) {
			t.Errorf("edge id = %s", e.ID)
		}
		if e.Source != tt.unit.ParentID || e.Type != EdgeType {
			t.Errorf("edge %s source %s type %s", e.ID, e.Source, e.Type)
		}
		if e.SourceHandle != tt.wantHandle {
			t.Errorf("edge %s handle = %q, want %q", e.ID, e.SourceHandle, tt.wantHandle)
		}
		if e.Data.LineageColor != tt.wantColor {
			t.Errorf("edge %s color = %s, want %s", e.ID, e.Data.LineageColor, tt.wantColor)
		}
	}
}

func TestLineageColorUsesPrimaryPerson(t *testing.T) {
	u := &family.Unit{
		Type:               family.UnitCouple,
		Persons:            []family.Person{{Gender: family.GenderMale}, {Gender: family.GenderFemale}},
		PrimaryPersonIndex: family.Int(1),
	}
	if got := lineageColor(u); got != ColorFemale {
		t.Errorf("lineageColor() = %s, want %s", got, ColorFemale)
	}
	u.PrimaryPersonIndex = nil
	if got := lineageColor(u); got != ColorMale {
		t.Errorf("lineageColor() default = %s, want %s", got, ColorMale)
	}
}

func TestComputeSimple(t *testing.T) {
	f := polygamousTree(t)
	r, err := Compute(context.Background(), f.tree, Options{Engine: EngineSimple})
	if err != nil {
		t.Fatal(err)
	}
	if r.Engine != EngineSimple || len(r.Nodes) != 6 || r.Levels != 3 {
		t.Fatalf("result engine %s nodes %d levels %d", r.Engine, len(r.Nodes), r.Levels)
	}

	root, _ := r.Node(f.tree.RootID)
	if root.Position != (Position{X: 0, Y: 0}) {
		t.Errorf("root position = %+v, want {0 0}", root.Position)
	}
	// Four children centered on 0: -450, -150, 150, 450.
	wantX := map[string]float64{f.c1.ID: -450, f.c2.ID: -150, f.c3.ID: 150, f.cx.ID: 450}
	for id, x := range wantX {
		n, _ := r.Node(id)
		if n.Position.X != x || n.Position.Y != VerticalSpacing {
			t.Errorf("node %s at %+v, want x=%v y=%v", id, n.Position, x, VerticalSpacing)
		}
	}
	if r.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", r.Crossings)
	}
}

func assertLayoutInvariants(t *testing.T, f fixture, r *Result) {
	t.Helper()

	ys := map[int]float64{}
	for _, n := range r.Nodes {
		if y, ok := ys[n.Level]; ok && y != n.Position.Y {
			t.Errorf("level %d has y %v and %v", n.Level, y, n.Position.Y)
		}
		ys[n.Level] = n.Position.Y
	}
	if !(ys[0] < ys[1] && ys[1] < ys[2]) {
		t.Errorf("levels not top-down: %v", ys)
	}

	var prev float64
	for i, u := range []*family.Unit{f.c1, f.c2, f.c3} {
		n, ok := r.Node(u.ID)
		if !ok {
			t.Fatalf("node %s missing", u.ID)
		}
		if i > 0 && n.Position.X < prev {
			t.Errorf("child with motherIndex %d at x=%v left of previous x=%v", *u.MotherIndex, n.Position.X, prev)
		}
		prev = n.Position.X
	}
}

func TestComputeLayered(t *testing.T) {
	f := polygamousTree(t)
	r, err := Compute(context.Background(), f.tree, Options{Strict: true})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if r.Engine != EngineLayered {
		t.Errorf("Engine = %s, want %s", r.Engine, EngineLayered)
	}
	if len(r.Nodes) != 6 || len(r.Edges) != 5 {
		t.Fatalf("result %d nodes %d edges, want 6, 5", len(r.Nodes), len(r.Edges))
	}
	assertLayoutInvariants(t, f, r)

	root, _ := r.Node(f.tree.RootID)
	if root.Width != NodeWidth+2*ExtraWifeWidth {
		t.Errorf("root width = %v", root.Width)
	}
	if r.Width <= 0 || r.Height < 3*NodeHeight {
		t.Errorf("extent = %v x %v", r.Width, r.Height)
	}
}

func TestComputeSimpleInvariants(t *testing.T) {
	f := polygamousTree(t)
	r, err := Compute(context.Background(), f.tree, Options{Engine: EngineSimple})
	if err != nil {
		t.Fatal(err)
	}
	assertLayoutInvariants(t, f, r)
}

// Children added with motherIndex 2, 1, 1 must end up ordered b, c, a: the
// two children of the first wife keep their insertion order.
func TestDuplicateMotherIndex(t *testing.T) {
	tr, err := family.NewTree("Dup", mustPerson(t, "Husband", family.GenderMale))
	if err != nil {
		t.Fatal(err)
	}
	_ = tr.AddSpouse(tr.RootID, mustPerson(t, "Wife", family.GenderFemale))
	_ = tr.AddMistress(tr.RootID, mustPerson(t, "Second", family.GenderFemale))
	a, _ := tr.AddChild(tr.RootID, mustPerson(t, "A", ""), family.Int(2))
	b, _ := tr.AddChild(tr.RootID, mustPerson(t, "B", ""), family.Int(1))
	c, _ := tr.AddChild(tr.RootID, mustPerson(t, "C", ""), family.Int(1))

	if got, want := sortedChildren(tr, tr.RootID), []string{b.ID, c.ID, a.ID}; !slices.Equal(got, want) {
		t.Errorf("sortedChildren() = %v, want %v", got, want)
	}

	tests := []struct {
		name string
		opts Options
		want []float64
	}{
		{"layered", Options{Engine: EngineLayered, Strict: true}, nil},
		{"simple", Options{Engine: EngineSimple}, []float64{-300, 0, 300}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Compute(context.Background(), tr, tt.opts)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			var xs []float64
			for _, u := range []*family.Unit{b, c, a} {
				n, ok := r.Node(u.ID)
				if !ok {
					t.Fatalf("node %s missing", u.ID)
				}
				xs = append(xs, n.Position.X)
			}
			if !(xs[0] < xs[1] && xs[1] < xs[2]) {
				t.Errorf("x of b, c, a = %v, want strictly increasing", xs)
			}
			if tt.want != nil && !slices.Equal(xs, tt.want) {
				t.Errorf("x of b, c, a = %v, want %v", xs, tt.want)
			}
		})
	}
}

func TestComputeMissingRoot(t *testing.T) {
	tr, _ := family.Assemble("t", "T", "missing", nil)
	for _, engine := range []string{EngineLayered, EngineSimple} {
		r, err := Compute(context.Background(), tr, Options{Engine: engine})
		if err != nil {
			t.Fatalf("Compute(%s): %v", engine, err)
		}
		if len(r.Nodes) != 0 || len(r.Edges) != 0 {
			t.Errorf("Compute(%s) = %d nodes, want empty", engine, len(r.Nodes))
		}
	}
}

func TestComputeUnknownEngine(t *testing.T) {
	f := polygamousTree(t)
	if _, err := Compute(context.Background(), f.tree, Options{Engine: "elk"}); err == nil {
		t.Error("Compute(elk) succeeded, want error")
	}
}

func TestResultRoundTrip(t *testing.T) {
	f := polygamousTree(t)
	r, _ := Compute(context.Background(), f.tree, Options{Engine: EngineSimple})
	data, err := MarshalResult(r)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalResult(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != len(r.Nodes) || got.Edges[0].ID != r.Edges[0].ID {
		t.Errorf("round trip mismatch")
	}
	if !bytes.Contains(data, []byte(`"sourceHandle":"mother-1"`)) {
		t.Errorf("JSON missing sourceHandle: %s", data)
	}
}

func TestRenderSVG(t *testing.T) {
	f := polygamousTree(t)
	r, _ := Compute(context.Background(), f.tree, Options{Engine: EngineSimple})

	dot := ToPinnedDOT(r)
	if !strings.Contains(dot, `label="Husband Test\nWife Test\nM1 Test\nM2 Test"`) {
		t.Errorf("pinned DOT missing root label:\n%s", dot)
	}

	svg, err := RenderSVG(context.Background(), r)
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Error("RenderSVG output is not SVG")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	out := normalizeViewBox(in)
	if !bytes.Contains(out, []byte(`width="100" height="50"`)) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox without viewBox changed input: %s", got)
	}
}
