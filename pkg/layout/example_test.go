package layout_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/familytree/pkg/family"
	"github.com/matzehuels/familytree/pkg/layout"
)

func ExampleCompute() {
	root, _ := family.NewPerson(family.PersonInput{FirstName: "Ada", LastName: "Byron", Gender: family.GenderFemale})
	t, _ := family.NewTree("Byron", root)

	son, _ := family.NewPerson(family.PersonInput{FirstName: "Byron", LastName: "King", Gender: family.GenderMale})
	daughter, _ := family.NewPerson(family.PersonInput{FirstName: "Anne", LastName: "King", Gender: family.GenderFemale})
	_, _ = t.AddChild(t.RootID, son, nil)
	_, _ = t.AddChild(t.RootID, daughter, nil)

	r, err := layout.Compute(context.Background(), t, layout.Options{Engine: layout.EngineSimple})
	if err != nil {
		panic(err)
	}

	for _, n := range r.Nodes {
		fmt.Println(n.Level, n.Position.X, n.Position.Y)
	}
	for _, e := range r.Edges {
		fmt.Println(e.Data.LineageColor)
	}
	// Output:
	// 0 0 0
	// 1 -150 180
	// 1 150 180
	// #3b82f6
	// #ec4899
}
