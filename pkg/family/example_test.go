package family_test

import (
	"fmt"

	"github.com/matzehuels/familytree/pkg/family"
)

func Example() {
	must := func(p family.Person, err error) family.Person {
		if err != nil {
			panic(err)
		}
		return p
	}

	husband := must(family.NewPerson(family.PersonInput{FirstName: "Jacob", LastName: "Miller", Gender: family.GenderMale}))
	t, _ := family.NewTree("Miller family", husband)

	_ = t.AddSpouse(t.RootID, must(family.NewPerson(family.PersonInput{FirstName: "Leah", LastName: "Miller"})))
	_ = t.AddMistress(t.RootID, must(family.NewPerson(family.PersonInput{FirstName: "Rachel", LastName: "Miller"})))
	child, _ := t.AddChild(t.RootID, must(family.NewPerson(family.PersonInput{FirstName: "Joseph", LastName: "Miller"})), family.Int(2))

	root, _ := t.Root()
	fmt.Println(root.Type, len(root.Persons))
	fmt.Println(family.MotherHandle(*child.MotherIndex))
	fmt.Println(len(t.Children(t.RootID)), t.PersonCount())
	// Output:
	// polygamous 3
	// mother-2
	// 1 4
}
