// Package family implements the genealogical data model: persons grouped into
// family units, and units linked into a rooted tree.
//
// # Units
//
// A [Unit] is a node of the tree. It holds one person (single), a couple, or
// a polygamous grouping of a husband, his first wife and any mistresses. The
// index of a person in [Unit.Persons] identifies their role:
//
//	index 0      the husband (or the only person of a single unit)
//	index 1      the first wife
//	index 2..n   mistresses
//
// Children are themselves units. A child unit records its parent with
// [Unit.ParentID] and, when the parent is polygamous, which wife is its mother
// with the 1-based [Unit.MotherIndex].
//
// # Children
//
// Only the parent link is stored. A [Tree] keeps an insertion-ordered child
// index built from parent links, so the child list of a unit can never
// disagree with its children's ParentID. The JSON wire form still carries a
// derived childrenIds array for clients.
//
// # Operations
//
// The mutating operations on [Tree] enforce the unit type rules and return
// coded errors from the errors package instead of ignoring invalid requests:
//
//	t, _ := family.NewTree("Smith family", root)
//	_ = t.AddSpouse(t.RootID, wife)
//	child, _ := t.AddChild(t.RootID, son, nil)
//	removed, _ := t.RemoveUnit(child.ID)
package family
