// Package pkg holds the libraries behind the familytree server and CLI.
//
// # Overview
//
// A family tree is a rooted tree of units. A unit is a single person, a
// couple, or a polygamous family of one husband and several wives. Children
// belong to a unit and, in polygamous units, to one of the wives. The
// libraries are organized by concern:
//
//  1. [family] - the domain model: trees, units, persons and their invariants
//  2. [store] - SQL persistence of trees (SQLite, PostgreSQL, MySQL)
//  3. [layout] - generation-by-generation positions and SVG diagrams
//  4. [pipeline] - layout and rendering through a [cache]
//  5. [blob] and [archive] - uploaded images and point-in-time snapshots
//  6. [api] - the chi-based REST API that ties the above together
//
// # Data flow
//
// A request to lay out a tree follows this path:
//
//	store.GetTree        load units and persons
//	         ↓
//	pipeline.Runner      hash the tree, look up the cache
//	         ↓
//	layout.Compute       dag levels, graphviz placement, edge colors
//	         ↓
//	layout.RenderSVG     optional diagram, cached separately
//
// Mutations go the other way: the api package applies an operation to the
// in-memory [family.Tree] first so every invariant is checked in one place,
// then persists only the changed rows.
//
// # Errors
//
// All packages return errors built with [errors.New] and [errors.Wrap]. The
// attached code decides the HTTP status in the API and is preserved through
// wrapping.
//
// # Configuration
//
// [config] reads a TOML file, an optional .env file and FAMILYTREE_*
// variables, in that order. The CLI in internal/cli builds every backend
// from one [config.Config].
//
// [family]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/family
// [store]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/store
// [layout]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/layout
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/cache
// [blob]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/blob
// [archive]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/archive
// [api]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/api
// [config]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/config
// [config.Config]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/config#Config
// [family.Tree]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/family#Tree
// [errors.New]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/errors#New
// [errors.Wrap]: https://pkg.go.dev/github.com/matzehuels/familytree/pkg/errors#Wrap
package pkg
