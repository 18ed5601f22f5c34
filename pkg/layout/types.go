package layout

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/familytree/pkg/family"
)

// Engine names.
const (
	EngineLayered = "layered"
	EngineSimple  = "simple"
)

// NodeType and EdgeType are the diagram component names clients register.
const (
	NodeType = "family"
	EdgeType = "family"
)

// Lineage colors by gender of the child's primary person.
const (
	ColorMale    = "#3b82f6"
	ColorFemale  = "#ec4899"
	ColorUnknown = "#6b7280"
)

// Result is a positioned diagram of a family tree.
type Result struct {
	Engine    string  `json:"engine" bson:"engine"`
	Nodes     []Node  `json:"nodes" bson:"nodes"`
	Edges     []Edge  `json:"edges" bson:"edges"`
	Width     float64 `json:"width" bson:"width"`
	Height    float64 `json:"height" bson:"height"`
	Levels    int     `json:"levels" bson:"levels"`
	Crossings int     `json:"crossings" bson:"crossings"`
}

// Position is the top-left corner of a node box, y growing downward.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is one positioned family unit.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Type     string   `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	Width    float64  `json:"width" bson:"width"`
	Height   float64  `json:"height" bson:"height"`
	Level    int      `json:"level" bson:"level"`
	Data     NodeData `json:"data" bson:"data"`
}

// NodeData carries the unit the node renders.
type NodeData struct {
	Unit family.UnitView `json:"unit" bson:"unit"`
}

// Edge connects a parent unit to a child unit.
type Edge struct {
	ID           string   `json:"id" bson:"id"`
	Source       string   `json:"source" bson:"source"`
	Target       string   `json:"target" bson:"target"`
	Type         string   `json:"type" bson:"type"`
	SourceHandle string   `json:"sourceHandle,omitempty" bson:"sourceHandle,omitempty"`
	Data         EdgeData `json:"data" bson:"data"`
}

// EdgeData holds edge styling.
type EdgeData struct {
	LineageColor string `json:"lineageColor" bson:"lineageColor"`
	MotherIndex  *int   `json:"motherIndex,omitempty" bson:"motherIndex,omitempty"`
}

// EdgeID returns the edge identifier for a parent and child unit.
func EdgeID(parentID, childID string) string {
	return fmt.Sprintf("e-%s-%s", parentID, childID)
}

// Node returns the node with the given ID.
func (r *Result) Node(id string) (Node, bool) {
	for _, n := range r.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// MarshalResult serializes a layout result to JSON.
func MarshalResult(r *Result) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalResult deserializes a layout result from JSON.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &r, nil
}
