package model

import (
	"github.com/google/uuid"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
)

// NewID synthesizes a node/rel id the way the core does when one is absent on
// create: a lowercase hyphenated UUID v4 string (spec.md §3).
func NewID() string {
	return uuid.New().String()
}

// Node is a materialized (concrete type label, field map) pair whose
// identity is the value at key "id".
type Node struct {
	ConcreteTypeName string
	Fields           map[string]gvalue.Value
}

// NewNode constructs a Node from a concrete type name and field map,
// synthesizing an id if one is not already present.
func NewNode(typeName string, fields map[string]gvalue.Value) Node {
	if fields == nil {
		fields = map[string]gvalue.Value{}
	}
	if _, ok := fields["id"]; !ok {
		fields["id"] = gvalue.FromUuid(NewID())
	}
	return Node{ConcreteTypeName: typeName, Fields: fields}
}

// ID returns the node's identity, or MissingProperty("id") if absent —
// the error a custom resolver triggers by creating a node without one
// (spec.md §4.3).
func (n Node) ID() (string, error) {
	v, ok := n.Fields["id"]
	if !ok {
		return "", errors.MissingProperty("id")
	}
	return v.AsIDString()
}

// NodeRef is a lazy reference to a node: just enough to re-fetch it through
// the per-request loader without materializing a cycle (spec.md §9,
// "Cyclic request graphs").
type NodeRef struct {
	ID    string
	Label string // empty when the label is not needed by the caller (Cypher)
}
