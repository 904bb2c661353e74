package model

import "github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"

// Rel is an edge: identity, source/destination node references, and optional
// properties carried as a Node whose label is the rel's property type.
type Rel struct {
	ID         string
	RelName    string
	Src        NodeRef
	Dst        NodeRef
	Properties *Node
}

// SrcID and DstID are convenience accessors used by the data-loader to
// re-key batched results (internal/gql2graph/loader).
func (r Rel) SrcID() string { return r.Src.ID }
func (r Rel) DstID() string { return r.Dst.ID }
