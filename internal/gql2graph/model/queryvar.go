package model

import "github.com/warpgrapher/gql2graph/internal/errors"

// NodeQueryVar is a pure, cloneable identifier bundle naming a node within a
// composed query. It holds no database state.
type NodeQueryVar struct {
	label *string
	base  string
	// Suf is exported for dialect backends that need to derive related
	// identifiers (e.g. a partition-key bind name) from the same suffix.
	Suf string
}

// NewNodeQueryVar constructs a NodeQueryVar; label may be nil when the
// variable's label is not yet known (e.g. a union destination before the
// branch is resolved).
func NewNodeQueryVar(label *string, base, suffix string) NodeQueryVar {
	return NodeQueryVar{label: label, base: base, Suf: suffix}
}

// Name returns the composed identifier, base+suffix.
func (v NodeQueryVar) Name() string { return v.base + v.Suf }

// Label returns the node's label, or LabelNotFound if none was set.
func (v NodeQueryVar) Label() (string, error) {
	if v.label == nil {
		return "", errors.LabelNotFound()
	}
	return *v.label, nil
}

// HasLabel reports whether a label is set without erroring.
func (v NodeQueryVar) HasLabel() bool { return v.label != nil }

// WithLabel returns a copy of v with the label set, used once a union
// destination branch has been resolved.
func (v NodeQueryVar) WithLabel(label string) NodeQueryVar {
	v.label = &label
	return v
}

// RelQueryVar is a pure, cloneable identifier bundle naming a relationship
// within a composed query, together with its endpoint NodeQueryVars.
type RelQueryVar struct {
	label string
	Suf   string
	Src   NodeQueryVar
	Dst   NodeQueryVar
}

// NewRelQueryVar constructs a RelQueryVar; its composed name is always
// "rel"+suffix.
func NewRelQueryVar(label, suffix string, src, dst NodeQueryVar) RelQueryVar {
	return RelQueryVar{label: label, Suf: suffix, Src: src, Dst: dst}
}

func (v RelQueryVar) Name() string  { return "rel" + v.Suf }
func (v RelQueryVar) Label() string { return v.label }
