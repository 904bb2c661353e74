package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitRelUpdateInput compiles MATCH to a rel fragment, applies SET.props via
// UpdateRels, and — if the update touched any rels — dispatches SET.src/dst
// onto the updated set's endpoints (spec.md §4.1).
func (v *Visitor) VisitRelUpdateInput(ctx context.Context, relVar model.RelQueryVar, srcInfo, dstInfo schema.Info, input gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}

	matchVal, err := requireKey(m, "RelUpdateInput", "MATCH")
	if err != nil {
		return nil, err
	}
	matchFragment, err := v.VisitRelQueryInput(ctx, relVar, dstInfo, matchVal)
	if err != nil {
		return nil, err
	}

	setVal, err := requireKey(m, "RelUpdateInput", "SET")
	if err != nil {
		return nil, err
	}

	return v.VisitRelUpdateMutationInput(ctx, relVar, srcInfo, dstInfo, matchFragment, setVal, opts)
}

// VisitRelUpdateMutationInput runs before_rel_update, applies props via
// UpdateRels, and — only if rels were actually updated — recurses into
// VisitRelSrcUpdateMutationInput/VisitRelDstUpdateMutationInput for the
// `src`/`dst` keys of SET (spec.md §4.1).
func (v *Visitor) VisitRelUpdateMutationInput(ctx context.Context, relVar model.RelQueryVar, srcInfo, dstInfo schema.Info, matchFragment model.QueryFragment, setInput gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	label := relVar.Label()

	rewritten, err := txn.RunBeforeRel(ctx, v.Engine.Handlers.BeforeRelUpdate[label], label, setInput, v.RCtx)
	if err != nil {
		return nil, err
	}

	m, err := inputMap(rewritten)
	if err != nil {
		return nil, err
	}

	props := map[string]gvalue.Value{}
	if propsVal, ok := m["props"]; ok && !propsVal.IsNull() {
		props, err = propsVal.AsMap()
		if err != nil {
			return nil, err
		}
	}

	updated, err := v.Tx.UpdateRels(ctx, matchFragment, relVar, props, opts)
	if err != nil {
		return nil, err
	}

	if len(updated) == 0 {
		_, aerr := txn.RunAfterRel(ctx, v.Engine.Handlers.AfterRelUpdate[label], label, nil, v.RCtx)
		return nil, aerr
	}

	if srcVal, ok := m["src"]; ok && !srcVal.IsNull() {
		if _, err := v.VisitRelSrcUpdateMutationInput(ctx, relVar.Src, srcInfo, updated, srcVal, opts); err != nil {
			return nil, err
		}
	}
	if dstVal, ok := m["dst"]; ok && !dstVal.IsNull() {
		if _, err := v.VisitRelDstUpdateMutationInput(ctx, relVar.Dst, dstInfo, updated, dstVal, opts); err != nil {
			return nil, err
		}
	}

	return txn.RunAfterRel(ctx, v.Engine.Handlers.AfterRelUpdate[label], label, updated, v.RCtx)
}

// VisitRelSrcUpdateMutationInput applies a node-update-mutation payload to the
// distinct set of source endpoints among rels (spec.md §4.1, visit_rel_update_input).
func (v *Visitor) VisitRelSrcUpdateMutationInput(ctx context.Context, srcVar model.NodeQueryVar, info schema.Info, rels []model.Rel, setVal gvalue.Value, opts txn.Options) ([]model.Node, error) {
	ids := dedupeIDs(rels, func(r model.Rel) string { return r.SrcID() })
	fragment := v.Tx.NodeReadByIDsFragment(srcVar, ids, v.SG)
	typeName, err := srcVar.Label()
	if err != nil {
		return nil, err
	}
	return v.VisitNodeUpdateMutationInput(ctx, srcVar, typeName, info, fragment, setVal, opts)
}

// VisitRelDstUpdateMutationInput mirrors VisitRelSrcUpdateMutationInput for
// destination endpoints.
func (v *Visitor) VisitRelDstUpdateMutationInput(ctx context.Context, dstVar model.NodeQueryVar, info schema.Info, rels []model.Rel, setVal gvalue.Value, opts txn.Options) ([]model.Node, error) {
	ids := dedupeIDs(rels, func(r model.Rel) string { return r.DstID() })
	fragment := v.Tx.NodeReadByIDsFragment(dstVar, ids, v.SG)
	typeName, err := dstVar.Label()
	if err != nil {
		return nil, err
	}
	return v.VisitNodeUpdateMutationInput(ctx, dstVar, typeName, info, fragment, setVal, opts)
}

func dedupeIDs(rels []model.Rel, key func(model.Rel) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rels {
		id := key(r)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
