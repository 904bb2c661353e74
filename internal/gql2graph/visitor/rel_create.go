package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitRelCreateInput splits the input into MATCH (a node query selecting
// source nodes) and CREATE (one or many rel-create payloads). It compiles
// MATCH, reads the matched sources, short-circuits on an empty match, then
// dispatches each CREATE element (spec.md §4.1).
func (v *Visitor) VisitRelCreateInput(ctx context.Context, srcVar model.NodeQueryVar, srcInfo schema.Info, relName string, input gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}

	matchVal, err := requireKey(m, "RelCreateInput", "MATCH")
	if err != nil {
		return nil, err
	}
	srcFragment, err := v.VisitNodeQueryInput(ctx, srcVar, srcInfo, matchVal)
	if err != nil {
		return nil, err
	}

	srcNodes, err := v.Tx.ReadNodes(ctx, srcVar, srcFragment, opts, srcInfo)
	if err != nil {
		return nil, err
	}
	if len(srcNodes) == 0 {
		return nil, nil
	}

	srcIDs := make([]string, 0, len(srcNodes))
	for _, n := range srcNodes {
		id, ierr := n.ID()
		if ierr != nil {
			return nil, ierr
		}
		srcIDs = append(srcIDs, id)
	}
	byIDs := v.Tx.NodeReadByIDsFragment(srcVar, srcIDs, v.SG)

	createVal, err := requireKey(m, "RelCreateInput", "CREATE")
	if err != nil {
		return nil, err
	}

	srcLabel, lerr := srcVar.Label()
	if lerr != nil {
		return nil, lerr
	}
	dstVar := newNodeVar(v.SG, "")
	relVar := newRelVar(v.SG, relLabel(srcLabel, relName), srcVar, dstVar)

	return v.visitRelCreateMutationInputDispatch(ctx, relVar, byIDs, srcInfo, createVal, opts)
}

// visitRelCreateMutationInputDispatch routes a CREATE payload to
// VisitRelCreateMutationInput once per element, whether the payload is a
// single object or an array of them.
func (v *Visitor) visitRelCreateMutationInputDispatch(ctx context.Context, relVar model.RelQueryVar, srcFragment model.QueryFragment, dstInfoLookup schema.Info, input gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	if input.Kind == gvalue.KindArray {
		arr, _ := input.AsArray()
		var out []model.Rel
		for _, elem := range arr {
			rels, err := v.VisitRelCreateMutationInput(ctx, relVar, srcFragment, dstInfoLookup, elem, opts)
			if err != nil {
				return nil, err
			}
			out = append(out, rels...)
		}
		return out, nil
	}
	return v.VisitRelCreateMutationInput(ctx, relVar, srcFragment, dstInfoLookup, input, opts)
}

// VisitRelCreateMutationInput extracts the destination union and optional
// props, resolves the dst fragment via VisitRelNodesMutationInputUnion, and
// calls transaction.CreateRels. Before/after rel-create handlers wrap the
// call (spec.md §4.1).
func (v *Visitor) VisitRelCreateMutationInput(ctx context.Context, relVar model.RelQueryVar, srcFragment model.QueryFragment, info schema.Info, input gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	label := relVar.Label()

	rewritten, err := txn.RunBeforeRel(ctx, v.Engine.Handlers.BeforeRelCreate[label], label, input, v.RCtx)
	if err != nil {
		return nil, err
	}

	m, err := inputMap(rewritten)
	if err != nil {
		return nil, err
	}

	dstVal, err := requireKey(m, "RelCreateMutationInput", "dst")
	if err != nil {
		return nil, err
	}
	dstFragment, err := v.VisitRelNodesMutationInputUnion(ctx, relVar.Dst, info, dstVal, opts)
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

	rels, err := v.Tx.CreateRels(ctx, srcFragment, dstFragment, relVar, nil, props, opts, v.SG)
	if err != nil {
		return nil, err
	}

	return txn.RunAfterRel(ctx, v.Engine.Handlers.AfterRelCreate[label], label, rels, v.RCtx)
}

// VisitRelNodesMutationInputUnion unwraps the single-key union map
// {<DstLabel>: {NEW|EXISTING: ...}}, resolves the concrete destination label
// onto dstVar, and delegates to VisitNodeInput (spec.md §4.1, §9).
func (v *Visitor) VisitRelNodesMutationInputUnion(ctx context.Context, dstVar model.NodeQueryVar, info schema.Info, input gvalue.Value, opts txn.Options) (model.QueryFragment, error) {
	m, err := inputMap(input)
	if err != nil {
		return model.QueryFragment{}, err
	}
	if len(m) != 1 {
		return model.QueryFragment{}, errors.TypeNotExpected("union destination must have exactly one branch")
	}
	for branch, val := range m {
		branchTD, ierr := info.TypeDefByName(branch)
		if ierr != nil {
			return model.QueryFragment{}, errors.SchemaItemNotFound(branch)
		}
		branchInfo := schema.NewTypeInfo(info, branchTD)
		labeledVar := dstVar.WithLabel(branch)
		return v.VisitNodeInput(ctx, labeledVar, branchInfo, val, opts)
	}
	return model.QueryFragment{}, errors.InternalError("unreachable union decode")
}
