package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitRelDeleteInput compiles a rel-delete payload rooted at an already
// fixed source fragment (the caller's MATCH, e.g. a node's by-ids fragment):
// it reads the matching rels, short-circuits on empty, then optionally
// cascades into the surviving rels' endpoints before deleting the rels
// themselves (spec.md §4.1).
func (v *Visitor) VisitRelDeleteInput(ctx context.Context, srcVar model.NodeQueryVar, srcFragment model.QueryFragment, relName string, dstInfo schema.Info, input gvalue.Value, opts txn.Options) error {
	m, err := inputMap(input)
	if err != nil {
		return err
	}

	srcLabel, lerr := srcVar.Label()
	if lerr != nil {
		return lerr
	}
	dstVar := newNodeVar(v.SG, "")
	relVar := newRelVar(v.SG, relLabel(srcLabel, relName), srcVar, dstVar)
	label := relVar.Label()

	matchVal := gvalue.Null()
	if mv, ok := m["MATCH"]; ok {
		matchVal = mv
	}

	relMatchFragment, err := v.compileRelDeleteMatch(ctx, relVar, dstInfo, matchVal)
	if err != nil {
		return err
	}
	fullFragment := srcFragment.And(relMatchFragment)

	rels, err := v.Tx.ReadRels(ctx, fullFragment, relVar, opts)
	if err != nil {
		return err
	}
	if len(rels) == 0 {
		_, aerr := txn.RunAfterRel(ctx, v.Engine.Handlers.AfterRelDelete[label], label, nil, v.RCtx)
		return aerr
	}

	ids := make([]string, 0, len(rels))
	for _, r := range rels {
		ids = append(ids, r.ID)
	}
	byIDs := v.Tx.RelReadByIDsFragment(relVar, ids, v.SG)

	if srcCascade, ok := m["src"]; ok && !srcCascade.IsNull() {
		if _, err := v.VisitRelSrcDeleteMutationInput(ctx, relVar.Src, rels); err != nil {
			return err
		}
	}
	if dstCascade, ok := m["dst"]; ok && !dstCascade.IsNull() {
		if _, err := v.VisitRelDstDeleteMutationInput(ctx, relVar.Dst, rels); err != nil {
			return err
		}
	}

	if _, err := v.Tx.DeleteRels(ctx, byIDs, relVar); err != nil {
		return err
	}

	_, err = txn.RunAfterRel(ctx, v.Engine.Handlers.AfterRelDelete[label], label, rels, v.RCtx)
	return err
}

// compileRelDeleteMatch parses the MATCH sub-input of a rel-delete payload:
// an optional `props` comparison map and an optional `dst` union branch,
// identically shaped to VisitRelQueryInput's non-src form (the src side is
// already fixed by the caller).
func (v *Visitor) compileRelDeleteMatch(ctx context.Context, relVar model.RelQueryVar, dstInfo schema.Info, input gvalue.Value) (model.QueryFragment, error) {
	return v.VisitRelQueryInput(ctx, relVar, dstInfo, input)
}

// VisitRelSrcDeleteMutationInput deletes the distinct source-endpoint nodes
// of rels (DETACH semantics via transaction.DeleteNodes), the cascade
// triggered by a non-null `src` key in a rel-delete payload (spec.md §4.1).
func (v *Visitor) VisitRelSrcDeleteMutationInput(ctx context.Context, srcVar model.NodeQueryVar, rels []model.Rel) (int, error) {
	ids := dedupeIDs(rels, func(r model.Rel) string { return r.SrcID() })
	fragment := v.Tx.NodeReadByIDsFragment(srcVar, ids, v.SG)
	return v.Tx.DeleteNodes(ctx, fragment, srcVar)
}

// VisitRelDstDeleteMutationInput mirrors VisitRelSrcDeleteMutationInput for
// destination endpoints.
func (v *Visitor) VisitRelDstDeleteMutationInput(ctx context.Context, dstVar model.NodeQueryVar, rels []model.Rel) (int, error) {
	ids := dedupeIDs(rels, func(r model.Rel) string { return r.DstID() })
	fragment := v.Tx.NodeReadByIDsFragment(dstVar, ids, v.SG)
	return v.Tx.DeleteNodes(ctx, fragment, dstVar)
}

// VisitRelDeleteTopLevelInput is the entry point for a standalone `delete<N><R>`
// mutation field, whose NRRelDeleteInput shape is {MATCH: NQueryInput, src?,
// dst?} — MATCH selects source nodes directly (spec.md §4.1's input-schema
// table), unlike the nested cascade form in VisitRelDeleteInput where the
// source is already fixed by the enclosing node operation. It compiles MATCH,
// reads the sources, and delegates the remaining src?/dst? cascade keys to
// VisitRelDeleteInput with no further rel-level narrowing (all rels named
// relName from the matched sources are deleted).
func (v *Visitor) VisitRelDeleteTopLevelInput(ctx context.Context, srcVar model.NodeQueryVar, srcInfo schema.Info, relName string, dstInfo schema.Info, input gvalue.Value, opts txn.Options) error {
	m, err := inputMap(input)
	if err != nil {
		return err
	}

	matchVal, err := requireKey(m, "RelDeleteInput", "MATCH")
	if err != nil {
		return err
	}
	srcFragment, err := v.VisitNodeQueryInput(ctx, srcVar, srcInfo, matchVal)
	if err != nil {
		return err
	}

	srcNodes, err := v.Tx.ReadNodes(ctx, srcVar, srcFragment, opts, srcInfo)
	if err != nil {
		return err
	}
	if len(srcNodes) == 0 {
		return nil
	}

	srcIDs := make([]string, 0, len(srcNodes))
	for _, n := range srcNodes {
		id, ierr := n.ID()
		if ierr != nil {
			return ierr
		}
		srcIDs = append(srcIDs, id)
	}
	byIDs := v.Tx.NodeReadByIDsFragment(srcVar, srcIDs, v.SG)

	cascade := map[string]gvalue.Value{}
	if srcCascade, ok := m["src"]; ok {
		cascade["src"] = srcCascade
	}
	if dstCascade, ok := m["dst"]; ok {
		cascade["dst"] = dstCascade
	}

	return v.VisitRelDeleteInput(ctx, srcVar, byIDs, relName, dstInfo, gvalue.FromMap(cascade), opts)
}
