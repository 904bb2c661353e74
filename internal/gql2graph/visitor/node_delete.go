package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitNodeDeleteInput compiles MATCH and materializes the matched set via
// ReadNodes. An empty match short-circuits with a 0 count and an empty-list
// after-handler call. Otherwise it dispatches the DELETE sub-input's rel
// cascades against a by-ids fragment, then deletes the nodes themselves
// (spec.md §4.1).
func (v *Visitor) VisitNodeDeleteInput(ctx context.Context, nodeVar model.NodeQueryVar, typeName string, info schema.Info, input gvalue.Value, opts txn.Options) (int, error) {
	m, err := inputMap(input)
	if err != nil {
		return 0, err
	}

	matchVal, err := requireKey(m, "NodeDeleteInput", "MATCH")
	if err != nil {
		return 0, err
	}
	matchFragment, err := v.VisitNodeQueryInput(ctx, nodeVar, info, matchVal)
	if err != nil {
		return 0, err
	}

	matched, err := v.Tx.ReadNodes(ctx, nodeVar, matchFragment, opts, info)
	if err != nil {
		return 0, err
	}

	if len(matched) == 0 {
		_, aerr := txn.RunAfterNode(ctx, v.Engine.Handlers.AfterNodeDelete[typeName], typeName, nil, v.RCtx)
		return 0, aerr
	}

	ids := make([]string, 0, len(matched))
	for _, n := range matched {
		id, ierr := n.ID()
		if ierr != nil {
			return 0, ierr
		}
		ids = append(ids, id)
	}
	byIDs := v.Tx.NodeReadByIDsFragment(nodeVar, ids, v.SG)

	if deleteVal, ok := m["DELETE"]; ok && !deleteVal.IsNull() {
		if err := v.VisitNodeDeleteMutationInput(ctx, nodeVar, byIDs, info, deleteVal, opts); err != nil {
			return 0, err
		}
	}

	count, err := v.Tx.DeleteNodes(ctx, byIDs, nodeVar)
	if err != nil {
		return 0, err
	}

	if _, err := txn.RunAfterNode(ctx, v.Engine.Handlers.AfterNodeDelete[typeName], typeName, matched, v.RCtx); err != nil {
		return 0, err
	}

	return count, nil
}

// VisitNodeDeleteMutationInput walks the DELETE sub-input: each key naming a
// rel property whose value is a (possibly array) rel-delete sub-input
// recurses into VisitRelDeleteInput rooted at byIDs (spec.md §4.1).
func (v *Visitor) VisitNodeDeleteMutationInput(ctx context.Context, nodeVar model.NodeQueryVar, byIDs model.QueryFragment, info schema.Info, deleteInput gvalue.Value, opts txn.Options) error {
	m, err := inputMap(deleteInput)
	if err != nil {
		return err
	}

	td, err := info.TypeDef()
	if err != nil {
		return err
	}

	for relName, val := range m {
		prop, perr := td.Property(relName)
		if perr != nil {
			continue
		}
		dstTD, ierr := info.TypeDefByName(prop.TypeName())
		if ierr != nil {
			return ierr
		}
		dstInfo := schema.NewTypeInfo(info, dstTD)

		elems := []gvalue.Value{val}
		if val.Kind == gvalue.KindArray {
			elems, err = val.AsArray()
			if err != nil {
				return err
			}
		}

		for _, elem := range elems {
			if err := v.VisitRelDeleteInput(ctx, nodeVar, byIDs, prop.RelName(), dstInfo, elem, opts); err != nil {
				return err
			}
		}
	}

	return nil
}
