package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitRelChangeInput routes a node update's rel change-set on the key
// ADD|DELETE|UPDATE to the corresponding rel visitor, rooted at byIDs — the
// by-ids fragment of the node(s) whose rel this change-set belongs to
// (spec.md §4.1, visit_node_update_input). ADD on a non-list ("single-slot")
// rel property checks for an existing occupant first and silently no-ops if
// one is found, rather than creating a second rel into the same slot
// (spec.md §8, E4).
func (v *Visitor) VisitRelChangeInput(ctx context.Context, srcVar model.NodeQueryVar, srcInfo schema.Info, byIDs model.QueryFragment, relName string, dstInfo schema.Info, changeVal gvalue.Value, opts txn.Options) error {
	m, err := inputMap(changeVal)
	if err != nil {
		return err
	}

	if addVal, ok := m["ADD"]; ok && !addVal.IsNull() {
		srcLabel, lerr := srcVar.Label()
		if lerr != nil {
			return lerr
		}

		srcTD, terr := srcInfo.TypeDef()
		if terr != nil {
			return terr
		}
		relProp, perr := srcTD.Property(relName)
		if perr != nil {
			return errors.SchemaItemNotFound(relName)
		}

		if !relProp.List() {
			checkVar := newRelVar(v.SG, relLabel(srcLabel, relName), srcVar, newNodeVar(v.SG, ""))
			checkFrag := v.Tx.RelReadFragment(checkVar, nil, &byIDs, nil, v.SG)
			filled, rerr := v.Tx.ReadRels(ctx, checkFrag, checkVar, txn.Options{})
			if rerr != nil {
				return rerr
			}
			if len(filled) > 0 {
				// Single-slot rel already has an occupant: ADD is rejected
				// rather than replacing it, so no second rel is created.
				return nil
			}
		}

		dstVar := newNodeVar(v.SG, "")
		relVar := newRelVar(v.SG, relLabel(srcLabel, relName), srcVar, dstVar)
		if _, err := v.visitRelCreateMutationInputDispatch(ctx, relVar, byIDs, dstInfo, addVal, opts); err != nil {
			return err
		}
	}

	if deleteVal, ok := m["DELETE"]; ok && !deleteVal.IsNull() {
		elems := []gvalue.Value{deleteVal}
		if deleteVal.Kind == gvalue.KindArray {
			elems, err = deleteVal.AsArray()
			if err != nil {
				return err
			}
		}
		for _, elem := range elems {
			if err := v.VisitRelDeleteInput(ctx, srcVar, byIDs, relName, dstInfo, elem, opts); err != nil {
				return err
			}
		}
	}

	if updateVal, ok := m["UPDATE"]; ok && !updateVal.IsNull() {
		srcLabel, lerr := srcVar.Label()
		if lerr != nil {
			return lerr
		}
		dstVar := newNodeVar(v.SG, "")
		relVar := newRelVar(v.SG, relLabel(srcLabel, relName), srcVar, dstVar)
		elems := []gvalue.Value{updateVal}
		if updateVal.Kind == gvalue.KindArray {
			elems, err = updateVal.AsArray()
			if err != nil {
				return err
			}
		}
		for _, elem := range elems {
			if _, err := v.VisitRelUpdateInput(ctx, relVar, srcInfo, dstInfo, elem, opts); err != nil {
				return err
			}
		}
	}

	if len(m) == 0 {
		return errors.TypeNotExpected("rel change-set requires one of ADD|DELETE|UPDATE")
	}

	return nil
}
