package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitNodeUpdateInput splits the input into MATCH/SET, compiles MATCH,
// and delegates SET to VisitNodeUpdateMutationInput against the resulting
// fragment (spec.md §4.1).
func (v *Visitor) VisitNodeUpdateInput(ctx context.Context, nodeVar model.NodeQueryVar, typeName string, info schema.Info, input gvalue.Value, opts txn.Options) ([]model.Node, error) {
	m, err := inputMap(input)
	if err != nil {
		return nil, err
	}

	matchVal, err := requireKey(m, "NodeUpdateInput", "MATCH")
	if err != nil {
		return nil, err
	}
	matchFragment, err := v.VisitNodeQueryInput(ctx, nodeVar, info, matchVal)
	if err != nil {
		return nil, err
	}

	setVal, err := requireKey(m, "NodeUpdateInput", "SET")
	if err != nil {
		return nil, err
	}

	return v.VisitNodeUpdateMutationInput(ctx, nodeVar, typeName, info, matchFragment, setVal, opts)
}

// VisitNodeUpdateMutationInput runs before_node_update on the raw SET,
// partitions it into scalar props and rel change-sets, applies the scalar
// update, and — only if the update actually touched nodes — dispatches each
// rel change-set onto a by-ids fragment of the updated set (spec.md §4.1).
func (v *Visitor) VisitNodeUpdateMutationInput(ctx context.Context, nodeVar model.NodeQueryVar, typeName string, info schema.Info, matchFragment model.QueryFragment, setInput gvalue.Value, opts txn.Options) ([]model.Node, error) {
	rewritten, err := txn.RunBeforeNode(ctx, v.Engine.Handlers.BeforeNodeUpdate[typeName], typeName, setInput, v.RCtx)
	if err != nil {
		return nil, err
	}

	m, err := inputMap(rewritten)
	if err != nil {
		return nil, err
	}

	td, err := info.TypeDef()
	if err != nil {
		return nil, err
	}

	scalars, relChanges, err := partitionByKind(td, m)
	if err != nil {
		return nil, err
	}

	if validator := propertyValidatorName(td); validator != "" && len(scalars) > 0 {
		if err := v.ValidateInput(validator, scalars); err != nil {
			return nil, err
		}
	}

	updated, err := v.Tx.UpdateNodes(ctx, matchFragment, nodeVar, scalars, opts, info)
	if err != nil {
		return nil, err
	}

	if len(updated) == 0 {
		_, aerr := txn.RunAfterNode(ctx, v.Engine.Handlers.AfterNodeUpdate[typeName], typeName, nil, v.RCtx)
		return nil, aerr
	}

	ids := make([]string, 0, len(updated))
	for _, n := range updated {
		id, ierr := n.ID()
		if ierr != nil {
			return nil, ierr
		}
		ids = append(ids, id)
	}
	byIDs := v.Tx.NodeReadByIDsFragment(nodeVar, ids, v.SG)

	for relName, changeVal := range relChanges {
		prop, perr := td.Property(relName)
		if perr != nil {
			return nil, errors.SchemaItemNotFound(relName)
		}
		dstTD, ierr := info.TypeDefByName(prop.TypeName())
		if ierr != nil {
			return nil, ierr
		}
		dstInfo := schema.NewTypeInfo(info, dstTD)
		if err := v.VisitRelChangeInput(ctx, nodeVar, info, byIDs, prop.RelName(), dstInfo, changeVal, opts); err != nil {
			return nil, err
		}
	}

	return txn.RunAfterNode(ctx, v.Engine.Handlers.AfterNodeUpdate[typeName], typeName, updated, v.RCtx)
}
