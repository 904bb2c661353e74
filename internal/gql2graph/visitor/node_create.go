package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitNodeCreateMutationInput partitions the input into scalar properties
// and nested rel inputs, runs before/after handlers and validators around a
// single transaction.CreateNode call, then recurses into
// VisitRelCreateMutationInput for each nested rel field using a fragment
// pinned to the newly created node's id (spec.md §4.1).
func (v *Visitor) VisitNodeCreateMutationInput(ctx context.Context, typeName string, info schema.Info, input gvalue.Value, opts txn.Options) (model.Node, error) {
	rewritten, err := txn.RunBeforeNode(ctx, v.Engine.Handlers.BeforeNodeCreate[typeName], typeName, input, v.RCtx)
	if err != nil {
		return model.Node{}, err
	}

	m, err := inputMap(rewritten)
	if err != nil {
		return model.Node{}, err
	}

	td, err := info.TypeDef()
	if err != nil {
		return model.Node{}, err
	}

	scalars, nestedRels, err := partitionByKind(td, m)
	if err != nil {
		return model.Node{}, err
	}

	if validator := propertyValidatorName(td); validator != "" {
		if err := v.ValidateInput(validator, scalars); err != nil {
			return model.Node{}, err
		}
	}

	nodeVar := newNodeVar(v.SG, typeName)
	node, err := v.Tx.CreateNode(ctx, nodeVar, scalars, opts, info, v.SG)
	if err != nil {
		return model.Node{}, err
	}

	id, err := node.ID()
	if err != nil {
		return model.Node{}, err
	}

	pinnedVar := newNodeVar(v.SG, typeName)
	pinned := v.Tx.NodeReadByIDsFragment(pinnedVar, []string{id}, v.SG)

	for relName, relInput := range nestedRels {
		prop, perr := td.Property(relName)
		if perr != nil {
			return model.Node{}, errors.SchemaItemNotFound(relName)
		}
		dstTD, ierr := info.TypeDefByName(prop.TypeName())
		if ierr != nil {
			return model.Node{}, ierr
		}
		dstInfo := schema.NewTypeInfo(info, dstTD)
		rv := newRelVar(v.SG, relLabel(typeName, prop.RelName()), pinnedVar, newNodeVar(v.SG, ""))
		if _, rerr := v.visitRelCreateMutationInputDispatch(ctx, rv, pinned, dstInfo, relInput, opts); rerr != nil {
			return model.Node{}, rerr
		}
	}

	result, err := txn.RunAfterNode(ctx, v.Engine.Handlers.AfterNodeCreate[typeName], typeName, []model.Node{node}, v.RCtx)
	if err != nil {
		return model.Node{}, err
	}
	if len(result) == 0 {
		return node, nil
	}
	return result[0], nil
}

// propertyValidatorName returns the first validator name declared on any
// property of td, whatever its kind, or "" if none declare one. Node-level
// validators are declared per-property in the schema (spec.md §6, Property.validator()).
func propertyValidatorName(td schema.TypeDef) string {
	for _, p := range td.PropValues() {
		if p.Validator() != "" {
			return p.Validator()
		}
	}
	return ""
}

// VisitNodeInput resolves the NEW/EXISTING union used wherever a rel's
// destination is specified: NEW delegates to VisitNodeCreateMutationInput and
// pins the result by id; EXISTING delegates to VisitNodeQueryInput. When both
// keys are present, EXISTING wins (spec.md line 73). An unrecognized key is
// SchemaItemNotFound (spec.md §4.1).
func (v *Visitor) VisitNodeInput(ctx context.Context, nodeVar model.NodeQueryVar, info schema.Info, input gvalue.Value, opts txn.Options) (model.QueryFragment, error) {
	m, err := inputMap(input)
	if err != nil {
		return model.QueryFragment{}, err
	}

	typeName, lerr := nodeVar.Label()
	if lerr != nil {
		return model.QueryFragment{}, lerr
	}

	if existingVal, ok := m["EXISTING"]; ok {
		return v.VisitNodeQueryInput(ctx, nodeVar, info, existingVal)
	}
	if newVal, ok := m["NEW"]; ok {
		node, cerr := v.VisitNodeCreateMutationInput(ctx, typeName, info, newVal, opts)
		if cerr != nil {
			return model.QueryFragment{}, cerr
		}
		id, ierr := node.ID()
		if ierr != nil {
			return model.QueryFragment{}, ierr
		}
		return v.Tx.NodeReadByIDsFragment(nodeVar, []string{id}, v.SG), nil
	}
	return model.QueryFragment{}, errors.SchemaItemNotFound("NEW|EXISTING")
}
