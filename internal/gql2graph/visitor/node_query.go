package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitNodeQueryInput produces a QueryFragment matching nodes of the type
// described by info. It partitions the input map into scalar comparisons,
// bare scalars (sugar for EQ), and nested rel queries, then unions the rel
// fragments into the node fragment via transaction.NodeReadFragment
// (spec.md §4.1).
func (v *Visitor) VisitNodeQueryInput(ctx context.Context, nodeVar model.NodeQueryVar, info schema.Info, input gvalue.Value) (model.QueryFragment, error) {
	if input.IsNull() {
		return v.Tx.NodeReadFragment(nodeVar, nil, nil, v.SG), nil
	}

	m, err := inputMap(input)
	if err != nil {
		return model.QueryFragment{}, err
	}

	td, err := info.TypeDef()
	if err != nil {
		return model.QueryFragment{}, err
	}

	var comparisons []txn.NamedComparison
	var relFragments []model.QueryFragment

	for propName, val := range m {
		prop, perr := td.Property(propName)
		if perr != nil {
			return model.QueryFragment{}, errors.SchemaItemNotFound(propName)
		}

		switch prop.Kind() {
		case schema.PropertyKindScalarComp, schema.PropertyKindScalar, schema.PropertyKindDynamicScalar:
			cmp, cerr := model.ComparisonFromValue(val)
			if cerr != nil {
				return model.QueryFragment{}, cerr
			}
			comparisons = append(comparisons, txn.NamedComparison{Property: propName, Comparison: cmp})

		case schema.PropertyKindRel:
			dstVar := newNodeVar(v.SG, "")
			dstTD, ierr := info.TypeDefByName(prop.TypeName())
			if ierr != nil {
				return model.QueryFragment{}, ierr
			}
			dstInfo := schema.NewTypeInfo(info, dstTD)
			relVar := newRelVar(v.SG, relLabel(mustLabel(nodeVar), prop.RelName()), nodeVar, dstVar)
			relFrag, rerr := v.VisitRelQueryInput(ctx, relVar, dstInfo, val)
			if rerr != nil {
				return model.QueryFragment{}, rerr
			}
			relFragments = append(relFragments, relFrag)

		default:
			return model.QueryFragment{}, errors.TypeNotExpected("unexpected property kind on " + propName)
		}
	}

	return v.Tx.NodeReadFragment(nodeVar, comparisons, relFragments, v.SG), nil
}

func mustLabel(nv model.NodeQueryVar) string {
	lbl, err := nv.Label()
	if err != nil {
		return ""
	}
	return lbl
}
