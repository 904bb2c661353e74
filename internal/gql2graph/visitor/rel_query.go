package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// VisitRelQueryInput extracts rel-level comparisons (props) and the optional
// src/dst union branches, recurses into each branch's node query, and emits
// the composed rel fragment via transaction.RelReadFragment (spec.md §4.1).
func (v *Visitor) VisitRelQueryInput(ctx context.Context, relVar model.RelQueryVar, dstInfo schema.Info, input gvalue.Value) (model.QueryFragment, error) {
	if input.IsNull() {
		return v.Tx.RelReadFragment(relVar, nil, nil, nil, v.SG), nil
	}

	m, err := inputMap(input)
	if err != nil {
		return model.QueryFragment{}, err
	}

	var comparisons []txn.NamedComparison
	if propsVal, ok := m["props"]; ok && !propsVal.IsNull() {
		propsMap, perr := propsVal.AsMap()
		if perr != nil {
			return model.QueryFragment{}, perr
		}
		for name, val := range propsMap {
			cmp, cerr := model.ComparisonFromValue(val)
			if cerr != nil {
				return model.QueryFragment{}, cerr
			}
			comparisons = append(comparisons, txn.NamedComparison{Property: name, Comparison: cmp})
		}
	}

	var srcFragPtr, dstFragPtr *model.QueryFragment

	if srcVal, ok := m["src"]; ok && !srcVal.IsNull() {
		branch, branchVal, berr := singleUnionBranch(srcVal)
		if berr != nil {
			return model.QueryFragment{}, berr
		}
		srcTD, ierr := dstInfo.TypeDefByName(branch)
		if ierr != nil {
			return model.QueryFragment{}, ierr
		}
		srcInfo := schema.NewTypeInfo(dstInfo, srcTD)
		srcVar := relVar.Src.WithLabel(branch)
		frag, ferr := v.VisitRelSrcQueryInput(ctx, srcVar, srcInfo, branchVal)
		if ferr != nil {
			return model.QueryFragment{}, ferr
		}
		srcFragPtr = &frag
	}

	if dstVal, ok := m["dst"]; ok && !dstVal.IsNull() {
		branch, branchVal, berr := singleUnionBranch(dstVal)
		if berr != nil {
			return model.QueryFragment{}, berr
		}
		branchTD, ierr := dstInfo.TypeDefByName(branch)
		if ierr != nil {
			return model.QueryFragment{}, ierr
		}
		branchInfo := schema.NewTypeInfo(dstInfo, branchTD)
		dstVar := relVar.Dst.WithLabel(branch)
		frag, ferr := v.VisitRelDstQueryInput(ctx, dstVar, branchInfo, branchVal)
		if ferr != nil {
			return model.QueryFragment{}, ferr
		}
		dstFragPtr = &frag
	}

	return v.Tx.RelReadFragment(relVar, comparisons, srcFragPtr, dstFragPtr, v.SG), nil
}

// VisitRelSrcQueryInput compiles a node query for a rel's source endpoint.
// Kept as its own function (rather than inlined) because the original
// engine's src resolution sometimes differs from dst (a bare Identifier
// without label is legal for src on the Cypher dialect); this module's
// query-var contract is uniform, so today the two defer identically to
// VisitNodeQueryInput.
func (v *Visitor) VisitRelSrcQueryInput(ctx context.Context, srcVar model.NodeQueryVar, info schema.Info, input gvalue.Value) (model.QueryFragment, error) {
	return v.VisitNodeQueryInput(ctx, srcVar, info, input)
}

// VisitRelDstQueryInput compiles a node query for a rel's destination endpoint.
func (v *Visitor) VisitRelDstQueryInput(ctx context.Context, dstVar model.NodeQueryVar, info schema.Info, input gvalue.Value) (model.QueryFragment, error) {
	return v.VisitNodeQueryInput(ctx, dstVar, info, input)
}

// singleUnionBranch unwraps a {<Label>: <value>} single-key union map.
func singleUnionBranch(v gvalue.Value) (string, gvalue.Value, error) {
	m, err := inputMap(v)
	if err != nil {
		return "", gvalue.Value{}, err
	}
	for k, val := range m {
		return k, val, nil
	}
	return "", gvalue.Value{}, errors.TypeNotExpected("union must have exactly one branch")
}
