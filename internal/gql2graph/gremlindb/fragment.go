package gremlindb

import (
	"fmt"
	"strings"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// predicate renders one has(...) operator as Gremlin predicate text:
// `eq(<operand>)`, `within(<operand>)`, etc. Negation flips eq<->neq and
// the containing/within pairs; GT/GTE/LT/LTE cannot be negated at this
// layer (spec.md §4.5).
func predicate(c txn.NamedComparison, operand string) (string, error) {
	switch c.Operation {
	case model.OpEQ:
		if c.Negated {
			return "neq(" + operand + ")", nil
		}
		return "eq(" + operand + ")", nil
	case model.OpCONTAINS:
		if c.Negated {
			return "notContaining(" + operand + ")", nil
		}
		return "containing(" + operand + ")", nil
	case model.OpIN:
		if c.Negated {
			return "without(" + operand + ")", nil
		}
		return "within(" + operand + ")", nil
	case model.OpGT:
		if c.Negated {
			return "", errors.TypeNotExpected("GT cannot be negated in the Gremlin dialect")
		}
		return "gt(" + operand + ")", nil
	case model.OpGTE:
		if c.Negated {
			return "", errors.TypeNotExpected("GTE cannot be negated in the Gremlin dialect")
		}
		return "gte(" + operand + ")", nil
	case model.OpLT:
		if c.Negated {
			return "", errors.TypeNotExpected("LT cannot be negated in the Gremlin dialect")
		}
		return "lt(" + operand + ")", nil
	case model.OpLTE:
		if c.Negated {
			return "", errors.TypeNotExpected("LTE cannot be negated in the Gremlin dialect")
		}
		return "lte(" + operand + ")", nil
	default:
		return "", errors.TypeNotExpected("unknown comparison operation")
	}
}

// hasSteps renders `.has('prop', <predicate>)` for each comparison, in
// bindings or literal mode per t.toggles.Bindings, plus a leading
// `.hasLabel('Label')` when the var carries one.
func (t *Transaction) hasSteps(suffix string, label string, hasLabel bool, comparisons []txn.NamedComparison) (string, map[string]gvalue.Value, error) {
	var b strings.Builder
	params := map[string]gvalue.Value{}

	if hasLabel {
		if !validIdentifier(label) {
			return "", nil, errors.TypeNotExpected("invalid label " + label)
		}
		b.WriteString(fmt.Sprintf(".hasLabel('%s')", label))
	}

	for _, c := range comparisons {
		if !validIdentifier(c.Property) {
			return "", nil, errors.TypeNotExpected("invalid property name " + c.Property)
		}
		var operand string
		if t.toggles.Bindings {
			key := bindKey(suffix, c.Property, -1)
			params[key] = c.Operand
			operand = key
		} else {
			lit, err := propertyLiteral(c.Operand)
			if err != nil {
				return "", nil, err
			}
			operand = lit
		}
		pred, err := predicate(c, operand)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(fmt.Sprintf(".has('%s', %s)", c.Property, pred))
	}

	if t.toggles.Partitions {
		b.WriteString(".has('partitionKey', partitionKey)")
	}

	return b.String(), params, nil
}

// NodeReadFragment implements txn.Transaction.NodeReadFragment for Gremlin:
// match text is empty (the traversal starts at g.V() at query-assembly
// time), where text is the has()/hasLabel() step chain (spec.md §4.5).
func (t *Transaction) NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []txn.NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	label, _ := nodeVar.Label()
	steps, params, err := t.hasSteps(nodeVar.Suf, label, nodeVar.HasLabel(), comparisons)
	if err != nil {
		return model.QueryFragment{}
	}
	frag := model.NewQueryFragment("", steps, params)
	for _, r := range rel {
		frag = frag.And(r)
	}
	return frag
}

// NodeReadByIDsFragment implements txn.Transaction.NodeReadByIDsFragment.
func (t *Transaction) NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	steps, params, err := t.idsSteps(nodeVar.Suf, ids)
	if err != nil {
		return model.QueryFragment{}
	}
	return model.NewQueryFragment("", steps, params)
}

// RelReadFragment implements txn.Transaction.RelReadFragment. Per spec.md
// §9's open question, this backend places rel-pattern constraints entirely
// in the where text (the match text for Gremlin is always empty, since
// there is no separate MATCH clause concept), self-consistently throughout.
func (t *Transaction) RelReadFragment(relVar model.RelQueryVar, comparisons []txn.NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	steps, params, err := t.hasSteps(relVar.Suf, relVar.Label(), true, comparisons)
	if err != nil {
		return model.QueryFragment{}
	}
	frag := model.NewQueryFragment("", steps, params)
	if src != nil {
		srcSteps := ".where(outV()" + src.WhereFragment + ")"
		frag = frag.And(model.NewQueryFragment("", srcSteps, src.Params))
	}
	if dst != nil {
		dstSteps := ".where(inV()" + dst.WhereFragment + ")"
		frag = frag.And(model.NewQueryFragment("", dstSteps, dst.Params))
	}
	return frag
}

// RelReadByIDsFragment implements txn.Transaction.RelReadByIDsFragment.
func (t *Transaction) RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	steps, params, err := t.idsSteps(relVar.Suf, ids)
	if err != nil {
		return model.QueryFragment{}
	}
	return model.NewQueryFragment("", steps, params)
}

// orderSteps renders a `.order().by(...)` step chain from opts.Sort, the
// Gremlin-side mirror of the Cypher dialect's ORDER BY (spec.md §8 scenario
// E3, testable property 8's "backend equivalence ... under identical
// sort"). A DstProperty entry orders by the traversed edge's in-vertex
// property via `inV().values(...)`; otherwise by the traversed element's
// own property.
func orderSteps(opts txn.Options) (string, error) {
	if len(opts.Sort) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString(".order()")
	for _, s := range opts.Sort {
		if !validIdentifier(s.Property) {
			return "", errors.TypeNotExpected("invalid sort property " + s.Property)
		}
		by := fmt.Sprintf("values('%s')", s.Property)
		if s.DstProperty {
			by = fmt.Sprintf("inV().values('%s')", s.Property)
		}
		dir := "incr"
		if s.Direction == txn.Descending {
			dir = "decr"
		}
		b.WriteString(fmt.Sprintf(".by(%s, %s)", by, dir))
	}
	return b.String(), nil
}

func (t *Transaction) idsSteps(suffix string, ids []string) (string, map[string]gvalue.Value, error) {
	idVals := make([]gvalue.Value, 0, len(ids))
	for _, id := range ids {
		idVals = append(idVals, t.idOperand(id))
	}
	if t.toggles.Bindings {
		key := "ids" + suffix
		return fmt.Sprintf(".hasId(within(%s))", key), map[string]gvalue.Value{key: gvalue.FromArray(idVals)}, nil
	}
	lit, err := propertyLiteral(gvalue.FromArray(idVals))
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf(".hasId(within(%s))", lit), map[string]gvalue.Value{}, nil
}
