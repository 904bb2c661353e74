// Package cypherdb implements the Cypher dialect of the backend-agnostic
// Transaction contract (spec.md §4.2, §4.4): native nodes/edges, named
// parameter binds, against github.com/neo4j/neo4j-go-driver/v5.
package cypherdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// identifierPattern validates labels/property names before they are
// concatenated into query text, the same defense the pattern codebase's
// CypherBuilder applies before every identifier interpolation — every
// literal value still goes through a bound parameter, never interpolation.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

func opText(op model.Operation) string {
	switch op {
	case model.OpEQ:
		return "="
	case model.OpCONTAINS:
		return "CONTAINS"
	case model.OpIN:
		return "IN"
	case model.OpGT:
		return ">"
	case model.OpGTE:
		return ">="
	case model.OpLT:
		return "<"
	case model.OpLTE:
		return "<="
	default:
		return "="
	}
}

// nodeMatchText renders `MATCH (<name>:<Label>)\n`, omitting the label when
// the var carries none (spec.md §4.4).
func nodeMatchText(nv model.NodeQueryVar) (string, error) {
	if !validIdentifier(nv.Name()) {
		return "", errors.TypeNotExpected("invalid node variable name " + nv.Name())
	}
	if !nv.HasLabel() {
		return fmt.Sprintf("MATCH (%s)\n", nv.Name()), nil
	}
	label, _ := nv.Label()
	if !validIdentifier(label) {
		return "", errors.TypeNotExpected("invalid node label " + label)
	}
	return fmt.Sprintf("MATCH (%s:%s)\n", nv.Name(), label), nil
}

// relMatchText renders `MATCH (<src>:<SrcLabel>)-[<rel>:<RelLabel>]->(<dst>)`.
func relMatchText(rv model.RelQueryVar) (string, error) {
	srcLabel, err := rv.Src.Label()
	if err != nil {
		return "", err
	}
	if !validIdentifier(srcLabel) || !validIdentifier(rv.Src.Name()) || !validIdentifier(rv.Name()) || !validIdentifier(rv.Label()) || !validIdentifier(rv.Dst.Name()) {
		return "", errors.TypeNotExpected("invalid identifier in rel match")
	}
	dst := rv.Dst.Name()
	if rv.Dst.HasLabel() {
		dstLabel, _ := rv.Dst.Label()
		if !validIdentifier(dstLabel) {
			return "", errors.TypeNotExpected("invalid dst label " + dstLabel)
		}
		return fmt.Sprintf("MATCH (%s:%s)-[%s:%s]->(%s:%s)\n", rv.Src.Name(), srcLabel, rv.Name(), rv.Label(), dst, dstLabel), nil
	}
	return fmt.Sprintf("MATCH (%s:%s)-[%s:%s]->(%s)\n", rv.Src.Name(), srcLabel, rv.Name(), rv.Label(), dst), nil
}

// whereTermsForComparisons renders one `<name>.<prop> <op> $<key>.<prop>`
// term per comparison, bundling every comparison's operand for this suffix
// into a single nested parameter map keyed "param"+suffix (spec.md §4.4).
func whereTermsForComparisons(name, suffix string, comparisons []txn.NamedComparison) (terms []string, paramKey string, nested map[string]gvalue.Value) {
	if len(comparisons) == 0 {
		return nil, "", nil
	}
	paramKey = "param" + suffix
	nested = map[string]gvalue.Value{}
	for _, c := range comparisons {
		nested[c.Property] = c.Operand
		term := fmt.Sprintf("%s.%s %s $%s.%s", name, c.Property, opText(c.Operation), paramKey, c.Property)
		if c.Negated {
			term = "NOT (" + term + ")"
		}
		terms = append(terms, term)
	}
	return terms, paramKey, nested
}

// NodeReadFragment implements txn.Transaction.NodeReadFragment for Cypher.
func (t *Transaction) NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []txn.NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	matchText, err := nodeMatchText(nodeVar)
	if err != nil {
		return model.QueryFragment{}
	}

	terms, paramKey, nested := whereTermsForComparisons(nodeVar.Name(), nodeVar.Suf, comparisons)
	params := map[string]gvalue.Value{}
	if paramKey != "" {
		params[paramKey] = gvalue.FromMap(nested)
	}

	frag := model.NewQueryFragment(matchText, strings.Join(terms, " AND "), params)
	for _, r := range rel {
		frag = frag.And(r)
	}
	return frag
}

// NodeReadByIDsFragment implements txn.Transaction.NodeReadByIDsFragment.
func (t *Transaction) NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	matchText, err := nodeMatchText(nodeVar)
	if err != nil {
		return model.QueryFragment{}
	}
	key := "ids" + nodeVar.Suf
	idVals := make([]gvalue.Value, 0, len(ids))
	for _, id := range ids {
		idVals = append(idVals, gvalue.FromString(id))
	}
	where := fmt.Sprintf("%s.id IN $%s", nodeVar.Name(), key)
	return model.NewQueryFragment(matchText, where, map[string]gvalue.Value{key: gvalue.FromArray(idVals)})
}

// RelReadFragment implements txn.Transaction.RelReadFragment. Per spec.md §9's
// open question on where to place the rel-pattern match, this backend places
// it in the match clause (not inlined into where), and is self-consistent
// with that choice throughout.
func (t *Transaction) RelReadFragment(relVar model.RelQueryVar, comparisons []txn.NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	matchText, err := relMatchText(relVar)
	if err != nil {
		return model.QueryFragment{}
	}

	terms, paramKey, nested := whereTermsForComparisons(relVar.Name(), relVar.Suf, comparisons)
	params := map[string]gvalue.Value{}
	if paramKey != "" {
		params[paramKey] = gvalue.FromMap(nested)
	}

	frag := model.NewQueryFragment(matchText, strings.Join(terms, " AND "), params)
	if src != nil {
		frag = frag.And(*src)
	}
	if dst != nil {
		frag = frag.And(*dst)
	}
	return frag
}

// RelReadByIDsFragment implements txn.Transaction.RelReadByIDsFragment.
func (t *Transaction) RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	matchText, err := relMatchText(relVar)
	if err != nil {
		return model.QueryFragment{}
	}
	key := "ids" + relVar.Suf
	idVals := make([]gvalue.Value, 0, len(ids))
	for _, id := range ids {
		idVals = append(idVals, gvalue.FromString(id))
	}
	where := fmt.Sprintf("%s.id IN $%s", relVar.Name(), key)
	return model.NewQueryFragment(matchText, where, map[string]gvalue.Value{key: gvalue.FromArray(idVals)})
}

func whereClause(where string) string {
	if where == "" {
		return ""
	}
	return "WHERE " + where + "\n"
}

// sortClause renders an ORDER BY clause from opts.Sort. name is the
// RETURN-projected reference for a rel's/node's own properties; dstRef is
// the RETURN-projected reference a DstProperty entry sorts by instead (the
// dst node itself for ReadRels, since RETURN DISTINCT restricts ORDER BY to
// projected expressions).
func sortClause(opts txn.Options, name, dstRef string) string {
	if len(opts.Sort) == 0 {
		return ""
	}
	terms := make([]string, 0, len(opts.Sort))
	for _, s := range opts.Sort {
		ref := name
		if s.DstProperty {
			ref = dstRef
		}
		term := fmt.Sprintf("%s.%s", ref, s.Property)
		if s.Direction == txn.Descending {
			term += " DESC"
		}
		terms = append(terms, term)
	}
	return "ORDER BY " + strings.Join(terms, ", ") + "\n"
}
