package model

import "github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"

// QueryFragment is a backend-agnostic query plan: match text, where text, and
// a parameter map. Fragments compose by textual concatenation of match parts,
// AND-joining of where parts, and parameter-map union — every key is unique
// by construction because callers mint them through a shared SuffixGenerator
// (spec.md §3 invariant 1).
type QueryFragment struct {
	MatchFragment string
	WhereFragment string
	Params        map[string]gvalue.Value
}

// NewQueryFragment constructs a fragment from its three parts.
func NewQueryFragment(match, where string, params map[string]gvalue.Value) QueryFragment {
	if params == nil {
		params = map[string]gvalue.Value{}
	}
	return QueryFragment{MatchFragment: match, WhereFragment: where, Params: params}
}

// EmptyQueryFragment returns a fragment with no match/where text and no
// params, the identity element for And.
func EmptyQueryFragment() QueryFragment {
	return QueryFragment{Params: map[string]gvalue.Value{}}
}

// And composes this fragment with another: match text concatenates, where
// clauses AND-join (empty sides are treated as the identity, not literal
// "AND"), and parameter maps union.
func (f QueryFragment) And(o QueryFragment) QueryFragment {
	merged := make(map[string]gvalue.Value, len(f.Params)+len(o.Params))
	for k, v := range f.Params {
		merged[k] = v
	}
	for k, v := range o.Params {
		merged[k] = v
	}

	where := andJoin(f.WhereFragment, o.WhereFragment)

	return QueryFragment{
		MatchFragment: f.MatchFragment + o.MatchFragment,
		WhereFragment: where,
		Params:        merged,
	}
}

func andJoin(a, b string) string {
	switch {
	case a == "" && b == "":
		return ""
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " AND " + b
	}
}
