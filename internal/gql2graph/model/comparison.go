package model

import (
	"fmt"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
)

// Operation is a comparison operator (spec.md §3).
type Operation int

const (
	OpEQ Operation = iota
	OpCONTAINS
	OpIN
	OpGT
	OpGTE
	OpLT
	OpLTE
)

func (o Operation) String() string {
	switch o {
	case OpEQ:
		return "EQ"
	case OpCONTAINS:
		return "CONTAINS"
	case OpIN:
		return "IN"
	case OpGT:
		return "GT"
	case OpGTE:
		return "GTE"
	case OpLT:
		return "LT"
	case OpLTE:
		return "LTE"
	default:
		return "UNKNOWN"
	}
}

// Comparison is a where-clause term: operation, negation, and operand.
type Comparison struct {
	Operation Operation
	Negated   bool
	Operand   gvalue.Value
}

// NewComparison constructs a non-negated EQ comparison, the default sugar for
// a bare scalar in input position.
func NewComparison(operand gvalue.Value) Comparison {
	return Comparison{Operation: OpEQ, Negated: false, Operand: operand}
}

// comparisonOpNames maps the wire operator names (spec.md §6) to (Operation, negated).
var comparisonOpNames = map[string]struct {
	op      Operation
	negated bool
}{
	"EQ":           {OpEQ, false},
	"NOTEQ":        {OpEQ, true},
	"CONTAINS":     {OpCONTAINS, false},
	"NOTCONTAINS":  {OpCONTAINS, true},
	"IN":           {OpIN, false},
	"NOTIN":        {OpIN, true},
	"GT":           {OpGT, false},
	"GTE":          {OpGTE, false},
	"LT":           {OpLT, false},
	"LTE":          {OpLTE, false},
}

// ComparisonFromValue implements the wire sugar rule: a bare scalar becomes a
// non-negated EQ; a single-key map `{OP: operand}` becomes the named
// comparison. An unrecognized operator name is TypeNotExpected, grounded on
// the original engine's `TryFrom<Value> for Comparison`.
func ComparisonFromValue(v gvalue.Value) (Comparison, error) {
	if v.Kind != gvalue.KindMap {
		return NewComparison(v), nil
	}

	m, err := v.AsMap()
	if err != nil {
		return Comparison{}, err
	}
	if len(m) != 1 {
		return Comparison{}, errors.TypeNotExpected(fmt.Sprintf("comparison map must have exactly one key, got %d", len(m)))
	}

	for opName, operand := range m {
		entry, ok := comparisonOpNames[opName]
		if !ok {
			return Comparison{}, errors.TypeNotExpected(fmt.Sprintf("comparison operation %s", opName))
		}
		return Comparison{Operation: entry.op, Negated: entry.negated, Operand: operand}, nil
	}

	// unreachable: len(m) == 1 guarantees the loop runs once.
	return Comparison{}, errors.InternalError("unreachable comparison decode")
}
