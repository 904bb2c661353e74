package gremlindb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
)

// propertyLiteral renders v as inline Gremlin script text (spec.md §4.5,
// §9 "Gremlin inline emission"). Strings are quote-escaped against both
// backslash and single-quote before anything else touches them, since a
// raw value reaching here may come from GraphQL caller input; longs and
// floats are given explicit type suffixes so the script is unambiguous
// regardless of the server's default numeric literal type.
func propertyLiteral(v gvalue.Value) (string, error) {
	switch v.Kind {
	case gvalue.KindNull:
		return "null", nil
	case gvalue.KindBool:
		return strconv.FormatBool(v.Bool), nil
	case gvalue.KindInt64:
		return fmt.Sprintf("%dL", v.I64), nil
	case gvalue.KindUInt64:
		// Lossy narrowing: Gremlin script literals have no unsigned integer
		// form, same boundary-only conversion cypherdb performs.
		return fmt.Sprintf("%dL", int64(v.U64)), nil
	case gvalue.KindFloat64:
		return fmt.Sprintf("%gf", v.F64), nil
	case gvalue.KindString, gvalue.KindUuid:
		return "'" + escapeGremlinString(v.Str) + "'", nil
	case gvalue.KindArray:
		parts := make([]string, 0, len(v.Array))
		for _, e := range v.Array {
			lit, err := propertyLiteral(e)
			if err != nil {
				return "", err
			}
			parts = append(parts, lit)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", errors.TypeNotExpected(fmt.Sprintf("value kind %s has no Gremlin literal form", v.Kind))
	}
}

// escapeGremlinString escapes backslash first, then single quote, so a
// value containing both (e.g. `O'Brien\path`) round-trips: escaping quote
// before backslash would double-escape the backslash introduced by the
// quote pass.
func escapeGremlinString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// bindKey names a unique binding for one scalar property value at a given
// suffix; arrays allocate one binding per element via elemIdx >= 0.
func bindKey(suffix, prop string, elemIdx int) string {
	if elemIdx < 0 {
		return "b" + suffix + "_" + prop
	}
	return fmt.Sprintf("b%s_%s_%d", suffix, prop, elemIdx)
}

// toGremlinBinding converts a universal Value into the `any` shape bound
// into SubmitWithBindings, applying the same UInt64 narrowing as the
// literal path for consistency between the two emission modes.
func toGremlinBinding(v gvalue.Value) (any, error) {
	switch v.Kind {
	case gvalue.KindNull:
		return nil, nil
	case gvalue.KindBool:
		return v.Bool, nil
	case gvalue.KindInt64:
		return v.I64, nil
	case gvalue.KindUInt64:
		return int64(v.U64), nil
	case gvalue.KindFloat64:
		return v.F64, nil
	case gvalue.KindString, gvalue.KindUuid:
		return v.Str, nil
	case gvalue.KindArray:
		out := make([]any, 0, len(v.Array))
		for _, e := range v.Array {
			ev, err := toGremlinBinding(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	default:
		return nil, errors.TypeNotExpected(fmt.Sprintf("value kind %s has no Gremlin binding form", v.Kind))
	}
}
