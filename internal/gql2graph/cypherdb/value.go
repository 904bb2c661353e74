package cypherdb

import (
	"fmt"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
)

// toNeo4j converts a universal Value into the `any` shape the Neo4j driver
// accepts as a bound parameter. UInt64 narrows to int64 — spec.md §3's
// documented-lossy conversion, performed here because Cypher/Bolt has no
// unsigned integer wire type.
func toNeo4j(v gvalue.Value) (any, error) {
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
			ev, err := toNeo4j(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case gvalue.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			ev, err := toNeo4j(e)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	default:
		return nil, errors.InternalError(fmt.Sprintf("unhandled Value kind %s", v.Kind))
	}
}

// propsToNeo4jParams converts a scalar property map into the params shape
// CreateNode/UpdateNodes/UpdateRels bind as $props.
func propsToNeo4jParams(props map[string]gvalue.Value) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		cv, err := toNeo4j(v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}

// fromNeo4j converts a driver-returned value back into the universal Value.
// Strings that look like the `id` property are not special-cased here —
// fieldsFromProps decodes the `id` property itself.
func fromNeo4j(raw any) (gvalue.Value, error) {
	switch t := raw.(type) {
	case nil:
		return gvalue.Null(), nil
	case bool:
		return gvalue.FromBool(t), nil
	case int64:
		return gvalue.FromInt64(t), nil
	case int:
		return gvalue.FromInt64(int64(t)), nil
	case float64:
		return gvalue.FromFloat64(t), nil
	case string:
		return gvalue.FromString(t), nil
	case []any:
		out := make([]gvalue.Value, 0, len(t))
		for _, e := range t {
			ev, err := fromNeo4j(e)
			if err != nil {
				return gvalue.Value{}, err
			}
			out = append(out, ev)
		}
		return gvalue.FromArray(out), nil
	case map[string]any:
		out := make(map[string]gvalue.Value, len(t))
		for k, e := range t {
			ev, err := fromNeo4j(e)
			if err != nil {
				return gvalue.Value{}, err
			}
			out[k] = ev
		}
		return gvalue.FromMap(out), nil
	default:
		return gvalue.Value{}, errors.DatabaseErrorf(nil, "unhandled Neo4j value type %T", raw)
	}
}

// fieldsFromProps converts a raw Neo4j node/relationship property map into
// the Fields map a model.Node/Rel carries, decoding "id" as a Uuid value
// when it round-trips as a hyphenated string.
func fieldsFromProps(props map[string]any) (map[string]gvalue.Value, error) {
	out := make(map[string]gvalue.Value, len(props))
	for k, raw := range props {
		v, err := fromNeo4j(raw)
		if err != nil {
			return nil, err
		}
		if k == "id" && v.Kind == gvalue.KindString {
			v = gvalue.FromUuid(v.Str)
		}
		out[k] = v
	}
	return out, nil
}
