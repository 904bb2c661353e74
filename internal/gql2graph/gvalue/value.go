// Package gvalue holds the universal tagged value carried across the
// visitor pipeline and every database dialect.
package gvalue

import (
	"fmt"

	"github.com/warpgrapher/gql2graph/internal/errors"
)

// Kind tags which variant of Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindUInt64
	KindFloat64
	KindString
	KindUuid
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt64:
		return "Int64"
	case KindUInt64:
		return "UInt64"
	case KindFloat64:
		return "Float64"
	case KindString:
		return "String"
	case KindUuid:
		return "Uuid"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	default:
		return "Unknown"
	}
}

// Value is the universal tagged value. Exactly one of the typed fields is
// meaningful, selected by Kind. Uuid is stored as its canonical hyphenated
// lowercase string form, distinct from String so that backends that have a
// native uuid wire type can distinguish the two losslessly.
type Value struct {
	Kind  Kind
	Bool  bool
	I64   int64
	U64   uint64
	F64   float64
	Str   string // also backs Uuid
	Array []Value
	Map   map[string]Value
}

func Null() Value                 { return Value{Kind: KindNull} }
func FromBool(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func FromInt64(i int64) Value     { return Value{Kind: KindInt64, I64: i} }
func FromUInt64(u uint64) Value   { return Value{Kind: KindUInt64, U64: u} }
func FromFloat64(f float64) Value { return Value{Kind: KindFloat64, F64: f} }
func FromString(s string) Value   { return Value{Kind: KindString, Str: s} }
func FromUuid(s string) Value     { return Value{Kind: KindUuid, Str: s} }
func FromArray(vs []Value) Value  { return Value{Kind: KindArray, Array: vs} }
func FromMap(m map[string]Value) Value {
	return Value{Kind: KindMap, Map: m}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsString returns the String variant's content, or an error for any other
// kind (Uuid is not interchangeable with String here; use AsUuid).
func (v Value) AsString() (string, error) {
	if v.Kind != KindString {
		return "", errors.TypeNotExpected(fmt.Sprintf("expected String, got %s", v.Kind))
	}
	return v.Str, nil
}

// AsUuid returns the Uuid variant's canonical string form.
func (v Value) AsUuid() (string, error) {
	if v.Kind != KindUuid {
		return "", errors.TypeNotExpected(fmt.Sprintf("expected Uuid, got %s", v.Kind))
	}
	return v.Str, nil
}

// AsIDString returns a string identity regardless of whether it was carried
// as String or Uuid, since the wire contract (spec.md §3) treats `id` as a
// universal-string form.
func (v Value) AsIDString() (string, error) {
	switch v.Kind {
	case KindString, KindUuid:
		return v.Str, nil
	default:
		return "", errors.TypeNotExpected(fmt.Sprintf("expected id-bearing string, got %s", v.Kind))
	}
}

func (v Value) AsBool() (bool, error) {
	if v.Kind != KindBool {
		return false, errors.TypeNotExpected(fmt.Sprintf("expected Bool, got %s", v.Kind))
	}
	return v.Bool, nil
}

// AsFloat64 widens Int64/UInt64/Float64 to float64, matching the original
// engine's numeric-widening TryFrom<Value> for f64.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindInt64:
		return float64(v.I64), nil
	case KindUInt64:
		return float64(v.U64), nil
	case KindFloat64:
		return v.F64, nil
	default:
		return 0, errors.TypeNotExpected(fmt.Sprintf("expected numeric, got %s", v.Kind))
	}
}

func (v Value) AsArray() ([]Value, error) {
	if v.Kind != KindArray {
		return nil, errors.TypeNotExpected(fmt.Sprintf("expected Array, got %s", v.Kind))
	}
	return v.Array, nil
}

func (v Value) AsMap() (map[string]Value, error) {
	if v.Kind != KindMap {
		return nil, errors.TypeNotExpected(fmt.Sprintf("expected Map, got %s", v.Kind))
	}
	return v.Map, nil
}

// Equal implements the variant-sensitive equality of the original engine:
// values of different kinds are never equal, even if numerically comparable
// (Int64(1) != UInt64(1) != Float64(1.0)).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt64:
		return v.I64 == o.I64
	case KindUInt64:
		return v.U64 == o.U64
	case KindFloat64:
		return v.F64 == o.F64
	case KindString, KindUuid:
		return v.Str == o.Str
	case KindArray:
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(o.Map) {
			return false
		}
		for k, vv := range v.Map {
			ov, ok := o.Map[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromJSON converts a decoded encoding/json value (as produced by
// json.Unmarshal into interface{}) into a Value. Numbers decode to Int64 when
// they have no fractional part and fit in int64, else Float64; this mirrors
// the original engine's serde_json::Number trichotomy (i64/u64/f64) as
// closely as Go's json decoder — which has no u64 distinction — allows.
func FromJSON(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(t), nil
	case string:
		return FromString(t), nil
	case float64:
		if t == float64(int64(t)) {
			return FromInt64(int64(t)), nil
		}
		return FromFloat64(t), nil
	case []interface{}:
		out := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromJSON(e)
			if err != nil {
				return Value{}, err
			}
			out = append(out, ev)
		}
		return FromArray(out), nil
	case map[string]interface{}:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromJSON(e)
			if err != nil {
				return Value{}, err
			}
			out[k] = ev
		}
		return FromMap(out), nil
	default:
		return Value{}, errors.TypeNotExpected(fmt.Sprintf("unsupported JSON value %T", raw))
	}
}

// ToJSON converts a Value to a plain interface{} suitable for encoding/json,
// the reverse of FromJSON, except that a whole number FromJSON read as Int64
// comes back as int64 rather than the float64 encoding/json decodes numbers
// into. Uuid round-trips as its string form.
func ToJSON(v Value) (interface{}, error) {
	switch v.Kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.Bool, nil
	case KindInt64:
		return v.I64, nil
	case KindUInt64:
		return v.U64, nil
	case KindFloat64:
		return v.F64, nil
	case KindString, KindUuid:
		return v.Str, nil
	case KindArray:
		out := make([]interface{}, 0, len(v.Array))
		for _, e := range v.Array {
			ev, err := ToJSON(e)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, e := range v.Map {
			ev, err := ToJSON(e)
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
