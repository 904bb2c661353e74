package gremlindb

import (
	"fmt"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
)

// nodeRow is the three-field projection a node read/create query returns:
// id, label, and the valueMap()-shaped property bag, carried over from the
// original engine's Gremlin row shape (spec.md §13).
type nodeRow struct {
	ID    string
	Label string
	Props map[string][]any
}

// relRow is the six-field projection spec.md §4.5/§13 specify for every rel
// create/read: {rID, rProps, srcID, srcLabel, dstID, dstLabel}.
type relRow struct {
	ID       string
	Props    map[string][]any
	SrcID    string
	SrcLabel string
	DstID    string
	DstLabel string
}

// coerceValueMap turns a raw valueMap() result (every entry a list, even for
// single-valued properties) into the Node field map, consulting info for
// whether each property is schema-declared as list-valued (spec.md §4.5,
// "Property extraction").
func coerceValueMap(raw map[string][]any, info schema.Info) (map[string]gvalue.Value, error) {
	var typeDef schema.TypeDef
	if info != nil {
		td, err := info.TypeDef()
		if err == nil {
			typeDef = td
		}
	}

	out := make(map[string]gvalue.Value, len(raw))
	for key, vals := range raw {
		isList := false
		if typeDef != nil {
			if prop, perr := typeDef.Property(key); perr == nil {
				isList = prop.List()
			}
		}

		if isList {
			arr := make([]gvalue.Value, 0, len(vals))
			for _, v := range vals {
				cv, err := fromGremlinScalar(v)
				if err != nil {
					return nil, err
				}
				arr = append(arr, cv)
			}
			out[key] = gvalue.FromArray(arr)
			continue
		}

		if len(vals) == 0 {
			out[key] = gvalue.Null()
			continue
		}
		cv, err := fromGremlinScalar(vals[0])
		if err != nil {
			return nil, err
		}
		out[key] = cv
	}
	return out, nil
}

func fromGremlinScalar(raw any) (gvalue.Value, error) {
	switch v := raw.(type) {
	case nil:
		return gvalue.Null(), nil
	case bool:
		return gvalue.FromBool(v), nil
	case int:
		return gvalue.FromInt64(int64(v)), nil
	case int32:
		return gvalue.FromInt64(int64(v)), nil
	case int64:
		return gvalue.FromInt64(v), nil
	case float32:
		return gvalue.FromFloat64(float64(v)), nil
	case float64:
		return gvalue.FromFloat64(v), nil
	case string:
		return gvalue.FromString(v), nil
	default:
		return gvalue.Value{}, errors.DatabaseErrorf(nil, "unhandled Gremlin scalar type %T", raw)
	}
}

// decodeNodeRow converts one nodeRow into a model.Node, applying long-ids
// mode's reverse conversion: when enabled, an id that decoded as a Gremlin
// numeric type was re-parsed into its canonical string form upstream, so
// this function only ever sees the wire-string id (spec.md §3 invariant 3).
func decodeNodeRow(row nodeRow, info schema.Info) (model.Node, error) {
	fields, err := coerceValueMap(row.Props, info)
	if err != nil {
		return model.Node{}, err
	}
	fields["id"] = gvalue.FromUuid(row.ID)
	return model.Node{ConcreteTypeName: row.Label, Fields: fields}, nil
}

func decodeRelRow(row relRow, relName string) (model.Rel, error) {
	fields, err := coerceValueMap(row.Props, nil)
	if err != nil {
		return model.Rel{}, err
	}
	fields["id"] = gvalue.FromUuid(row.ID)
	propsNode := model.Node{ConcreteTypeName: relName, Fields: fields}
	return model.Rel{
		ID:      row.ID,
		RelName: relName,
		Src:     model.NodeRef{ID: row.SrcID, Label: row.SrcLabel},
		Dst:     model.NodeRef{ID: row.DstID, Label: row.DstLabel},
		Properties: &propsNode,
	}, nil
}

// idToString normalizes a raw Gremlin id (native numeric under long-ids
// mode, or native string otherwise) to the wire-string form spec.md §3
// invariant 3 mandates outside of fragment/transaction-boundary text.
func idToString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int64:
		return fmt.Sprintf("%d", v), nil
	case int32:
		return fmt.Sprintf("%d", v), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	default:
		return "", errors.DatabaseErrorf(nil, "unhandled Gremlin id type %T", raw)
	}
}

func asStringList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// projectedNodeRow decodes one result of nodeProjection
// (`.project('id','label','props').by(id()).by(label()).by(valueMap())`).
func projectedNodeRow(r *gremlingo.Result) (nodeRow, error) {
	raw, ok := r.GetInterface().(map[string]any)
	if !ok {
		return nodeRow{}, errors.DatabaseErrorf(nil, "expected project() map result, got %T", r.GetInterface())
	}
	id, err := idToString(raw["id"])
	if err != nil {
		return nodeRow{}, err
	}
	label, _ := raw["label"].(string)

	props := map[string][]any{}
	if vm, ok := raw["props"].(map[string]any); ok {
		for k, v := range vm {
			props[k] = asStringList(v)
		}
	}
	return nodeRow{ID: id, Label: label, Props: props}, nil
}

// projectedRelRow decodes one result of relProjection, the six-field rel
// shape carried over from the original engine (spec.md §13).
func projectedRelRow(r *gremlingo.Result) (relRow, error) {
	raw, ok := r.GetInterface().(map[string]any)
	if !ok {
		return relRow{}, errors.DatabaseErrorf(nil, "expected project() map result, got %T", r.GetInterface())
	}
	id, err := idToString(raw["rID"])
	if err != nil {
		return relRow{}, err
	}
	srcID, err := idToString(raw["srcID"])
	if err != nil {
		return relRow{}, err
	}
	dstID, err := idToString(raw["dstID"])
	if err != nil {
		return relRow{}, err
	}
	srcLabel, _ := raw["srcLabel"].(string)
	dstLabel, _ := raw["dstLabel"].(string)

	props := map[string][]any{}
	if vm, ok := raw["rProps"].(map[string]any); ok {
		for k, v := range vm {
			props[k] = asStringList(v)
		}
	}
	return relRow{ID: id, Props: props, SrcID: srcID, SrcLabel: srcLabel, DstID: dstID, DstLabel: dstLabel}, nil
}

// countFromResult narrows a drop().count() result (Int32 or Int64
// depending on server) to int (spec.md §4.5, "Delete counts").
func countFromResult(r *gremlingo.Result) (int, error) {
	switch v := r.GetInterface().(type) {
	case int64:
		return int(v), nil
	case int32:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, errors.DatabaseErrorf(nil, "expected integer count, got %T", v)
	}
}
