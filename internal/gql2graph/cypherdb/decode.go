package cypherdb

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
)

// decodeNode converts the neo4j.Node bound to key varName in rec into a
// model.Node. label, when non-empty, names the concrete type directly
// (the caller already knows it from the NodeQueryVar); otherwise the first
// native label on the returned node is used, the shape LoadNodes returns
// for untyped batch fetches (spec.md §4.6).
func decodeNode(rec *neo4j.Record, varName, label string) (model.Node, error) {
	raw, ok := rec.Get(varName)
	if !ok {
		return model.Node{}, errors.ResponseSetNotFound()
	}
	n, ok := raw.(neo4j.Node)
	if !ok {
		return model.Node{}, errors.DatabaseErrorf(nil, "expected Node value for %q", varName)
	}
	fields, err := fieldsFromProps(n.Props)
	if err != nil {
		return model.Node{}, err
	}
	typeName := label
	if typeName == "" && len(n.Labels) > 0 {
		typeName = n.Labels[0]
	}
	return model.Node{ConcreteTypeName: typeName, Fields: fields}, nil
}

// decodeRelRow converts a {src, rel, dst} projection row into a model.Rel,
// the shape every CreateRels/UpdateRels/ReadRels query returns (spec.md §4.4).
func decodeRelRow(rec *neo4j.Record, relVar model.RelQueryVar) (model.Rel, error) {
	return decodeRelFields(rec, relVar.Label())
}

// decodeRelRowGeneric is decodeRelRow for LoadRels' UNION-ALL branches, where
// no single RelQueryVar names the rel label — it comes from the
// relationship's own native type instead.
func decodeRelRowGeneric(rec *neo4j.Record) (model.Rel, error) {
	return decodeRelFields(rec, "")
}

func decodeRelFields(rec *neo4j.Record, relName string) (model.Rel, error) {
	srcRaw, ok := rec.Get("src")
	if !ok {
		return model.Rel{}, errors.ResponseSetNotFound()
	}
	relRaw, ok := rec.Get("rel")
	if !ok {
		return model.Rel{}, errors.ResponseSetNotFound()
	}
	dstRaw, ok := rec.Get("dst")
	if !ok {
		return model.Rel{}, errors.ResponseSetNotFound()
	}

	srcID, ok := srcRaw.(string)
	if !ok {
		return model.Rel{}, errors.DatabaseErrorf(nil, "expected string src id")
	}
	dstID, ok := dstRaw.(string)
	if !ok {
		return model.Rel{}, errors.DatabaseErrorf(nil, "expected string dst id")
	}
	rel, ok := relRaw.(neo4j.Relationship)
	if !ok {
		return model.Rel{}, errors.DatabaseErrorf(nil, "expected Relationship value for \"rel\"")
	}

	fields, err := fieldsFromProps(rel.Props)
	if err != nil {
		return model.Rel{}, err
	}
	id, err := fields["id"].AsIDString()
	if err != nil {
		return model.Rel{}, err
	}

	name := relName
	if name == "" {
		name = rel.Type
	}

	propsNode := model.Node{ConcreteTypeName: name, Fields: fields}
	return model.Rel{
		ID:         id,
		RelName:    name,
		Src:        model.NodeRef{ID: srcID},
		Dst:        model.NodeRef{ID: dstID},
		Properties: &propsNode,
	}, nil
}

// decodeCount reads the `count` projection DeleteNodes/DeleteRels return.
func decodeCount(records []*neo4j.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	raw, ok := records[0].Get("count")
	if !ok {
		return 0, errors.ResponseSetNotFound()
	}
	switch v := raw.(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, errors.DatabaseErrorf(nil, "expected integer count, got %T", raw)
	}
}
