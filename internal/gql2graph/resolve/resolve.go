// Package resolve implements field-level resolver dispatch (spec.md §4.3):
// for each GraphQL field it looks up the schema property kind and routes to
// a scalar projection, a nested node read, a rel visitor, a mutation
// visitor, or a registered custom resolver. The outermost resolver of a
// mutation owns the transaction lifecycle (begin/commit/rollback); resolvers
// invoked for nested fields run inside a transaction handed down by the
// parent resolver.
package resolve

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/visitor"
)

// FieldKind tags which of the five routing branches a field resolves
// through, on top of schema.PropertyKind: scalar, object (nested node read),
// rel, a mutation variant, or a registered custom resolver.
type FieldKind int

const (
	FieldScalar FieldKind = iota
	FieldObject
	FieldRel
	FieldMutation
	FieldCustom
)

// MutationVariant selects which visitor a mutation field dispatches to.
type MutationVariant int

const (
	MutationCreateNode MutationVariant = iota
	MutationUpdateNode
	MutationDeleteNode
	MutationCreateRel
	MutationUpdateRel
	MutationDeleteRel
)

// Facade is what a custom resolver receives: the open transaction, the
// request context, the event-handler/validator registry, and the field's
// parsed input argument (spec.md §4.3).
type Facade struct {
	Tx     txn.Transaction
	RCtx   txn.RequestContext
	Engine *visitor.Engine
	Input  gvalue.Value
	SG     *model.SuffixGenerator
}

// CustomResult is the tagged union a custom resolver may return.
type CustomResult struct {
	Value gvalue.Value
	Node  *model.Node
	Rel   *model.Rel
}

// CustomResolver is a user-registered handler for a schema.Property whose
// Resolver() names it.
type CustomResolver func(ctx context.Context, f Facade) (CustomResult, error)

// Registry holds custom resolvers by name, looked up via
// schema.Property.Resolver().
type Registry struct {
	Custom map[string]CustomResolver
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{Custom: map[string]CustomResolver{}}
}

// FieldResolver dispatches one GraphQL field resolution. It is constructed
// once per open transaction (or reused across the nested fields of one
// top-level operation) and threads the same Visitor through every call so
// that SG (the suffix generator) stays scoped to the top-level operation
// (spec.md §3, "SuffixGenerator lifecycle").
type FieldResolver struct {
	Registry *Registry
	Visitor  *visitor.Visitor
}

// NewFieldResolver constructs a FieldResolver bound to one Visitor/Registry pair.
func NewFieldResolver(reg *Registry, v *visitor.Visitor) *FieldResolver {
	return &FieldResolver{Registry: reg, Visitor: v}
}

// ResolveScalar projects a scalar field's value directly out of a
// materialized Node's field map.
func (r *FieldResolver) ResolveScalar(node model.Node, fieldName string) (gvalue.Value, error) {
	val, ok := node.Fields[fieldName]
	if !ok {
		return gvalue.Value{}, errors.SchemaItemNotFound(fieldName)
	}
	return val, nil
}

// ResolveCustom looks up and invokes a registered custom resolver by name,
// failing if none is registered for it (a schema-declared resolver name
// that lost its registration is a programmer error at engine-construction
// time, not a per-request one, so this is reported the same way as
// ValidatorNotFound: a config/wiring defect surfaced at first use).
func (r *FieldResolver) ResolveCustom(ctx context.Context, name string, f Facade) (CustomResult, error) {
	fn, ok := r.Registry.Custom[name]
	if !ok {
		return CustomResult{}, errors.ValidatorNotFound(name)
	}
	return fn(ctx, f)
}

// ResolveRel routes a rel-kind field to VisitRelQueryInput to produce a
// fragment, then reads it — the read path every nested `{dst}` projection
// and top-level `readRel` resolves through (spec.md §4.3).
func (r *FieldResolver) ResolveRel(ctx context.Context, relVar model.RelQueryVar, dstInfo schema.Info, input gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	fragment, err := r.Visitor.VisitRelQueryInput(ctx, relVar, dstInfo, input)
	if err != nil {
		return nil, err
	}
	return r.Visitor.Tx.ReadRels(ctx, fragment, relVar, opts)
}

// ResolveObject routes an object-kind field (a nested node read, e.g. a rel
// projection's `dst` sub-selection materializing the destination node) to
// VisitNodeQueryInput + ReadNodes.
func (r *FieldResolver) ResolveObject(ctx context.Context, nodeVar model.NodeQueryVar, info schema.Info, input gvalue.Value, opts txn.Options) ([]model.Node, error) {
	fragment, err := r.Visitor.VisitNodeQueryInput(ctx, nodeVar, info, input)
	if err != nil {
		return nil, err
	}
	return r.Visitor.Tx.ReadNodes(ctx, nodeVar, fragment, opts, info)
}

// ResolveMutation is the outermost mutation entry point: it routes to the
// correct top-level visitor by variant. Callers (the transaction-lifecycle
// owner, see RunMutation below) are responsible for translating a non-nil
// error into a rollback and a nil error into a commit.
func (r *FieldResolver) ResolveMutation(ctx context.Context, variant MutationVariant, nodeVar model.NodeQueryVar, relVar model.RelQueryVar, typeName, relName string, info, dstInfo schema.Info, input gvalue.Value, opts txn.Options) (interface{}, error) {
	switch variant {
	case MutationCreateNode:
		return r.Visitor.VisitNodeCreateMutationInput(ctx, typeName, info, input, opts)
	case MutationUpdateNode:
		return r.Visitor.VisitNodeUpdateInput(ctx, nodeVar, typeName, info, input, opts)
	case MutationDeleteNode:
		return r.Visitor.VisitNodeDeleteInput(ctx, nodeVar, typeName, info, input, opts)
	case MutationCreateRel:
		return r.Visitor.VisitRelCreateInput(ctx, nodeVar, info, relName, input, opts)
	case MutationUpdateRel:
		return r.Visitor.VisitRelUpdateInput(ctx, relVar, info, dstInfo, input, opts)
	case MutationDeleteRel:
		return nil, r.Visitor.VisitRelDeleteTopLevelInput(ctx, nodeVar, info, relName, dstInfo, input, opts)
	default:
		return nil, errors.TypeNotExpected("unknown mutation variant")
	}
}

// RunMutation owns the full transaction lifecycle for one top-level mutation
// field: it calls fn with a freshly begun transaction, committing on success
// and rolling back on any error (spec.md §4.3, "The outermost resolver of a
// mutation owns the transaction lifecycle").
func RunMutation(ctx context.Context, pool txn.Pool, fn func(ctx context.Context, tx txn.Transaction) (interface{}, error)) (interface{}, error) {
	tx, err := pool.Transaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.Begin(ctx); err != nil {
		return nil, err
	}

	result, err := fn(ctx, tx)
	if err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// RunRead owns the read-only transaction lifecycle for one top-level query
// field: begin against the pool's read-only sub-pool, run fn, then always
// commit (a read transaction has nothing to roll back, but the backend still
// expects the lifecycle to close cleanly) — or roll back if fn errored.
func RunRead(ctx context.Context, pool txn.Pool, fn func(ctx context.Context, tx txn.Transaction) (interface{}, error)) (interface{}, error) {
	tx, err := pool.ReadTransaction(ctx)
	if err != nil {
		return nil, err
	}
	if err := tx.Begin(ctx); err != nil {
		return nil, err
	}

	result, err := fn(ctx, tx)
	if err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			return nil, rerr
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
