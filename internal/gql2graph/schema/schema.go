// Package schema declares the read-only collaborator interfaces the visitor
// pipeline consumes for type metadata (spec.md §6). Schema generation and
// type-metadata storage are out of scope for this module; a concrete
// implementation lives in whatever front-end owns GraphQL schema synthesis.
package schema

// TypeKind distinguishes how a TypeDef's values are resolved.
type TypeKind int

const (
	TypeKindObject TypeKind = iota
	TypeKindUnion
	TypeKindScalar
)

// PropertyKind tells a visitor how to treat one property of a TypeDef when
// partitioning an input map (spec.md §4.1).
type PropertyKind int

const (
	PropertyKindScalar PropertyKind = iota
	PropertyKindDynamicScalar
	PropertyKindScalarComp
	PropertyKindInput
	PropertyKindObject
	PropertyKindRel
)

// Property answers the schema questions the visitor pipeline needs about one
// field of a TypeDef.
type Property interface {
	Name() string
	TypeName() string
	Required() bool
	List() bool
	Kind() PropertyKind
	// RelName is meaningful only when Kind() == PropertyKindRel.
	RelName() string
	// Validator names a validator registered with the engine, or "" if none.
	Validator() string
	// Resolver names a custom resolver registered with the engine, or "" if none.
	Resolver() string
}

// TypeDef answers the schema questions the visitor pipeline needs about one
// GraphQL input/output type.
type TypeDef interface {
	TypeName() string
	Property(name string) (Property, error)
	PropValues() []Property
	Kind() TypeKind
	// UnionTypes lists the concrete member type names when Kind() == TypeKindUnion.
	UnionTypes() []string
}

// Info is the root schema collaborator: it resolves TypeDefs by name and
// exposes the current field's own TypeDef.
type Info interface {
	Name() string
	TypeDef() (TypeDef, error)
	TypeDefByName(name string) (TypeDef, error)
}

// TypeInfo adapts a TypeDef resolved by name back into an Info scoped to
// that type, so a recursive visitor call can keep threading schema.Info
// after following a nested rel property or union branch to its destination
// type, without losing the ability to resolve further names against the
// same root.
type TypeInfo struct {
	root Info
	td   TypeDef
}

// NewTypeInfo constructs a TypeInfo; root is still consulted for
// TypeDefByName lookups, since a TypeDef on its own doesn't know the wider
// schema.
func NewTypeInfo(root Info, td TypeDef) TypeInfo {
	return TypeInfo{root: root, td: td}
}

func (t TypeInfo) Name() string              { return t.td.TypeName() }
func (t TypeInfo) TypeDef() (TypeDef, error) { return t.td, nil }
func (t TypeInfo) TypeDefByName(name string) (TypeDef, error) {
	return t.root.TypeDefByName(name)
}
