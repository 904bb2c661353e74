package schema

import (
	"encoding/json"
	"fmt"
)

// FixtureProperty is the JSON-decodable shape of one Property, used by the
// reference CLI and by tests that need a concrete schema without standing
// up a real GraphQL schema collaborator.
type FixtureProperty struct {
	NameVal      string `json:"name"`
	TypeNameVal  string `json:"typeName"`
	RequiredVal  bool   `json:"required"`
	ListVal      bool   `json:"list"`
	KindVal      string `json:"kind"`
	RelNameVal   string `json:"relName"`
	ValidatorVal string `json:"validator"`
	ResolverVal  string `json:"resolver"`
}

func (p FixtureProperty) Name() string     { return p.NameVal }
func (p FixtureProperty) TypeName() string { return p.TypeNameVal }
func (p FixtureProperty) Required() bool   { return p.RequiredVal }
func (p FixtureProperty) List() bool       { return p.ListVal }
func (p FixtureProperty) RelName() string  { return p.RelNameVal }
func (p FixtureProperty) Validator() string { return p.ValidatorVal }
func (p FixtureProperty) Resolver() string { return p.ResolverVal }

func (p FixtureProperty) Kind() PropertyKind {
	switch p.KindVal {
	case "DynamicScalar":
		return PropertyKindDynamicScalar
	case "ScalarComp":
		return PropertyKindScalarComp
	case "Input":
		return PropertyKindInput
	case "Object":
		return PropertyKindObject
	case "Rel":
		return PropertyKindRel
	default:
		return PropertyKindScalar
	}
}

// FixtureTypeDef is the JSON-decodable shape of one TypeDef.
type FixtureTypeDef struct {
	TypeNameVal   string            `json:"typeName"`
	KindVal       string            `json:"kind"`
	Properties    []FixtureProperty `json:"properties"`
	UnionTypesVal []string          `json:"unionTypes"`
}

func (t FixtureTypeDef) TypeName() string     { return t.TypeNameVal }
func (t FixtureTypeDef) UnionTypes() []string { return t.UnionTypesVal }

func (t FixtureTypeDef) Kind() TypeKind {
	switch t.KindVal {
	case "Union":
		return TypeKindUnion
	case "Scalar":
		return TypeKindScalar
	default:
		return TypeKindObject
	}
}

func (t FixtureTypeDef) Property(name string) (Property, error) {
	for _, p := range t.Properties {
		if p.NameVal == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("property %q not found on type %q", name, t.TypeNameVal)
}

func (t FixtureTypeDef) PropValues() []Property {
	out := make([]Property, 0, len(t.Properties))
	for _, p := range t.Properties {
		out = append(out, p)
	}
	return out
}

// FixtureSchema is a JSON-decodable Info implementation: a flat map of
// every TypeDef in the fixture, keyed by type name.
type FixtureSchema struct {
	RootName string                    `json:"rootName"`
	Types    map[string]FixtureTypeDef `json:"types"`
}

// LoadFixtureSchema decodes a FixtureSchema from JSON bytes, the shape the
// reference CLI (cmd/gql2graph-query) reads from its --schema flag.
func LoadFixtureSchema(data []byte) (*FixtureSchema, error) {
	var s FixtureSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *FixtureSchema) Name() string { return s.RootName }

func (s *FixtureSchema) TypeDef() (TypeDef, error) {
	return s.TypeDefByName(s.RootName)
}

func (s *FixtureSchema) TypeDefByName(name string) (TypeDef, error) {
	td, ok := s.Types[name]
	if !ok {
		return nil, fmt.Errorf("type %q not found in schema fixture", name)
	}
	return td, nil
}
