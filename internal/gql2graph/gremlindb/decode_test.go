package gremlindb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
)

func issueTypeDef() schema.FixtureTypeDef {
	return schema.FixtureTypeDef{
		TypeNameVal: "Issue",
		Properties: []schema.FixtureProperty{
			{NameVal: "title", TypeNameVal: "String", KindVal: "Scalar"},
			{NameVal: "labels", TypeNameVal: "String", KindVal: "Scalar", ListVal: true},
		},
	}
}

func issueInfo() schema.Info {
	root := &schema.FixtureSchema{RootName: "Issue", Types: map[string]schema.FixtureTypeDef{"Issue": issueTypeDef()}}
	info, err := root.TypeDefByName("Issue")
	if err != nil {
		panic(err)
	}
	return schema.NewTypeInfo(root, info)
}

func TestIdToStringPassesThroughNativeString(t *testing.T) {
	s, err := idToString("abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", s)
}

func TestIdToStringNormalizesLongIDsVariants(t *testing.T) {
	cases := []any{int64(42), int32(42), int(42)}
	for _, c := range cases {
		s, err := idToString(c)
		require.NoError(t, err)
		assert.Equal(t, "42", s)
	}
}

func TestIdToStringRejectsUnhandledType(t *testing.T) {
	_, err := idToString(3.14)
	require.Error(t, err)
}

func TestFromGremlinScalarConvertsEachKind(t *testing.T) {
	nullV, err := fromGremlinScalar(nil)
	require.NoError(t, err)
	assert.True(t, nullV.IsNull())

	boolV, err := fromGremlinScalar(true)
	require.NoError(t, err)
	b, _ := boolV.AsBool()
	assert.True(t, b)

	strV, err := fromGremlinScalar("hi")
	require.NoError(t, err)
	s, _ := strV.AsString()
	assert.Equal(t, "hi", s)

	floatV, err := fromGremlinScalar(float64(1.5))
	require.NoError(t, err)
	f, _ := floatV.AsFloat64()
	assert.Equal(t, 1.5, f)
}

func TestFromGremlinScalarRejectsUnhandledType(t *testing.T) {
	_, err := fromGremlinScalar(struct{}{})
	require.Error(t, err)
}

func TestAsStringListWrapsScalarAndPassesThroughSlice(t *testing.T) {
	assert.Equal(t, []any{"x"}, asStringList("x"))
	assert.Equal(t, []any{"a", "b"}, asStringList([]any{"a", "b"}))
}

func TestCoerceValueMapSingleValuedProperty(t *testing.T) {
	raw := map[string][]any{"title": {"bug report"}}
	out, err := coerceValueMap(raw, issueInfo())
	require.NoError(t, err)
	s, err := out["title"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "bug report", s)
}

func TestCoerceValueMapListValuedProperty(t *testing.T) {
	raw := map[string][]any{"labels": {"bug", "urgent"}}
	out, err := coerceValueMap(raw, issueInfo())
	require.NoError(t, err)
	arr, err := out["labels"].AsArray()
	require.NoError(t, err)
	require.Len(t, arr, 2)
	first, _ := arr[0].AsString()
	assert.Equal(t, "bug", first)
}

func TestCoerceValueMapMissingValueIsNull(t *testing.T) {
	raw := map[string][]any{"title": {}}
	out, err := coerceValueMap(raw, issueInfo())
	require.NoError(t, err)
	assert.True(t, out["title"].IsNull())
}

func TestCoerceValueMapNilInfoTreatsEverythingAsScalar(t *testing.T) {
	raw := map[string][]any{"labels": {"bug", "urgent"}}
	out, err := coerceValueMap(raw, nil)
	require.NoError(t, err)
	s, err := out["labels"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "bug", s)
}

func TestDecodeNodeRowSetsIDAndFields(t *testing.T) {
	row := nodeRow{ID: "11111111-1111-1111-1111-111111111111", Label: "Issue", Props: map[string][]any{"title": {"bug report"}}}
	n, err := decodeNodeRow(row, issueInfo())
	require.NoError(t, err)
	assert.Equal(t, "Issue", n.ConcreteTypeName)
	id, err := n.ID()
	require.NoError(t, err)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", id)
	title, err := n.Fields["title"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "bug report", title)
}

func TestDecodeRelRowPopulatesSrcAndDst(t *testing.T) {
	row := relRow{
		ID: "rel-1", Props: map[string][]any{},
		SrcID: "s1", SrcLabel: "Project",
		DstID: "d1", DstLabel: "Issue",
	}
	rel, err := decodeRelRow(row, "ProjectIssuesRel")
	require.NoError(t, err)
	assert.Equal(t, "rel-1", rel.ID)
	assert.Equal(t, "ProjectIssuesRel", rel.RelName)
	assert.Equal(t, "s1", rel.SrcID())
	assert.Equal(t, "d1", rel.DstID())
	assert.Equal(t, "Project", rel.Src.Label)
	assert.Equal(t, "Issue", rel.Dst.Label)
}
