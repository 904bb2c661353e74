package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/visitor"
)

func projectIssueSchema() *schema.FixtureSchema {
	return &schema.FixtureSchema{
		RootName: "Project",
		Types: map[string]schema.FixtureTypeDef{
			"Project": {
				TypeNameVal: "Project",
				Properties: []schema.FixtureProperty{
					{NameVal: "name", TypeNameVal: "String", KindVal: "Scalar"},
					{NameVal: "issues", TypeNameVal: "Issue", KindVal: "Rel", RelNameVal: "issues"},
				},
			},
			"Issue": {
				TypeNameVal: "Issue",
				Properties: []schema.FixtureProperty{
					{NameVal: "title", TypeNameVal: "String", KindVal: "Scalar"},
				},
			},
		},
	}
}

// fakeResolveTransaction is a canned-result txn.Transaction double scoped to
// this package, mirroring the visitor package's fakeTransaction so
// ResolveRel/ResolveObject/ResolveMutation can be driven end to end through a
// real Visitor without a live driver.
type fakeResolveTransaction struct {
	createNodeResult model.Node
	createNodeErr    error

	readNodesResult []model.Node
	readNodesErr    error

	updateNodesResult []model.Node
	deleteNodesResult int

	createRelsResult []model.Rel
	readRelsResult   []model.Rel
	updateRelsResult []model.Rel
	deleteRelsResult int

	calls []string
}

func (f *fakeResolveTransaction) Begin(ctx context.Context) error    { return nil }
func (f *fakeResolveTransaction) Commit(ctx context.Context) error   { return nil }
func (f *fakeResolveTransaction) Rollback(ctx context.Context) error { return nil }

func (f *fakeResolveTransaction) CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error) {
	f.calls = append(f.calls, "CreateNode")
	return f.createNodeResult, f.createNodeErr
}
func (f *fakeResolveTransaction) CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts txn.Options, sg *model.SuffixGenerator) ([]model.Rel, error) {
	f.calls = append(f.calls, "CreateRels")
	return f.createRelsResult, nil
}
func (f *fakeResolveTransaction) UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info) ([]model.Node, error) {
	f.calls = append(f.calls, "UpdateNodes")
	return f.updateNodesResult, nil
}
func (f *fakeResolveTransaction) UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	f.calls = append(f.calls, "UpdateRels")
	return f.updateRelsResult, nil
}
func (f *fakeResolveTransaction) DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error) {
	f.calls = append(f.calls, "DeleteNodes")
	return f.deleteNodesResult, nil
}
func (f *fakeResolveTransaction) DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error) {
	f.calls = append(f.calls, "DeleteRels")
	return f.deleteRelsResult, nil
}
func (f *fakeResolveTransaction) ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts txn.Options, info schema.Info) ([]model.Node, error) {
	f.calls = append(f.calls, "ReadNodes")
	return f.readNodesResult, f.readNodesErr
}
func (f *fakeResolveTransaction) ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts txn.Options) ([]model.Rel, error) {
	f.calls = append(f.calls, "ReadRels")
	return f.readRelsResult, nil
}
func (f *fakeResolveTransaction) LoadNodes(ctx context.Context, keys []txn.NodeLoadKey, info schema.Info) ([]model.Node, error) {
	return nil, nil
}
func (f *fakeResolveTransaction) LoadRels(ctx context.Context, keys []txn.RelLoadKey) ([]model.Rel, error) {
	return nil, nil
}
func (f *fakeResolveTransaction) ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (txn.QueryResult, error) {
	return txn.QueryResult{}, nil
}
func (f *fakeResolveTransaction) NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []txn.NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("MATCH ("+nodeVar.Name()+")\n", "", map[string]gvalue.Value{})
}
func (f *fakeResolveTransaction) NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("MATCH ("+nodeVar.Name()+")\n", "", map[string]gvalue.Value{})
}
func (f *fakeResolveTransaction) RelReadFragment(relVar model.RelQueryVar, comparisons []txn.NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("MATCH ()-["+relVar.Name()+"]->()\n", "", map[string]gvalue.Value{})
}
func (f *fakeResolveTransaction) RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("", "", map[string]gvalue.Value{})
}

func strPtr(s string) *string { return &s }

func newResolverOn(fake *fakeResolveTransaction) *FieldResolver {
	v := visitor.NewVisitor(visitor.NewEngine(), fake, nil)
	return NewFieldResolver(NewRegistry(), v)
}

func TestResolveRelReadsMatchedRels(t *testing.T) {
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "s1"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeResolveTransaction{readRelsResult: []model.Rel{rel}}
	r := newResolverOn(fake)
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Issue"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	rels, err := r.ResolveRel(context.Background(), relVar, projectIssueSchema(), gvalue.Null(), txn.Options{})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "rel-1", rels[0].ID)
	assert.Contains(t, fake.calls, "ReadRels")
}

func TestResolveObjectReadsMatchedNodes(t *testing.T) {
	node := model.NewNode("Issue", map[string]gvalue.Value{"id": gvalue.FromUuid("11111111-1111-1111-1111-111111111111")})
	fake := &fakeResolveTransaction{readNodesResult: []model.Node{node}}
	r := newResolverOn(fake)
	nodeVar := model.NewNodeQueryVar(strPtr("Issue"), "n", "_0")

	nodes, err := r.ResolveObject(context.Background(), nodeVar, projectIssueSchema(), gvalue.Null(), txn.Options{})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Contains(t, fake.calls, "ReadNodes")
}

func TestResolveMutationCreateNodeDispatches(t *testing.T) {
	created := model.NewNode("Project", map[string]gvalue.Value{
		"id":   gvalue.FromUuid("22222222-2222-2222-2222-222222222222"),
		"name": gvalue.FromString("acme"),
	})
	fake := &fakeResolveTransaction{createNodeResult: created}
	r := newResolverOn(fake)

	input := gvalue.FromMap(map[string]gvalue.Value{"name": gvalue.FromString("acme")})
	result, err := r.ResolveMutation(context.Background(), MutationCreateNode, model.NodeQueryVar{}, model.RelQueryVar{}, "Project", "issues", projectIssueSchema(), nil, input, txn.Options{})
	require.NoError(t, err)
	node, ok := result.(model.Node)
	require.True(t, ok)
	id, err := node.ID()
	require.NoError(t, err)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", id)
	assert.Contains(t, fake.calls, "CreateNode")
}

func TestResolveMutationUpdateNodeDispatches(t *testing.T) {
	updated := []model.Node{model.NewNode("Project", map[string]gvalue.Value{"name": gvalue.FromString("renamed")})}
	fake := &fakeResolveTransaction{updateNodesResult: updated}
	r := newResolverOn(fake)
	nodeVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH": gvalue.Null(),
		"SET":   gvalue.FromMap(map[string]gvalue.Value{"name": gvalue.FromString("renamed")}),
	})
	result, err := r.ResolveMutation(context.Background(), MutationUpdateNode, nodeVar, model.RelQueryVar{}, "Project", "issues", projectIssueSchema(), nil, input, txn.Options{})
	require.NoError(t, err)
	nodes, ok := result.([]model.Node)
	require.True(t, ok)
	require.Len(t, nodes, 1)
	assert.Contains(t, fake.calls, "UpdateNodes")
}

func TestResolveMutationDeleteNodeDispatches(t *testing.T) {
	matched := []model.Node{model.NewNode("Project", map[string]gvalue.Value{"id": gvalue.FromUuid("33333333-3333-3333-3333-333333333333")})}
	fake := &fakeResolveTransaction{readNodesResult: matched, deleteNodesResult: 1}
	r := newResolverOn(fake)
	nodeVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{"MATCH": gvalue.Null()})
	result, err := r.ResolveMutation(context.Background(), MutationDeleteNode, nodeVar, model.RelQueryVar{}, "Project", "issues", projectIssueSchema(), nil, input, txn.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result)
	assert.Contains(t, fake.calls, "DeleteNodes")
}

func TestResolveMutationCreateRelDispatches(t *testing.T) {
	srcNode := model.NewNode("Project", map[string]gvalue.Value{"id": gvalue.FromUuid("44444444-4444-4444-4444-444444444444")})
	createdRel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "44444444-4444-4444-4444-444444444444"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeResolveTransaction{readNodesResult: []model.Node{srcNode}, createRelsResult: []model.Rel{createdRel}}
	r := newResolverOn(fake)
	nodeVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH": gvalue.Null(),
		"CREATE": gvalue.FromMap(map[string]gvalue.Value{
			"dst": gvalue.FromMap(map[string]gvalue.Value{
				"Issue": gvalue.FromMap(map[string]gvalue.Value{"EXISTING": gvalue.Null()}),
			}),
		}),
	})
	result, err := r.ResolveMutation(context.Background(), MutationCreateRel, nodeVar, model.RelQueryVar{}, "Project", "issues", projectIssueSchema(), nil, input, txn.Options{})
	require.NoError(t, err)
	rels, ok := result.([]model.Rel)
	require.True(t, ok)
	require.Len(t, rels, 1)
	assert.Contains(t, fake.calls, "CreateRels")
}

func TestResolveMutationUpdateRelDispatches(t *testing.T) {
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "s1"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeResolveTransaction{updateRelsResult: []model.Rel{rel}}
	r := newResolverOn(fake)
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Issue"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH": gvalue.Null(),
		"SET":   gvalue.FromMap(map[string]gvalue.Value{}),
	})
	result, err := r.ResolveMutation(context.Background(), MutationUpdateRel, model.NodeQueryVar{}, relVar, "Project", "issues", projectIssueSchema(), projectIssueSchema(), input, txn.Options{})
	require.NoError(t, err)
	rels, ok := result.([]model.Rel)
	require.True(t, ok)
	require.Len(t, rels, 1)
	assert.Contains(t, fake.calls, "UpdateRels")
}

func TestResolveMutationDeleteRelDispatches(t *testing.T) {
	srcNode := model.NewNode("Project", map[string]gvalue.Value{"id": gvalue.FromUuid("55555555-5555-5555-5555-555555555555")})
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "55555555-5555-5555-5555-555555555555"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeResolveTransaction{readNodesResult: []model.Node{srcNode}, readRelsResult: []model.Rel{rel}, deleteRelsResult: 1}
	r := newResolverOn(fake)
	nodeVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{"MATCH": gvalue.Null()})
	result, err := r.ResolveMutation(context.Background(), MutationDeleteRel, nodeVar, model.RelQueryVar{}, "Project", "issues", projectIssueSchema(), projectIssueSchema(), input, txn.Options{})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Contains(t, fake.calls, "DeleteRels")
}

func TestRunReadCommitsOnSuccess(t *testing.T) {
	tx := &stubTransaction{}
	pool := &stubPool{tx: tx}
	result, err := RunRead(context.Background(), pool, func(ctx context.Context, tx txn.Transaction) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.True(t, tx.commitCalled)
	assert.False(t, tx.rollbackCalled)
}
