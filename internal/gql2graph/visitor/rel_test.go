package visitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

func TestVisitRelCreateInputEmptyMatchReturnsNil(t *testing.T) {
	fake := &fakeTransaction{readNodesResult: nil}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH":  gvalue.Null(),
		"CREATE": gvalue.FromMap(map[string]gvalue.Value{"dst": gvalue.FromMap(map[string]gvalue.Value{"Issue": gvalue.FromMap(map[string]gvalue.Value{"EXISTING": gvalue.Null()})})}),
	})

	rels, err := v.VisitRelCreateInput(context.Background(), srcVar, projectIssueSchema(), "issues", input, txn.Options{})
	require.NoError(t, err)
	assert.Nil(t, rels)
	assert.NotContains(t, fake.calls, "CreateRels")
}

func TestVisitRelCreateInputHappyPath(t *testing.T) {
	srcNode := model.NewNode("Project", map[string]gvalue.Value{"id": gvalue.FromUuid("11111111-1111-1111-1111-111111111111")})
	createdRel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "11111111-1111-1111-1111-111111111111"}, Dst: model.NodeRef{ID: "22222222-2222-2222-2222-222222222222"}}
	fake := &fakeTransaction{readNodesResult: []model.Node{srcNode}, createRelsResult: []model.Rel{createdRel}}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH": gvalue.Null(),
		"CREATE": gvalue.FromMap(map[string]gvalue.Value{
			"dst": gvalue.FromMap(map[string]gvalue.Value{
				"Issue": gvalue.FromMap(map[string]gvalue.Value{"EXISTING": gvalue.Null()}),
			}),
		}),
	})

	rels, err := v.VisitRelCreateInput(context.Background(), srcVar, projectIssueSchema(), "issues", input, txn.Options{})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "rel-1", rels[0].ID)
	assert.Contains(t, fake.calls, "CreateRels")
}

func TestVisitRelCreateInputMissingCreateKeyFails(t *testing.T) {
	srcNode := model.NewNode("Project", map[string]gvalue.Value{"id": gvalue.FromUuid("11111111-1111-1111-1111-111111111111")})
	fake := &fakeTransaction{readNodesResult: []model.Node{srcNode}}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")

	input := gvalue.FromMap(map[string]gvalue.Value{"MATCH": gvalue.Null()})
	_, err := v.VisitRelCreateInput(context.Background(), srcVar, projectIssueSchema(), "issues", input, txn.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagInputItemNotFound))
}

func TestVisitRelNodesMutationInputUnionRejectsMultiBranch(t *testing.T) {
	fake := &fakeTransaction{}
	v := newTestVisitor(fake)
	dstVar := model.NewNodeQueryVar(nil, "n", "_1")

	input := gvalue.FromMap(map[string]gvalue.Value{
		"Issue":   gvalue.Null(),
		"Project": gvalue.Null(),
	})
	_, err := v.VisitRelNodesMutationInputUnion(context.Background(), dstVar, projectIssueSchema(), input, txn.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagTypeNotExpected))
}

func TestVisitRelQueryInputNullMatchesAll(t *testing.T) {
	fake := &fakeTransaction{}
	v := newTestVisitor(fake)
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Issue"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	frag, err := v.VisitRelQueryInput(context.Background(), relVar, projectIssueSchema(), gvalue.Null())
	require.NoError(t, err)
	assert.Contains(t, frag.MatchFragment, "rel_2")
}

func TestVisitRelDeleteInputEmptyMatchIsNoop(t *testing.T) {
	fake := &fakeTransaction{readRelsResult: nil}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	srcFragment := fake.NodeReadByIDsFragment(srcVar, []string{"11111111-1111-1111-1111-111111111111"}, nil)

	input := gvalue.FromMap(map[string]gvalue.Value{})
	err := v.VisitRelDeleteInput(context.Background(), srcVar, srcFragment, "issues", projectIssueSchema(), input, txn.Options{})
	require.NoError(t, err)
	assert.NotContains(t, fake.calls, "DeleteRels")
}

func TestVisitRelUpdateInputAppliesSetProps(t *testing.T) {
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "s1"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeTransaction{updateRelsResult: []model.Rel{rel}}
	v := newTestVisitor(fake)
	src := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	dst := model.NewNodeQueryVar(strPtr("Issue"), "n", "_1")
	relVar := model.NewRelQueryVar("ProjectIssuesRel", "_2", src, dst)

	input := gvalue.FromMap(map[string]gvalue.Value{
		"MATCH": gvalue.Null(),
		"SET":   gvalue.FromMap(map[string]gvalue.Value{}),
	})
	rels, err := v.VisitRelUpdateInput(context.Background(), relVar, projectIssueSchema(), projectIssueSchema(), input, txn.Options{})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Contains(t, fake.calls, "UpdateRels")
}

func TestVisitRelChangeInputRequiresAtLeastOneKey(t *testing.T) {
	fake := &fakeTransaction{}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	byIDs := fake.NodeReadByIDsFragment(srcVar, []string{"s1"}, nil)

	err := v.VisitRelChangeInput(context.Background(), srcVar, projectIssueSchema(), byIDs, "issues", projectIssueSchema(), gvalue.FromMap(map[string]gvalue.Value{}), txn.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagTypeNotExpected))
}

func TestVisitRelChangeInputDeleteCascades(t *testing.T) {
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "s1"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeTransaction{readRelsResult: []model.Rel{rel}, deleteRelsResult: 1}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	byIDs := fake.NodeReadByIDsFragment(srcVar, []string{"s1"}, nil)

	change := gvalue.FromMap(map[string]gvalue.Value{"DELETE": gvalue.FromMap(map[string]gvalue.Value{})})
	err := v.VisitRelChangeInput(context.Background(), srcVar, projectIssueSchema(), byIDs, "issues", projectIssueSchema(), change, txn.Options{})
	require.NoError(t, err)
	assert.Contains(t, fake.calls, "DeleteRels")
}

func TestVisitRelDeleteInputDeletesMatchedRels(t *testing.T) {
	rel := model.Rel{ID: "rel-1", RelName: "issues", Src: model.NodeRef{ID: "s1"}, Dst: model.NodeRef{ID: "d1"}}
	fake := &fakeTransaction{readRelsResult: []model.Rel{rel}, deleteRelsResult: 1}
	v := newTestVisitor(fake)
	srcVar := model.NewNodeQueryVar(strPtr("Project"), "n", "_0")
	srcFragment := fake.NodeReadByIDsFragment(srcVar, []string{"s1"}, nil)

	input := gvalue.FromMap(map[string]gvalue.Value{})
	err := v.VisitRelDeleteInput(context.Background(), srcVar, srcFragment, "issues", projectIssueSchema(), input, txn.Options{})
	require.NoError(t, err)
	assert.Contains(t, fake.calls, "DeleteRels")
}
