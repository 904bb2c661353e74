package visitor

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// fakeTransaction is an in-memory txn.Transaction double: fragment-building
// methods are pure and return the real QueryFragment shape; execution
// methods are driven by canned results/errors so each visitor test can
// script exactly the backend response it needs without a live driver.
type fakeTransaction struct {
	createNodeResult model.Node
	createNodeErr    error

	readNodesResult []model.Node
	readNodesErr    error

	updateNodesResult []model.Node
	updateNodesErr    error

	deleteNodesResult int
	deleteNodesErr    error

	createRelsResult []model.Rel
	createRelsErr    error

	readRelsResult []model.Rel
	readRelsErr    error

	updateRelsResult []model.Rel
	updateRelsErr    error

	deleteRelsResult int
	deleteRelsErr    error

	calls []string
}

func (f *fakeTransaction) Begin(ctx context.Context) error    { return nil }
func (f *fakeTransaction) Commit(ctx context.Context) error   { return nil }
func (f *fakeTransaction) Rollback(ctx context.Context) error { return nil }

func (f *fakeTransaction) CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error) {
	f.calls = append(f.calls, "CreateNode")
	return f.createNodeResult, f.createNodeErr
}

func (f *fakeTransaction) CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts txn.Options, sg *model.SuffixGenerator) ([]model.Rel, error) {
	f.calls = append(f.calls, "CreateRels")
	return f.createRelsResult, f.createRelsErr
}

func (f *fakeTransaction) UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info) ([]model.Node, error) {
	f.calls = append(f.calls, "UpdateNodes")
	return f.updateNodesResult, f.updateNodesErr
}

func (f *fakeTransaction) UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	f.calls = append(f.calls, "UpdateRels")
	return f.updateRelsResult, f.updateRelsErr
}

func (f *fakeTransaction) DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error) {
	f.calls = append(f.calls, "DeleteNodes")
	return f.deleteNodesResult, f.deleteNodesErr
}

func (f *fakeTransaction) DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error) {
	f.calls = append(f.calls, "DeleteRels")
	return f.deleteRelsResult, f.deleteRelsErr
}

func (f *fakeTransaction) ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts txn.Options, info schema.Info) ([]model.Node, error) {
	f.calls = append(f.calls, "ReadNodes")
	return f.readNodesResult, f.readNodesErr
}

func (f *fakeTransaction) ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts txn.Options) ([]model.Rel, error) {
	f.calls = append(f.calls, "ReadRels")
	return f.readRelsResult, f.readRelsErr
}

func (f *fakeTransaction) LoadNodes(ctx context.Context, keys []txn.NodeLoadKey, info schema.Info) ([]model.Node, error) {
	return nil, nil
}

func (f *fakeTransaction) LoadRels(ctx context.Context, keys []txn.RelLoadKey) ([]model.Rel, error) {
	return nil, nil
}

func (f *fakeTransaction) ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (txn.QueryResult, error) {
	return txn.QueryResult{}, nil
}

func (f *fakeTransaction) NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []txn.NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	params := map[string]gvalue.Value{}
	frag := model.NewQueryFragment("MATCH ("+nodeVar.Name()+")\n", "", params)
	for _, c := range comparisons {
		frag = frag.And(model.NewQueryFragment("", c.Property+"=?", params))
	}
	for _, r := range rel {
		frag = frag.And(r)
	}
	return frag
}

func (f *fakeTransaction) NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("MATCH ("+nodeVar.Name()+")\n", nodeVar.Name()+".id IN $ids", map[string]gvalue.Value{
		"ids": gvalue.FromArray(stringsToValues(ids)),
	})
}

func (f *fakeTransaction) RelReadFragment(relVar model.RelQueryVar, comparisons []txn.NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("MATCH ()-["+relVar.Name()+"]->()\n", "", map[string]gvalue.Value{})
}

func (f *fakeTransaction) RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.NewQueryFragment("", relVar.Name()+".id IN $ids", map[string]gvalue.Value{
		"ids": gvalue.FromArray(stringsToValues(ids)),
	})
}

func stringsToValues(ss []string) []gvalue.Value {
	out := make([]gvalue.Value, 0, len(ss))
	for _, s := range ss {
		out = append(out, gvalue.FromString(s))
	}
	return out
}
