package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/visitor"
)

// stubTransaction implements just enough of txn.Transaction for the
// lifecycle and dispatch tests below; every unused method panics if called,
// surfacing a wiring mistake immediately rather than silently no-opping.
type stubTransaction struct {
	beginErr, commitErr, rollbackErr error
	rollbackCalled, commitCalled     bool
}

func (s *stubTransaction) Begin(ctx context.Context) error { return s.beginErr }
func (s *stubTransaction) Commit(ctx context.Context) error {
	s.commitCalled = true
	return s.commitErr
}
func (s *stubTransaction) Rollback(ctx context.Context) error {
	s.rollbackCalled = true
	return s.rollbackErr
}

func (s *stubTransaction) CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error) {
	panic("not used")
}
func (s *stubTransaction) CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts txn.Options, sg *model.SuffixGenerator) ([]model.Rel, error) {
	panic("not used")
}
func (s *stubTransaction) UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info) ([]model.Node, error) {
	panic("not used")
}
func (s *stubTransaction) UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	panic("not used")
}
func (s *stubTransaction) DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error) {
	panic("not used")
}
func (s *stubTransaction) DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error) {
	panic("not used")
}
func (s *stubTransaction) ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts txn.Options, info schema.Info) ([]model.Node, error) {
	return nil, nil
}
func (s *stubTransaction) ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts txn.Options) ([]model.Rel, error) {
	return nil, nil
}
func (s *stubTransaction) LoadNodes(ctx context.Context, keys []txn.NodeLoadKey, info schema.Info) ([]model.Node, error) {
	panic("not used")
}
func (s *stubTransaction) LoadRels(ctx context.Context, keys []txn.RelLoadKey) ([]model.Rel, error) {
	panic("not used")
}
func (s *stubTransaction) ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (txn.QueryResult, error) {
	panic("not used")
}
func (s *stubTransaction) NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []txn.NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	return model.QueryFragment{}
}
func (s *stubTransaction) NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.QueryFragment{}
}
func (s *stubTransaction) RelReadFragment(relVar model.RelQueryVar, comparisons []txn.NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment {
	return model.QueryFragment{}
}
func (s *stubTransaction) RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment {
	return model.QueryFragment{}
}

type stubPool struct {
	tx        *stubTransaction
	poolErr   error
	isReadTxn bool
}

func (p *stubPool) Transaction(ctx context.Context) (txn.Transaction, error) {
	if p.poolErr != nil {
		return nil, p.poolErr
	}
	return p.tx, nil
}
func (p *stubPool) ReadTransaction(ctx context.Context) (txn.Transaction, error) {
	return p.Transaction(ctx)
}
func (p *stubPool) Close() error { return nil }

func TestResolveScalarHappyPath(t *testing.T) {
	r := &FieldResolver{}
	node := model.NewNode("Project", map[string]gvalue.Value{"name": gvalue.FromString("acme")})
	val, err := r.ResolveScalar(node, "name")
	require.NoError(t, err)
	s, _ := val.AsString()
	assert.Equal(t, "acme", s)
}

func TestResolveScalarMissingFieldFails(t *testing.T) {
	r := &FieldResolver{}
	node := model.NewNode("Project", map[string]gvalue.Value{})
	_, err := r.ResolveScalar(node, "missing")
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagSchemaItemNotFound))
}

func TestResolveCustomUnregisteredFails(t *testing.T) {
	r := NewFieldResolver(NewRegistry(), nil)
	_, err := r.ResolveCustom(context.Background(), "doesNotExist", Facade{})
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagValidatorNotFound))
}

func TestResolveCustomDispatchesRegisteredResolver(t *testing.T) {
	reg := NewRegistry()
	reg.Custom["echo"] = func(ctx context.Context, f Facade) (CustomResult, error) {
		return CustomResult{Value: f.Input}, nil
	}
	r := NewFieldResolver(reg, nil)
	result, err := r.ResolveCustom(context.Background(), "echo", Facade{Input: gvalue.FromString("hi")})
	require.NoError(t, err)
	s, _ := result.Value.AsString()
	assert.Equal(t, "hi", s)
}

func TestResolveMutationUnknownVariantFails(t *testing.T) {
	v := visitor.NewVisitor(visitor.NewEngine(), &stubTransaction{}, nil)
	r := NewFieldResolver(NewRegistry(), v)
	_, err := r.ResolveMutation(context.Background(), MutationVariant(99), model.NodeQueryVar{}, model.RelQueryVar{}, "Project", "issues", nil, nil, gvalue.Null(), txn.Options{})
	require.Error(t, err)
	assert.True(t, errors.HasTag(err, errors.TagTypeNotExpected))
}

func TestRunMutationCommitsOnSuccess(t *testing.T) {
	tx := &stubTransaction{}
	pool := &stubPool{tx: tx}
	result, err := RunMutation(context.Background(), pool, func(ctx context.Context, tx txn.Transaction) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.True(t, tx.commitCalled)
	assert.False(t, tx.rollbackCalled)
}

func TestRunMutationRollsBackOnError(t *testing.T) {
	tx := &stubTransaction{}
	pool := &stubPool{tx: tx}
	boom := errors.TypeNotExpected("boom")
	_, err := RunMutation(context.Background(), pool, func(ctx context.Context, tx txn.Transaction) (interface{}, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.True(t, tx.rollbackCalled)
	assert.False(t, tx.commitCalled)
}

func TestRunReadRollsBackOnError(t *testing.T) {
	tx := &stubTransaction{}
	pool := &stubPool{tx: tx}
	boom := errors.TypeNotExpected("boom")
	_, err := RunRead(context.Background(), pool, func(ctx context.Context, tx txn.Transaction) (interface{}, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.True(t, tx.rollbackCalled)
}
