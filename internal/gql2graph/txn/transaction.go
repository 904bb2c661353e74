// Package txn declares the backend-agnostic Transaction contract (spec.md
// §4.2): the abstract capability set that both the Cypher and Gremlin
// dialects implement, and that the visitor pipeline is written against.
package txn

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
)

// QueryResult carries a raw execute_query response in whichever shape the
// backend natively returns it; callers that need structure decode further
// themselves (spec.md §4.2, execute_query).
type QueryResult struct {
	// Rows holds one map per returned record/GValue-map, field name to Value.
	Rows []map[string]gvalue.Value
}

// Transaction is a stateful handle bound to one backend connection. It is not
// safely shared across parallel tasks (spec.md §5): it is exclusively owned
// for the duration of one top-level GraphQL operation. After any operation
// fails, the transaction is poisoned and only Rollback is valid.
type Transaction interface {
	// Mutating operations.
	Begin(ctx context.Context) error
	CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error)
	// CreateRels creates a rel for each pair in the Cartesian product of rows
	// matched by srcFragment and dstFragment. idOpt, when non-nil, pins every
	// created rel's id instead of synthesizing one per spec.md §9's
	// id-collision resolution: the caller (visitor layer) is responsible for
	// minting a fresh id per fan-out element when idOpt is supplied, via sg.
	CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts Options, sg *model.SuffixGenerator) ([]model.Rel, error)
	UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts Options, info schema.Info) ([]model.Node, error)
	UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts Options) ([]model.Rel, error)
	DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error)
	DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Reading operations.
	ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts Options, info schema.Info) ([]model.Node, error)
	ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts Options) ([]model.Rel, error)
	LoadNodes(ctx context.Context, keys []NodeLoadKey, info schema.Info) ([]model.Node, error)
	LoadRels(ctx context.Context, keys []RelLoadKey) ([]model.Rel, error)
	ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (QueryResult, error)

	// Fragment-building operations. Pure with respect to the database: they
	// only assemble match/where text and parameters.
	NodeReadFragment(nodeVar model.NodeQueryVar, comparisons []NamedComparison, rel []model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment
	NodeReadByIDsFragment(nodeVar model.NodeQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment
	RelReadFragment(relVar model.RelQueryVar, comparisons []NamedComparison, src, dst *model.QueryFragment, sg *model.SuffixGenerator) model.QueryFragment
	RelReadByIDsFragment(relVar model.RelQueryVar, ids []string, sg *model.SuffixGenerator) model.QueryFragment
}

// NamedComparison pairs a property name with the Comparison to apply to it,
// the shape visit_node_query_input/visit_rel_query_input build before handing
// off to a fragment builder.
type NamedComparison struct {
	Property string
	model.Comparison
}

// NodeLoadKey is the per-request batching key for NodeLoader (spec.md §4.6).
type NodeLoadKey struct {
	ID      string
	Options Options
}

// RelLoadKey is the per-request batching key for RelLoader (spec.md §4.6).
type RelLoadKey struct {
	SrcID   string
	RelName string
	Options Options
}
