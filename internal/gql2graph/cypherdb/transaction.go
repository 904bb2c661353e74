package cypherdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/logging"
)

// state tags a Transaction's lifecycle position; only poisoned+finished
// transitions matter to callers, tracked here so queries and Commit fail
// with TransactionFinished once the transaction is poisoned or finished, and
// Rollback once it is finished (spec.md §4.2, §7).
type state int

const (
	stateUnstarted state = iota
	stateOpen
	statePoisoned
	stateFinished
)

// Transaction implements txn.Transaction against a single Neo4j session and
// explicit transaction. It is not safe for concurrent use (spec.md §5).
type Transaction struct {
	driver  neo4j.DriverWithContext
	session neo4j.SessionWithContext
	tx      neo4j.ExplicitTransaction
	logger  *logging.Logger
	state   state
}

// NewTransaction constructs a Transaction bound to driver; Begin must be
// called before any other operation.
func NewTransaction(driver neo4j.DriverWithContext, database string, mode neo4j.AccessMode, logger *logging.Logger) *Transaction {
	return &Transaction{
		driver: driver,
		session: driver.NewSession(context.Background(), neo4j.SessionConfig{
			AccessMode:   mode,
			DatabaseName: database,
		}),
		logger: logger,
	}
}

func (t *Transaction) checkOpen() error {
	if t.state == stateFinished || t.state == statePoisoned {
		return errors.TransactionFinished()
	}
	return nil
}

func (t *Transaction) poison(err error) error {
	t.state = statePoisoned
	if t.logger != nil {
		t.logger.Error("cypher transaction poisoned", "error", err)
	}
	return errors.DatabaseError(err, "cypher operation failed")
}

// Begin opens the explicit transaction.
func (t *Transaction) Begin(ctx context.Context) error {
	tx, err := t.session.BeginTransaction(ctx)
	if err != nil {
		return t.poison(err)
	}
	t.tx = tx
	t.state = stateOpen
	return nil
}

// Commit commits the explicit transaction and closes the session.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if err := t.tx.Commit(ctx); err != nil {
		return t.poison(err)
	}
	t.state = stateFinished
	return t.session.Close(ctx)
}

// Rollback rolls back the explicit transaction and closes the session. Valid
// from any state except already-finished.
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.state == stateFinished {
		return errors.TransactionFinished()
	}
	var rerr error
	if t.tx != nil {
		rerr = t.tx.Rollback(ctx)
	}
	t.state = stateFinished
	if cerr := t.session.Close(ctx); cerr != nil && rerr == nil {
		rerr = cerr
	}
	return rerr
}

func (t *Transaction) run(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if t.logger != nil {
		t.logger.Debug("cypher query", "query", query, "params", params)
	}
	result, err := t.tx.Run(ctx, query, params)
	if err != nil {
		return nil, t.poison(err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, t.poison(err)
	}
	return records, nil
}

// CreateNode implements txn.Transaction.CreateNode (spec.md §4.4).
func (t *Transaction) CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error) {
	label, err := nodeVar.Label()
	if err != nil {
		return model.Node{}, err
	}
	if !validIdentifier(label) || !validIdentifier(nodeVar.Name()) {
		return model.Node{}, errors.TypeNotExpected("invalid node label or variable name")
	}

	if props == nil {
		props = map[string]gvalue.Value{}
	}
	if _, ok := props["id"]; !ok {
		props["id"] = gvalue.FromUuid(model.NewID())
	}

	paramProps, err := propsToNeo4jParams(props)
	if err != nil {
		return model.Node{}, err
	}

	query := createNodeQueryText(nodeVar.Name(), label)
	records, err := t.run(ctx, query, map[string]any{"props": paramProps})
	if err != nil {
		return model.Node{}, err
	}
	if len(records) == 0 {
		return model.Node{}, errors.ResponseSetNotFound()
	}
	return decodeNode(records[0], nodeVar.Name(), label)
}

// CreateRels implements txn.Transaction.CreateRels (spec.md §4.4): matching
// src and dst via their fragments creates one rel per row of the Cartesian
// product; randomUUID() mints a distinct id per row unless the caller pins
// one via idOpt (spec.md §9, id-collision decision recorded in DESIGN.md).
func (t *Transaction) CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts txn.Options, sg *model.SuffixGenerator) ([]model.Rel, error) {
	if !validIdentifier(relVar.Name()) || !validIdentifier(relVar.Label()) {
		return nil, errors.TypeNotExpected("invalid rel variable name or label")
	}

	paramProps, err := propsToNeo4jParams(props)
	if err != nil {
		return nil, err
	}

	combined := srcFragment.And(dstFragment)
	params, err := propsMapToNeo4j(combined.Params)
	if err != nil {
		return nil, err
	}
	params["props"] = paramProps

	idExpr := "randomUUID()"
	if idOpt != nil {
		idExpr = "$relId"
		idv, cerr := toNeo4j(*idOpt)
		if cerr != nil {
			return nil, cerr
		}
		params["relId"] = idv
	}

	query := createRelsQueryText(combined.MatchFragment, combined.WhereFragment, relVar, idExpr)

	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}

	rels := make([]model.Rel, 0, len(records))
	for _, rec := range records {
		r, derr := decodeRelRow(rec, relVar)
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// UpdateNodes implements txn.Transaction.UpdateNodes: SET += $props merge
// semantics (spec.md §4.2).
func (t *Transaction) UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info) ([]model.Node, error) {
	label, err := nodeVar.Label()
	if err != nil {
		return nil, err
	}

	paramProps, err := propsToNeo4jParams(props)
	if err != nil {
		return nil, err
	}
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return nil, err
	}
	params["props"] = paramProps

	query := updateNodesQueryText(fragment.MatchFragment, fragment.WhereFragment, nodeVar.Name(), sortClause(opts, nodeVar.Name(), nodeVar.Name()))

	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(records))
	for _, rec := range records {
		n, derr := decodeNode(rec, nodeVar.Name(), label)
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// UpdateRels implements txn.Transaction.UpdateRels.
func (t *Transaction) UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	paramProps, err := propsToNeo4jParams(props)
	if err != nil {
		return nil, err
	}
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return nil, err
	}
	params["props"] = paramProps

	query := updateRelsQueryText(fragment.MatchFragment, fragment.WhereFragment, relVar)

	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(records))
	for _, rec := range records {
		r, derr := decodeRelRow(rec, relVar)
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// DeleteNodes implements txn.Transaction.DeleteNodes with DETACH DELETE
// (spec.md §4.2, §4.4).
func (t *Transaction) DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error) {
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return 0, err
	}
	query := deleteNodesQueryText(fragment.MatchFragment, fragment.WhereFragment, nodeVar.Name())
	records, err := t.run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	return decodeCount(records)
}

// DeleteRels implements txn.Transaction.DeleteRels.
func (t *Transaction) DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error) {
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return 0, err
	}
	query := deleteRelsQueryText(fragment.MatchFragment, fragment.WhereFragment, relVar.Name())
	records, err := t.run(ctx, query, params)
	if err != nil {
		return 0, err
	}
	return decodeCount(records)
}

// ReadNodes implements txn.Transaction.ReadNodes.
func (t *Transaction) ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts txn.Options, info schema.Info) ([]model.Node, error) {
	label, err := nodeVar.Label()
	if err != nil {
		return nil, err
	}
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return nil, err
	}
	query := readNodesQueryText(fragment.MatchFragment, fragment.WhereFragment, nodeVar.Name(), sortClause(opts, nodeVar.Name(), nodeVar.Name()))

	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(records))
	for _, rec := range records {
		n, derr := decodeNode(rec, nodeVar.Name(), label)
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ReadRels implements txn.Transaction.ReadRels.
func (t *Transaction) ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts txn.Options) ([]model.Rel, error) {
	params, err := propsMapToNeo4j(fragment.Params)
	if err != nil {
		return nil, err
	}
	query := readRelsQueryText(fragment.MatchFragment, fragment.WhereFragment, relVar, sortClause(opts, relVar.Name(), "dstNode"))

	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(records))
	for _, rec := range records {
		r, derr := decodeRelRow(rec, relVar)
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// LoadNodes implements txn.Transaction.LoadNodes: a single UNWIND-free IN
// match across every requested id, for the data-loader's N+1 coalescing
// (spec.md §4.6).
func (t *Transaction) LoadNodes(ctx context.Context, keys []txn.NodeLoadKey, info schema.Info) ([]model.Node, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ids := make([]any, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.ID)
	}
	query := loadNodesQueryText()
	records, err := t.run(ctx, query, map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(records))
	for _, rec := range records {
		n, derr := decodeNode(rec, "n", "")
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// LoadRels implements txn.Transaction.LoadRels: one UNION-ALL branch per
// (src_id, rel_name) key (spec.md §4.6).
func (t *Transaction) LoadRels(ctx context.Context, keys []txn.RelLoadKey) ([]model.Rel, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	branches := make([]string, 0, len(keys))
	params := map[string]any{}
	for i, k := range keys {
		srcParam := fmt.Sprintf("srcId%d", i)
		params[srcParam] = k.SrcID
		if !validIdentifier(k.RelName) {
			return nil, errors.TypeNotExpected("invalid rel name " + k.RelName)
		}
		branches = append(branches, loadRelsBranchText(i, srcParam, k.RelName))
	}
	query := strings.Join(branches, "\nUNION ALL\n")
	records, err := t.run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(records))
	for _, rec := range records {
		r, derr := decodeRelRowGeneric(rec)
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, r)
	}
	return rels, nil
}

// ExecuteQuery implements txn.Transaction.ExecuteQuery: a pass-through raw
// query for callers that need backend-native access (spec.md §4.2).
func (t *Transaction) ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (txn.QueryResult, error) {
	p, err := propsMapToNeo4j(params)
	if err != nil {
		return txn.QueryResult{}, err
	}
	records, err := t.run(ctx, query, p)
	if err != nil {
		return txn.QueryResult{}, err
	}
	rows := make([]map[string]gvalue.Value, 0, len(records))
	for _, rec := range records {
		row := map[string]gvalue.Value{}
		for i, key := range rec.Keys {
			v, derr := fromNeo4j(rec.Values[i])
			if derr != nil {
				return txn.QueryResult{}, derr
			}
			row[key] = v
		}
		rows = append(rows, row)
	}
	return txn.QueryResult{Rows: rows}, nil
}

func propsMapToNeo4j(m map[string]gvalue.Value) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		cv, err := toNeo4j(v)
		if err != nil {
			return nil, err
		}
		out[k] = cv
	}
	return out, nil
}
