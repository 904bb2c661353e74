package gremlindb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	gremlingo "github.com/apache/tinkerpop/gremlin-go/v3/driver"
	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
	"github.com/warpgrapher/gql2graph/internal/logging"
)

type txnState int

const (
	txnUnstarted txnState = iota
	txnOpen
	txnFinished
)

// Transaction implements txn.Transaction against a Gremlin server. It
// submits plain script text (built by the fragment/literal helpers) rather
// than the fluent traversal-source API, because the bindings-vs-literal
// choice is a property of the emitted text itself (spec.md §4.5).
type Transaction struct {
	client        *gremlingo.Client
	toggles       Toggles
	partitionKey  *string
	sessionID     string
	logger        *logging.Logger
	state         txnState
}

// NewTransaction constructs a Transaction bound to client, capturing the
// partition key from ctx when one is set. When toggles.Sessions is set,
// Begin mints a fresh session id into sessionID; submit sends every script
// through Submit/SubmitWithBindings without that id, so scripts are not
// scoped to a server-side session.
func NewTransaction(ctx context.Context, client *gremlingo.Client, toggles Toggles, logger *logging.Logger) *Transaction {
	t := &Transaction{client: client, toggles: toggles, logger: logger}
	if key, ok := partitionKeyFromContext(ctx); ok {
		t.partitionKey = &key
	}
	return t
}

func (t *Transaction) idOperand(id string) gvalue.Value {
	if t.toggles.LongIDs {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return gvalue.FromInt64(n)
		}
	}
	return gvalue.FromString(id)
}

func (t *Transaction) checkOpen() error {
	if t.state == txnFinished {
		return errors.TransactionFinished()
	}
	return nil
}

func (t *Transaction) requirePartitionKey() (string, error) {
	if !t.toggles.Partitions {
		return "", nil
	}
	if t.partitionKey == nil {
		return "", errors.PartitionKeyNotFound()
	}
	return *t.partitionKey, nil
}

func (t *Transaction) poison(err error) error {
	t.state = txnFinished
	if t.logger != nil {
		t.logger.Error("gremlin transaction poisoned", "error", err)
	}
	return errors.DatabaseError(err, "gremlin operation failed")
}

// Begin opens a session when Toggles.Sessions is set; sessionless mode has
// nothing to open and is a no-op beyond the state transition.
func (t *Transaction) Begin(ctx context.Context) error {
	if t.toggles.Sessions {
		t.sessionID = model.NewID()
	}
	t.state = txnOpen
	return nil
}

// Commit is a no-op for sessionless Gremlin (every script already committed
// on submit); with Toggles.Sessions set it submits `g.tx().commit()` as a
// plain script, without a session id.
func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.toggles.Sessions {
		if _, err := t.submit(ctx, "g.tx().commit()", nil); err != nil {
			return err
		}
	}
	t.state = txnFinished
	return nil
}

// Rollback submits `g.tx().rollback()` when Toggles.Sessions is set (as a
// plain script, like Commit); sessionless mode has
// nothing transactional to undo, matching spec.md §9 "Sessions" — the
// Gremlin dialect only approximates transactions via sessions.
func (t *Transaction) Rollback(ctx context.Context) error {
	if t.state == txnFinished {
		return errors.TransactionFinished()
	}
	if t.toggles.Sessions {
		_, _ = t.submit(ctx, "g.tx().rollback()", nil)
	}
	t.state = txnFinished
	return nil
}

func (t *Transaction) submit(ctx context.Context, script string, bindings map[string]any) ([]*gremlingo.Result, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	if t.logger != nil {
		t.logger.Debug("gremlin script", "script", script, "bindings", bindings)
	}

	var resultSet gremlingo.ResultSet
	var err error
	if bindings != nil {
		resultSet, err = t.client.SubmitWithBindings(script, bindings)
	} else {
		resultSet, err = t.client.Submit(script)
	}
	if err != nil {
		return nil, t.poison(err)
	}
	results, err := resultSet.All()
	if err != nil {
		return nil, t.poison(err)
	}
	return results, nil
}

func bindingsFromParams(params map[string]gvalue.Value) (map[string]any, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		bv, err := toGremlinBinding(v)
		if err != nil {
			return nil, err
		}
		out[k] = bv
	}
	return out, nil
}

func partitionBinding(partitionKey string) map[string]any {
	if partitionKey == "" {
		return nil
	}
	return map[string]any{"partitionKey": partitionKey}
}

// propertyChain renders one `.property('k', v)` step per scalar prop, array
// values dropped-then-appended in literal mode or emitted as one bind per
// element in bindings mode (spec.md §4.5, "Node create").
func (t *Transaction) propertyChain(suffix string, props map[string]gvalue.Value) (string, map[string]any, error) {
	var b strings.Builder
	bindings := map[string]any{}
	for k, v := range props {
		if !validIdentifier(k) {
			return "", nil, errors.TypeNotExpected("invalid property name " + k)
		}
		if v.Kind == gvalue.KindArray {
			if t.toggles.Bindings {
				for i, e := range v.Array {
					key := bindKey(suffix, k, i)
					bv, err := toGremlinBinding(e)
					if err != nil {
						return "", nil, err
					}
					bindings[key] = bv
					b.WriteString(fmt.Sprintf(".property(list, '%s', %s)", k, key))
				}
			} else {
				for _, e := range v.Array {
					lit, err := propertyLiteral(e)
					if err != nil {
						return "", nil, err
					}
					b.WriteString(fmt.Sprintf(".property(list, '%s', %s)", k, lit))
				}
			}
			continue
		}
		if t.toggles.Bindings {
			key := bindKey(suffix, k, -1)
			bv, err := toGremlinBinding(v)
			if err != nil {
				return "", nil, err
			}
			bindings[key] = bv
			b.WriteString(fmt.Sprintf(".property('%s', %s)", k, key))
		} else {
			lit, err := propertyLiteral(v)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(fmt.Sprintf(".property('%s', %s)", k, lit))
		}
	}
	return b.String(), bindings, nil
}

const nodeProjection = ".project('id','label','props').by(id()).by(label()).by(valueMap())"
const relProjection = ".project('rID','rProps','srcID','srcLabel','dstID','dstLabel').by(id()).by(valueMap()).by(outV().id()).by(outV().label()).by(inV().id()).by(inV().label())"

// CreateNode implements txn.Transaction.CreateNode.
func (t *Transaction) CreateNode(ctx context.Context, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info, sg *model.SuffixGenerator) (model.Node, error) {
	label, err := nodeVar.Label()
	if err != nil {
		return model.Node{}, err
	}
	if !validIdentifier(label) {
		return model.Node{}, errors.TypeNotExpected("invalid node label " + label)
	}

	partitionKey, err := t.requirePartitionKey()
	if err != nil {
		return model.Node{}, err
	}

	if props == nil {
		props = map[string]gvalue.Value{}
	}
	if _, ok := props["id"]; !ok {
		props["id"] = gvalue.FromUuid(model.NewID())
	}

	propChain, bindings, err := t.propertyChain(nodeVar.Suf, props)
	if err != nil {
		return model.Node{}, err
	}

	script := fmt.Sprintf("g.addV('%s')%s", label, propChain)
	if partitionKey != "" {
		script += ".property('partitionKey', partitionKey)"
		if bindings == nil {
			bindings = map[string]any{}
		}
		bindings["partitionKey"] = partitionKey
	}
	script += nodeProjection

	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return model.Node{}, err
	}
	if len(results) == 0 {
		return model.Node{}, errors.ResponseSetNotFound()
	}
	row, err := projectedNodeRow(results[0])
	if err != nil {
		return model.Node{}, err
	}
	return decodeNodeRow(row, info)
}

// CreateRels implements txn.Transaction.CreateRels: `g.V()<src>.as('s').V()
// <dst>.as('d').addE('<Rel>').from('s').to('d')` — chaining two independent
// V() sub-traversals multiplies traversers across the Cartesian product of
// matched src and dst vertices (spec.md §4.4's contract, realized here the
// Gremlin way).
func (t *Transaction) CreateRels(ctx context.Context, srcFragment, dstFragment model.QueryFragment, relVar model.RelQueryVar, idOpt *gvalue.Value, props map[string]gvalue.Value, opts txn.Options, sg *model.SuffixGenerator) ([]model.Rel, error) {
	if !validIdentifier(relVar.Label()) {
		return nil, errors.TypeNotExpected("invalid rel label " + relVar.Label())
	}

	partitionKey, err := t.requirePartitionKey()
	if err != nil {
		return nil, err
	}

	srcBindings, err := bindingsFromParams(srcFragment.Params)
	if err != nil {
		return nil, err
	}
	dstBindings, err := bindingsFromParams(dstFragment.Params)
	if err != nil {
		return nil, err
	}

	propChain, propBindings, err := t.propertyChain(relVar.Suf, props)
	if err != nil {
		return nil, err
	}
	if idOpt != nil {
		idLit, ierr := propertyLiteral(*idOpt)
		if ierr != nil {
			return nil, ierr
		}
		propChain += fmt.Sprintf(".property(id, %s)", idLit)
	}

	script := fmt.Sprintf("g.V()%s.as('s').V()%s.as('d').addE('%s').from('s').to('d')%s",
		srcFragment.WhereFragment, dstFragment.WhereFragment, relVar.Label(), propChain)
	if partitionKey != "" {
		script += ".property('partitionKey', partitionKey)"
	}
	script += relProjection

	bindings := mergeBindings(srcBindings, dstBindings, propBindings, partitionBinding(partitionKey))
	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}

	rels := make([]model.Rel, 0, len(results))
	for _, r := range results {
		row, derr := projectedRelRow(r)
		if derr != nil {
			return nil, derr
		}
		rel, derr := decodeRelRow(row, relVar.Label())
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// UpdateNodes implements txn.Transaction.UpdateNodes.
func (t *Transaction) UpdateNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar, props map[string]gvalue.Value, opts txn.Options, info schema.Info) ([]model.Node, error) {
	label, err := nodeVar.Label()
	if err != nil {
		return nil, err
	}
	partitionKey, err := t.requirePartitionKey()
	if err != nil {
		return nil, err
	}

	fragBindings, err := bindingsFromParams(fragment.Params)
	if err != nil {
		return nil, err
	}
	propChain, propBindings, err := t.propertyChain(nodeVar.Suf, props)
	if err != nil {
		return nil, err
	}

	script := fmt.Sprintf("g.V()%s%s%s", fragment.WhereFragment, propChain, nodeProjection)
	bindings := mergeBindings(fragBindings, propBindings, partitionBinding(partitionKey))

	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(results))
	for _, r := range results {
		row, derr := projectedNodeRow(r)
		if derr != nil {
			return nil, derr
		}
		if row.Label == "" {
			row.Label = label
		}
		n, derr := decodeNodeRow(row, info)
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// UpdateRels implements txn.Transaction.UpdateRels.
func (t *Transaction) UpdateRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, props map[string]gvalue.Value, opts txn.Options) ([]model.Rel, error) {
	partitionKey, err := t.requirePartitionKey()
	if err != nil {
		return nil, err
	}
	fragBindings, err := bindingsFromParams(fragment.Params)
	if err != nil {
		return nil, err
	}
	propChain, propBindings, err := t.propertyChain(relVar.Suf, props)
	if err != nil {
		return nil, err
	}

	script := fmt.Sprintf("g.E()%s%s%s", fragment.WhereFragment, propChain, relProjection)
	bindings := mergeBindings(fragBindings, propBindings, partitionBinding(partitionKey))

	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(results))
	for _, r := range results {
		row, derr := projectedRelRow(r)
		if derr != nil {
			return nil, derr
		}
		rel, derr := decodeRelRow(row, relVar.Label())
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// DeleteNodes implements txn.Transaction.DeleteNodes via `.sideEffect(drop())
// .count()` (spec.md §4.5).
func (t *Transaction) DeleteNodes(ctx context.Context, fragment model.QueryFragment, nodeVar model.NodeQueryVar) (int, error) {
	return t.deleteCount(ctx, "g.V()", fragment)
}

// DeleteRels implements txn.Transaction.DeleteRels.
func (t *Transaction) DeleteRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar) (int, error) {
	return t.deleteCount(ctx, "g.E()", fragment)
}

func (t *Transaction) deleteCount(ctx context.Context, root string, fragment model.QueryFragment) (int, error) {
	bindings, err := bindingsFromParams(fragment.Params)
	if err != nil {
		return 0, err
	}
	script := fmt.Sprintf("%s%s.sideEffect(drop()).count()", root, fragment.WhereFragment)
	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return countFromResult(results[0])
}

// ReadNodes implements txn.Transaction.ReadNodes.
func (t *Transaction) ReadNodes(ctx context.Context, nodeVar model.NodeQueryVar, fragment model.QueryFragment, opts txn.Options, info schema.Info) ([]model.Node, error) {
	label, _ := nodeVar.Label()
	bindings, err := bindingsFromParams(fragment.Params)
	if err != nil {
		return nil, err
	}
	order, err := orderSteps(opts)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("g.V()%s.dedup()%s%s", fragment.WhereFragment, order, nodeProjection)
	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(results))
	for _, r := range results {
		row, derr := projectedNodeRow(r)
		if derr != nil {
			return nil, derr
		}
		if row.Label == "" {
			row.Label = label
		}
		n, derr := decodeNodeRow(row, info)
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ReadRels implements txn.Transaction.ReadRels.
func (t *Transaction) ReadRels(ctx context.Context, fragment model.QueryFragment, relVar model.RelQueryVar, opts txn.Options) ([]model.Rel, error) {
	bindings, err := bindingsFromParams(fragment.Params)
	if err != nil {
		return nil, err
	}
	order, err := orderSteps(opts)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("g.E()%s.dedup()%s%s", fragment.WhereFragment, order, relProjection)
	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(results))
	for _, r := range results {
		row, derr := projectedRelRow(r)
		if derr != nil {
			return nil, derr
		}
		rel, derr := decodeRelRow(row, relVar.Label())
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// LoadNodes implements txn.Transaction.LoadNodes for the data-loader's N+1
// coalescing: one hasId(within(...)) call across every requested id.
func (t *Transaction) LoadNodes(ctx context.Context, keys []txn.NodeLoadKey, info schema.Info) ([]model.Node, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k.ID)
	}
	steps, bindings, err := t.idsSteps("_load", ids)
	if err != nil {
		return nil, err
	}
	b, err := bindingsFromParams(bindings)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("g.V()%s%s", steps, nodeProjection)
	results, err := t.submit(ctx, script, b)
	if err != nil {
		return nil, err
	}
	nodes := make([]model.Node, 0, len(results))
	for _, r := range results {
		row, derr := projectedNodeRow(r)
		if derr != nil {
			return nil, derr
		}
		n, derr := decodeNodeRow(row, info)
		if derr != nil {
			return nil, derr
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// LoadRels implements txn.Transaction.LoadRels: one UNION-style fan-in
// realized in Gremlin as a `.union(...)` of one outE('<relName>') traversal
// per (src_id, rel_name) key (spec.md §4.6).
func (t *Transaction) LoadRels(ctx context.Context, keys []txn.RelLoadKey) ([]model.Rel, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	branches := make([]string, 0, len(keys))
	bindings := map[string]any{}
	for i, k := range keys {
		if !validIdentifier(k.RelName) {
			return nil, errors.TypeNotExpected("invalid rel name " + k.RelName)
		}
		idOperand := t.idOperand(k.SrcID)
		key := fmt.Sprintf("srcId%d", i)
		bv, err := toGremlinBinding(idOperand)
		if err != nil {
			return nil, err
		}
		bindings[key] = bv
		branches = append(branches, fmt.Sprintf("__.V(%s).outE('%s')", key, k.RelName))
	}
	script := fmt.Sprintf("g.union(%s)%s", strings.Join(branches, ", "), relProjection)
	results, err := t.submit(ctx, script, bindings)
	if err != nil {
		return nil, err
	}
	rels := make([]model.Rel, 0, len(results))
	for _, r := range results {
		row, derr := projectedRelRow(r)
		if derr != nil {
			return nil, derr
		}
		rel, derr := decodeRelRow(row, "")
		if derr != nil {
			return nil, derr
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// ExecuteQuery implements txn.Transaction.ExecuteQuery: a raw script
// pass-through, results returned as one row per top-level Gremlin result.
func (t *Transaction) ExecuteQuery(ctx context.Context, query string, params map[string]gvalue.Value) (txn.QueryResult, error) {
	bindings, err := bindingsFromParams(params)
	if err != nil {
		return txn.QueryResult{}, err
	}
	results, err := t.submit(ctx, query, bindings)
	if err != nil {
		return txn.QueryResult{}, err
	}
	rows := make([]map[string]gvalue.Value, 0, len(results))
	for _, r := range results {
		raw, ok := r.GetInterface().(map[string]any)
		if !ok {
			continue
		}
		row := map[string]gvalue.Value{}
		for k, v := range raw {
			cv, cerr := fromGremlinScalar(v)
			if cerr != nil {
				return txn.QueryResult{}, cerr
			}
			row[k] = cv
		}
		rows = append(rows, row)
	}
	return txn.QueryResult{Rows: rows}, nil
}

func mergeBindings(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
