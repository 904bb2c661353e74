// Package visitor implements the recursive-descent pipeline that lowers a
// GraphQL input tree into backend-agnostic query fragments and materialized
// results (spec.md §4.1). Visitors are plan-building: they never emit dialect
// text themselves, only calling back into the bound txn.Transaction for that.
package visitor

import (
	"strings"

	"github.com/warpgrapher/gql2graph/internal/errors"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/schema"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/txn"
)

// Validator validates a node or rel's raw scalar property map; returning an
// error aborts the enclosing operation.
type Validator func(props map[string]gvalue.Value) error

// Engine bundles everything a visitor call needs beyond the
// input/schema/transaction triple threaded through every function: the
// validator registry and the event-handler registry (spec.md §4.1, §5).
type Engine struct {
	Validators map[string]Validator
	Handlers   *txn.EventHandlers
}

// NewEngine returns an Engine with empty registries.
func NewEngine() *Engine {
	return &Engine{Validators: map[string]Validator{}, Handlers: txn.NewEventHandlers()}
}

// Visitor carries the per-call context threaded through the recursive
// pipeline: the bound transaction, the shared suffix generator (one per
// top-level operation), the opaque request context, and the owning Engine.
type Visitor struct {
	Engine *Engine
	Tx     txn.Transaction
	SG     *model.SuffixGenerator
	RCtx   txn.RequestContext
}

// NewVisitor constructs a Visitor for one top-level operation.
func NewVisitor(engine *Engine, tx txn.Transaction, rctx txn.RequestContext) *Visitor {
	return &Visitor{Engine: engine, Tx: tx, SG: model.NewSuffixGenerator(), RCtx: rctx}
}

// ValidateInput looks up a validator by name and runs it, failing with
// ValidatorNotFound if the schema declared one that isn't registered
// (spec.md §4.1, "Fails with ... ValidatorNotFound").
func (v *Visitor) ValidateInput(name string, props map[string]gvalue.Value) error {
	fn, ok := v.Engine.Validators[name]
	if !ok {
		return errors.ValidatorNotFound(name)
	}
	return fn(props)
}

// inputMap extracts a Value's Map form or fails TypeNotExpected, the
// recurring first step of nearly every visitor function.
func inputMap(v gvalue.Value) (map[string]gvalue.Value, error) {
	if v.Kind != gvalue.KindMap {
		return nil, errors.TypeNotExpected("expected input object")
	}
	return v.Map, nil
}

// requireKey extracts a required key from an input map or fails
// InputItemNotFound, named the way the original engine names its missing-key
// errors (e.g. "input::SET").
func requireKey(m map[string]gvalue.Value, typeName, key string) (gvalue.Value, error) {
	val, ok := m[key]
	if !ok {
		return gvalue.Value{}, errors.InputItemNotFound(typeName + "::" + key)
	}
	return val, nil
}

// relLabel computes the fully-qualified rel label used for event-handler
// dispatch and, on the Cypher backend, the edge type: <SrcLabel><RelName
// titlecased>Rel (spec.md §4.1, visit_rel_create_input).
func relLabel(srcLabel, relName string) string {
	return srcLabel + titleCase(relName) + "Rel"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	parts := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// partitionByKind splits an input map into scalar-ish properties (anything
// whose schema.PropertyKind is not Input) and nested input properties, per
// the schema TypeDef describing this input shape. This is the partitioning
// step every *_mutation_input visitor performs first (spec.md §4.1).
func partitionByKind(td schema.TypeDef, m map[string]gvalue.Value) (scalars map[string]gvalue.Value, inputs map[string]gvalue.Value, err error) {
	scalars = map[string]gvalue.Value{}
	inputs = map[string]gvalue.Value{}
	for k, val := range m {
		prop, perr := td.Property(k)
		if perr != nil {
			return nil, nil, errors.SchemaItemNotFound(k)
		}
		switch prop.Kind() {
		case schema.PropertyKindInput:
			inputs[k] = val
		default:
			scalars[k] = val
		}
	}
	return scalars, inputs, nil
}

// newNodeVar mints a fresh NodeQueryVar ("n" + next suffix) labeled with
// typeName.
func newNodeVar(sg *model.SuffixGenerator, typeName string) model.NodeQueryVar {
	return model.NewNodeQueryVar(&typeName, "n", sg.Suffix())
}

// newRelVar mints a fresh RelQueryVar for a rel between src and dst.
func newRelVar(sg *model.SuffixGenerator, label string, src, dst model.NodeQueryVar) model.RelQueryVar {
	return model.NewRelQueryVar(label, sg.Suffix(), src, dst)
}

func sortFromValue(v gvalue.Value) (txn.Options, error) {
	if v.IsNull() {
		return txn.Options{}, nil
	}
	m, err := inputMap(v)
	if err != nil {
		return txn.Options{}, err
	}
	raw, ok := m["sort"]
	if !ok || raw.IsNull() {
		return txn.Options{}, nil
	}
	arr, err := raw.AsArray()
	if err != nil {
		return txn.Options{}, err
	}
	entries := make([]txn.SortEntry, 0, len(arr))
	for _, e := range arr {
		em, err := inputMap(e)
		if err != nil {
			return txn.Options{}, err
		}
		orderBy, err := requireKey(em, "SortInput", "orderBy")
		if err != nil {
			return txn.Options{}, err
		}
		prop, err := orderBy.AsString()
		if err != nil {
			return txn.Options{}, err
		}
		dstProp := false
		if strings.HasPrefix(prop, "dst:") {
			dstProp = true
			prop = strings.TrimPrefix(prop, "dst:")
		}
		dir := txn.Ascending
		if dv, ok := em["direction"]; ok {
			ds, err := dv.AsString()
			if err != nil {
				return txn.Options{}, err
			}
			if ds == "descending" {
				dir = txn.Descending
			}
		}
		entries = append(entries, txn.SortEntry{Property: prop, DstProperty: dstProp, Direction: dir})
	}
	return txn.NewOptions(entries), nil
}
