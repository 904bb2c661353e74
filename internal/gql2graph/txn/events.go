package txn

import (
	"context"

	"github.com/warpgrapher/gql2graph/internal/gql2graph/gvalue"
	"github.com/warpgrapher/gql2graph/internal/gql2graph/model"
)

// CrudOperation tags which verb an event handler fires around, used for
// dispatch and for logging/metadata (spec.md §5, "before_*/after_* handlers").
type CrudOperation int

const (
	OpCreateNode CrudOperation = iota
	OpReadNode
	OpUpdateNode
	OpDeleteNode
	OpCreateRel
	OpReadRel
	OpUpdateRel
	OpDeleteRel
)

// RequestContext is the opaque, user-chosen per-request collaborator (spec.md
// §6); the core only threads it through to event handlers and custom
// resolvers, never inspecting it itself.
type RequestContext interface{}

// BeforeNodeHandler runs before a node mutation's database call; it may
// rewrite the raw input. An error aborts the operation (rollback).
type BeforeNodeHandler func(ctx context.Context, typeName string, input gvalue.Value, rctx RequestContext) (gvalue.Value, error)

// AfterNodeHandler runs after a node mutation's result is materialized but
// before commit. An error aborts the operation (rollback).
type AfterNodeHandler func(ctx context.Context, typeName string, result []model.Node, rctx RequestContext) ([]model.Node, error)

// BeforeRelHandler and AfterRelHandler mirror the node handlers for rel
// mutations, keyed by the fully-qualified rel label
// (<SrcLabel><RelName titlecased>Rel).
type BeforeRelHandler func(ctx context.Context, relLabel string, input gvalue.Value, rctx RequestContext) (gvalue.Value, error)
type AfterRelHandler func(ctx context.Context, relLabel string, result []model.Rel, rctx RequestContext) ([]model.Rel, error)

// EventHandlers is the registry the engine config supplies to the visitor
// pipeline. Handlers for a given key run in registration order and are
// synchronous with respect to one another (spec.md §5).
type EventHandlers struct {
	BeforeNodeCreate map[string][]BeforeNodeHandler
	AfterNodeCreate  map[string][]AfterNodeHandler
	BeforeNodeUpdate map[string][]BeforeNodeHandler
	AfterNodeUpdate  map[string][]AfterNodeHandler
	BeforeNodeDelete map[string][]BeforeNodeHandler
	AfterNodeDelete  map[string][]AfterNodeHandler

	BeforeRelCreate map[string][]BeforeRelHandler
	AfterRelCreate  map[string][]AfterRelHandler
	BeforeRelUpdate map[string][]BeforeRelHandler
	AfterRelUpdate  map[string][]AfterRelHandler
	BeforeRelDelete map[string][]BeforeRelHandler
	AfterRelDelete  map[string][]AfterRelHandler
}

// NewEventHandlers returns an EventHandlers with all maps initialized empty.
func NewEventHandlers() *EventHandlers {
	return &EventHandlers{
		BeforeNodeCreate: map[string][]BeforeNodeHandler{},
		AfterNodeCreate:  map[string][]AfterNodeHandler{},
		BeforeNodeUpdate: map[string][]BeforeNodeHandler{},
		AfterNodeUpdate:  map[string][]AfterNodeHandler{},
		BeforeNodeDelete: map[string][]BeforeNodeHandler{},
		AfterNodeDelete:  map[string][]AfterNodeHandler{},
		BeforeRelCreate:  map[string][]BeforeRelHandler{},
		AfterRelCreate:   map[string][]AfterRelHandler{},
		BeforeRelUpdate:  map[string][]BeforeRelHandler{},
		AfterRelUpdate:   map[string][]AfterRelHandler{},
		BeforeRelDelete:  map[string][]BeforeRelHandler{},
		AfterRelDelete:   map[string][]AfterRelHandler{},
	}
}

// RunBeforeNode runs every registered before-handler for typeName in order,
// threading the (possibly rewritten) input through each. A handler error
// aborts the chain immediately (spec.md §5: "a failure in Hi aborts Hj for j>i").
func RunBeforeNode(ctx context.Context, handlers []BeforeNodeHandler, typeName string, input gvalue.Value, rctx RequestContext) (gvalue.Value, error) {
	cur := input
	for _, h := range handlers {
		var err error
		cur, err = h(ctx, typeName, cur, rctx)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// RunAfterNode runs every registered after-handler for typeName in order.
func RunAfterNode(ctx context.Context, handlers []AfterNodeHandler, typeName string, result []model.Node, rctx RequestContext) ([]model.Node, error) {
	cur := result
	for _, h := range handlers {
		var err error
		cur, err = h(ctx, typeName, cur, rctx)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// RunBeforeRel runs every registered before-handler for relLabel in order.
func RunBeforeRel(ctx context.Context, handlers []BeforeRelHandler, relLabel string, input gvalue.Value, rctx RequestContext) (gvalue.Value, error) {
	cur := input
	for _, h := range handlers {
		var err error
		cur, err = h(ctx, relLabel, cur, rctx)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}

// RunAfterRel runs every registered after-handler for relLabel in order.
func RunAfterRel(ctx context.Context, handlers []AfterRelHandler, relLabel string, result []model.Rel, rctx RequestContext) ([]model.Rel, error) {
	cur := result
	for _, h := range handlers {
		var err error
		cur, err = h(ctx, relLabel, cur, rctx)
		if err != nil {
			return cur, err
		}
	}
	return cur, nil
}
