package gremlindb

import "context"

// Toggles carries the four pool-construction-time switches that materially
// change Gremlin emission (spec.md §4.5): bindings vs. inline-literal
// property serialization, long-ids re-parsing at the transaction boundary,
// mandatory partition-key injection, and server-side session wrapping.
type Toggles struct {
	Bindings   bool
	LongIDs    bool
	Partitions bool
	Sessions   bool
}

type partitionKeyCtxKey struct{}

// WithPartitionKey attaches the partition key a mutating call must carry
// when Toggles.Partitions is enabled (spec.md §4.5, §9 "Partition key
// mode"). The visitor layer never sees this key — it is threaded through
// the request context and applied by the Gremlin transaction at emission
// time, keeping the visitor pipeline backend-agnostic as the design note
// requires.
func WithPartitionKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, partitionKeyCtxKey{}, key)
}

func partitionKeyFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(partitionKeyCtxKey{}).(string)
	return v, ok
}
