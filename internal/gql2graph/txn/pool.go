package txn

import "context"

// Pool acquires Transactions against one backend. Each concrete dialect owns
// two sub-pools internally — read-write and read-only — and routes
// Transaction() to the former, ReadTransaction() to the latter (spec.md §5).
type Pool interface {
	Transaction(ctx context.Context) (Transaction, error)
	ReadTransaction(ctx context.Context) (Transaction, error)
	Close() error
}
