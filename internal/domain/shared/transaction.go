package shared

import "context"

// TransactionManager runs fn in a single storage transaction. Repositories
// called with the ctx passed to fn join that transaction.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
