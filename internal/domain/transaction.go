package domain

import "context"

// TransactionManager runs a function inside a database transaction. The
// context passed to fn carries the transaction; repositories that look it up
// join the transaction, everything else runs against the base connection.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
