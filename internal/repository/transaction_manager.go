package repository

import (
	"context"
	"fmt"

	"quiz-class/internal/domain"

	"github.com/jmoiron/sqlx"
)

type contextKey string

// TransactionContextKey is the context key under which an open *sqlx.Tx
// travels. Repositories pick it up through GetExecutor.
const TransactionContextKey = contextKey("tx")

// GetExecutor returns the transaction stored in the context, or the base
// database handle when no transaction is open.
func GetExecutor(ctx context.Context, db DBTX) DBTX {
	if tx, ok := ctx.Value(TransactionContextKey).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// transactionManagerAdapter implements domain.TransactionManager on sqlx.
type transactionManagerAdapter struct {
	db *sqlx.DB
}

// NewTransactionManagerAdapter creates a domain.TransactionManager backed by
// the given database handle.
func NewTransactionManagerAdapter(db *sqlx.DB) domain.TransactionManager {
	return &transactionManagerAdapter{db: db}
}

// WithTransaction begins a transaction, runs fn with the transaction in the
// context, and commits. Any error or panic from fn rolls the transaction back;
// panics are re-raised after the rollback.
func (tma *transactionManagerAdapter) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	tx, err := tma.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, TransactionContextKey, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed: %v, rollback also failed: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
