package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx runs fn in a transaction; repositories called with the ctx it
	// receives join that transaction.
	ExecTx(ctx context.Context, fn TxFn) error
}
