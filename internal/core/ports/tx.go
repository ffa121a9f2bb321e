package ports

import "context"

// Transaction is an open unit of work against the subscriber store. Every
// mutating repository operation takes one explicitly; no operation acquires
// its own transaction.
type Transaction interface {
	Commit() error
	Rollback() error
}

// TransactionBeginner opens transactions. Implemented by the database layer.
type TransactionBeginner interface {
	BeginTx(ctx context.Context) (Transaction, error)
}
