package repository

import "context"

// TxManager runs a function inside a single atomic transaction. The
// transaction travels on the context, so repository calls made with the
// callback's context share it; any error aborts the whole transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
