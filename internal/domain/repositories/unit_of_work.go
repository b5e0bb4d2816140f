package repositories

import "context"

// UnitOfWork groups ledger writes so a state transition and the audit events
// that record it commit or roll back together.
type UnitOfWork interface {
	// Do runs fn with a ctx carrying the transaction. Repositories called
	// with that ctx join it; nested calls reuse the outer transaction.
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
