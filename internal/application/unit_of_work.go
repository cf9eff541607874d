package application

import (
	"context"
	"time"
)

// UnitOfWork defines a transaction boundary for use cases.
// implementations live in infrastructure, application only sees this interface.
// this keeps database transaction details out of domain and application logic.
type UnitOfWork interface {
	// Begin starts a new transaction and returns a context scoped to it.
	// all repository operations using this context will participate in the transaction.
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the current transaction.
	// safe to call multiple times or after commit (will be a no-op).
	Rollback(ctx context.Context) error
}

// RunInTransaction is a helper that executes a function within a transaction.
// automatically commits on success, rolls back on error.
// a nil uow runs fn directly, which is what tests without a database want.
func RunInTransaction(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) error {
	if uow == nil {
		return fn(ctx)
	}

	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	// always try to rollback on exit - it's a no-op if already committed
	defer uow.Rollback(txCtx)

	if err := fn(txCtx); err != nil {
		return err
	}

	return uow.Commit(txCtx)
}

// TimeProvider abstracts time acquisition for testability.
// inject a custom implementation to control time in tests.
type TimeProvider func() time.Time

// RealTime returns the current UTC time.
// use this in production.
func RealTime() time.Time {
	return time.Now().UTC()
}
