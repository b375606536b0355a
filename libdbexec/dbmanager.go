package libdbexec

import (
	"context"
	"database/sql"
	"errors"
)

// Predefined errors for common database interaction scenarios. Application
// code checks for these with errors.Is instead of relying on driver-specific
// error types or codes.
var (
	// ErrNotFound is returned by Scan when sql.ErrNoRows is encountered.
	ErrNotFound = errors.New("libdbexec: not found")

	// ErrTxFailed indicates a failure during transaction finalization (Commit or Rollback).
	ErrTxFailed = errors.New("libdbexec: transaction failed")

	// ErrMaxRowsReached indicates that the maximum number of rows on a given table has been reached.
	ErrMaxRowsReached = errors.New("libdbexec: max row count reached")

	// --- Constraint violations ---

	ErrUniqueViolation     = errors.New("libdbexec: unique constraint violation")
	ErrForeignKeyViolation = errors.New("libdbexec: foreign key violation")
	ErrNotNullViolation    = errors.New("libdbexec: not null constraint violation")
	ErrCheckViolation      = errors.New("libdbexec: check constraint violation")
	ErrConstraintViolation = errors.New("libdbexec: constraint violation")

	// --- Operational errors ---

	ErrDeadlockDetected     = errors.New("libdbexec: deadlock detected")
	ErrSerializationFailure = errors.New("libdbexec: serialization failure")
	ErrLockNotAvailable     = errors.New("libdbexec: lock not available")
	ErrQueryCanceled        = errors.New("libdbexec: query canceled")

	// --- Data errors ---

	ErrDataTruncation    = errors.New("libdbexec: data truncation error")
	ErrNumericOutOfRange = errors.New("libdbexec: numeric value out of range")
	ErrInvalidInputSyntax = errors.New("libdbexec: invalid input syntax")

	// --- Schema errors ---

	ErrUndefinedColumn = errors.New("libdbexec: undefined column")
	ErrUndefinedTable  = errors.New("libdbexec: undefined table")
)

// DBManager is the main entry point for database interactions: obtaining
// executors and managing the connection lifecycle.
//
// Usage (transaction):
//
//	exec, commit, release, err := mgr.WithTransaction(ctx)
//	if err != nil {
//		return err
//	}
//	defer release()
//	if _, err := exec.ExecContext(ctx, "UPDATE ..."); err != nil {
//		return err
//	}
//	return commit(ctx)
type DBManager interface {
	// WithoutTransaction returns an executor that operates directly on the
	// underlying connection pool. Each operation may run on a different
	// connection.
	WithoutTransaction() Exec

	// WithTransaction starts a new transaction and returns an Exec bound to
	// it, a CommitTx to call on the success path, and a ReleaseTx meant for
	// defer (idempotent rollback-or-noop). onRollback handlers run only after
	// a successful rollback and must not touch the transaction.
	WithTransaction(ctx context.Context, onRollback ...func()) (Exec, CommitTx, ReleaseTx, error)

	// Close terminates the underlying connection pool.
	Close() error
}

// Exec is the common interface for executing queries, whether bound to a
// transaction or the raw pool. Implementations translate errors into the
// package's Err* sentinels.
type Exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) QueryRower
}

// QueryRower wraps a single-row query result so Scan errors (notably
// sql.ErrNoRows) are translated consistently.
type QueryRower interface {
	Scan(dest ...any) error
}

// CommitTx commits a transaction. Call only on the success path.
type CommitTx func(ctx context.Context) error

// ReleaseTx rolls back the transaction if it hasn't been finalized yet. It is
// idempotent and safe to call after a successful commit (no-op in that case),
// making it ideal for defer.
type ReleaseTx func() error
