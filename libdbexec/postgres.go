package libdbexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/lib/pq"
)

type postgresDBManager struct {
	dbInstance *sql.DB
}

// NewPostgresDBManager opens the connection, pings it, and applies schema.
func NewPostgresDBManager(ctx context.Context, dsn string, schema string) (DBManager, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", translateError(err))
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database connection failed: %w", translateError(err))
	}

	if schema != "" {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w", translateError(err))
		}
	}

	log.Println("database connection established and schema verified")
	return &postgresDBManager{dbInstance: db}, nil
}

func (sm *postgresDBManager) WithoutTransaction() Exec {
	return &txAwareDB{db: sm.dbInstance}
}

func (sm *postgresDBManager) WithTransaction(ctx context.Context, onRollback ...func()) (Exec, CommitTx, ReleaseTx, error) {
	tx, err := sm.dbInstance.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: begin transaction failed: %w", ErrTxFailed, translateError(err))
	}

	exec := &txAwareDB{tx: tx}

	var once sync.Once
	var finalized bool
	var mu sync.Mutex

	commitFn := func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		if finalized {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			_ = tx.Rollback()
			finalized = true
			return fmt.Errorf("%w: %v", ErrTxFailed, ctxErr)
		}
		if err := tx.Commit(); err != nil {
			finalized = true
			return fmt.Errorf("%w: commit failed: %v", ErrTxFailed, translateError(err))
		}
		finalized = true
		return nil
	}

	releaseFn := func() error {
		var rollbackErr error
		once.Do(func() {
			mu.Lock()
			defer mu.Unlock()
			if finalized {
				return
			}
			finalized = true
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				rollbackErr = fmt.Errorf("%w: rollback failed: %v", ErrTxFailed, translateError(err))
				return
			}
			for _, h := range onRollback {
				h()
			}
		})
		return rollbackErr
	}

	return exec, commitFn, releaseFn, nil
}

func (sm *postgresDBManager) Close() error {
	return sm.dbInstance.Close()
}

// txAwareDB wraps a *sql.DB and/or *sql.Tx to implement Exec.
type txAwareDB struct {
	db *sql.DB
	tx *sql.Tx
}

func (s *txAwareDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.tx != nil {
		res, err := s.tx.ExecContext(ctx, query, args...)
		return res, translateError(err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	return res, translateError(err)
}

func (s *txAwareDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	var err error
	if s.tx != nil {
		rows, err = s.tx.QueryContext(ctx, query, args...)
	} else {
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (s *txAwareDB) QueryRowContext(ctx context.Context, query string, args ...any) QueryRower {
	var r *sql.Row
	if s.tx != nil {
		r = s.tx.QueryRowContext(ctx, query, args...)
	} else {
		r = s.db.QueryRowContext(ctx, query, args...)
	}
	return &row{inner: r}
}

type row struct {
	inner *sql.Row
}

func (r *row) Scan(dest ...any) error {
	return translateError(r.inner.Scan(dest...))
}

// translateError maps raw driver errors into the package's sentinel errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return ErrUniqueViolation
		case "23503":
			return ErrForeignKeyViolation
		case "23502":
			return ErrNotNullViolation
		case "23514":
			return ErrCheckViolation
		case "40P01":
			return ErrDeadlockDetected
		case "40001":
			return ErrSerializationFailure
		case "55P03":
			return ErrLockNotAvailable
		case "57014":
			return ErrQueryCanceled
		case "22001":
			return ErrDataTruncation
		case "22003":
			return ErrNumericOutOfRange
		case "22P02":
			return ErrInvalidInputSyntax
		case "42703":
			return ErrUndefinedColumn
		case "42P01":
			return ErrUndefinedTable
		default:
			return ErrConstraintViolation
		}
	}

	return fmt.Errorf("libdbexec: unexpected error: %w", err)
}
