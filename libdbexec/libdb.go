// Package libdbexec provides an interface for interacting with a SQL
// database, currently with a specific implementation for PostgreSQL using
// lib/pq.
//
// Key features:
//
//  1. Abstraction: Defines interfaces (DBManager, Exec, QueryRower) to decouple
//     application code from specific database driver details.
//
//  2. Simplified transaction management: DBManager.WithTransaction provides a
//     clear pattern for handling database transactions, returning separate
//     functions for committing (CommitTx) and releasing/rolling back
//     (ReleaseTx). ReleaseTx is designed for use with defer to ensure
//     transactions are always finalized, even in cases of errors or panics.
//
//  3. Centralized error translation: maps common low-level database errors
//     (sql.ErrNoRows, pq.Error codes) to a consistent set of exported package
//     errors (ErrNotFound, ErrUniqueViolation, ErrDeadlockDetected, ...).
package libdbexec
