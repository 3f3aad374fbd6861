package store

import (
	"context"
	"database/sql"
)

// RowsFunc consumes a result set. It runs where the query runs, so rows must not escape it.
type RowsFunc func(rows *sql.Rows) error

// RowFunc scans a single row.
type RowFunc func(row *sql.Row) error

// Executor is the query surface used by the sub-stores.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, scan RowsFunc, query string, args ...any) error
	QueryRowContext(ctx context.Context, scan RowFunc, query string, args ...any) error
}

// Conn is a database handle as seen by the application.
type Conn interface {
	Executor
	// Atomic runs fn in a transaction. Nested calls join the outer transaction.
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
	Close() error
}

// querier is the subset shared by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execOn(ctx context.Context, q querier, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, query, args...)
}

func queryOn(ctx context.Context, q querier, scan RowsFunc, query string, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := scan(rows); err != nil {
		return err
	}
	return rows.Err()
}

func queryRowOn(ctx context.Context, q querier, scan RowFunc, query string, args ...any) error {
	return scan(q.QueryRowContext(ctx, query, args...))
}
