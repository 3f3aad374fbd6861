package store

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// QueryInterceptor logs every statement before handing it to the wrapped Conn.
type QueryInterceptor struct {
	Conn
	alias string
}

func NewQueryInterceptor(alias string, conn Conn) *QueryInterceptor {
	return &QueryInterceptor{Conn: conn, alias: alias}
}

func (q *QueryInterceptor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	zap.S().Named("store").Debugw("exec", "alias", q.alias, "sql", query, "args", args)
	return q.Conn.ExecContext(ctx, query, args...)
}

func (q *QueryInterceptor) QueryContext(ctx context.Context, scan RowsFunc, query string, args ...any) error {
	zap.S().Named("store").Debugw("query", "alias", q.alias, "sql", query, "args", args)
	return q.Conn.QueryContext(ctx, scan, query, args...)
}

func (q *QueryInterceptor) QueryRowContext(ctx context.Context, scan RowFunc, query string, args ...any) error {
	zap.S().Named("store").Debugw("query row", "alias", q.alias, "sql", query, "args", args)
	return q.Conn.QueryRowContext(ctx, scan, query, args...)
}
