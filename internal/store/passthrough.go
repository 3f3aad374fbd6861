package store

import (
	"context"
	"database/sql"
	"errors"
)

type txKey struct {
	db *sql.DB
}

// DirectDB is the non-delegated Conn: calls go straight to the database pool. Atomic
// carries its transaction in the context handed to fn.
type DirectDB struct {
	db *sql.DB
}

var _ Conn = (*DirectDB)(nil)

func NewDirectDB(db *sql.DB) *DirectDB {
	return &DirectDB{db: db}
}

func (d *DirectDB) querier(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{db: d.db}).(*sql.Tx); ok {
		return tx
	}
	return d.db
}

func (d *DirectDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execOn(ctx, d.querier(ctx), query, args...)
}

func (d *DirectDB) QueryContext(ctx context.Context, scan RowsFunc, query string, args ...any) error {
	return queryOn(ctx, d.querier(ctx), scan, query, args...)
}

func (d *DirectDB) QueryRowContext(ctx context.Context, scan RowFunc, query string, args ...any) error {
	return queryRowOn(ctx, d.querier(ctx), scan, query, args...)
}

func (d *DirectDB) Atomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{db: d.db}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{db: d.db}, tx)); err != nil {
		finished = true
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	finished = true
	return tx.Commit()
}

// Close is a no-op: the pool is owned by whoever opened it.
func (d *DirectDB) Close() error {
	return nil
}
