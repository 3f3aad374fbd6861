package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/kubev2v/shareddb/pkg/delegate"
)

var (
	ErrNoTransaction     = errors.New("no transaction in progress")
	ErrTransactionActive = errors.New("transaction already in progress")
	ErrClosed            = errors.New("database handle closed")

	savepointName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SharedDB exposes one database connection to many goroutines. The connection and any
// transaction on it are only ever used from the queue's worker: every operation below is
// delegated with Execute.
//
// The transaction state is shared by every user of the handle, exactly as with a single
// connection. Use Atomic to run a whole transaction as one unit of work.
type SharedDB struct {
	q    *delegate.Queue
	db   *sql.DB
	conn *sql.Conn
	tx   *sql.Tx
}

var _ Conn = (*SharedDB)(nil)

// NewSharedDB checks out the single connection of db on the worker of q. q must be started.
func NewSharedDB(ctx context.Context, q *delegate.Queue, db *sql.DB) (*SharedDB, error) {
	s := &SharedDB{q: q, db: db}
	_, err := q.Execute(ctx, func(ctx context.Context) (any, error) {
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire connection: %w", err)
		}
		s.conn = conn
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Queue returns the queue the handle delegates to.
func (s *SharedDB) Queue() *delegate.Queue { return s.q }

// current must run on the worker.
func (s *SharedDB) current() (querier, error) {
	if s.conn == nil {
		return nil, ErrClosed
	}
	if s.tx != nil {
		return s.tx, nil
	}
	return s.conn, nil
}

func (s *SharedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return delegate.Call(ctx, s.q, func(ctx context.Context) (sql.Result, error) {
		q, err := s.current()
		if err != nil {
			return nil, err
		}
		return execOn(ctx, q, query, args...)
	})
}

// QueryContext opens a cursor, hands it to scan and closes it, all on the worker.
func (s *SharedDB) QueryContext(ctx context.Context, scan RowsFunc, query string, args ...any) error {
	_, err := s.q.Execute(ctx, func(ctx context.Context) (any, error) {
		q, err := s.current()
		if err != nil {
			return nil, err
		}
		return nil, queryOn(ctx, q, scan, query, args...)
	})
	return err
}

func (s *SharedDB) QueryRowContext(ctx context.Context, scan RowFunc, query string, args ...any) error {
	_, err := s.q.Execute(ctx, func(ctx context.Context) (any, error) {
		q, err := s.current()
		if err != nil {
			return nil, err
		}
		return nil, queryRowOn(ctx, q, scan, query, args...)
	})
	return err
}

func (s *SharedDB) Begin(ctx context.Context) error {
	return s.run(ctx, s.begin)
}

func (s *SharedDB) Commit(ctx context.Context) error {
	return s.run(ctx, func(context.Context) error { return s.commit() })
}

func (s *SharedDB) Rollback(ctx context.Context) error {
	return s.run(ctx, func(context.Context) error { return s.rollback() })
}

func (s *SharedDB) Savepoint(ctx context.Context, name string) error {
	return s.savepointStmt(ctx, "SAVEPOINT %s", name)
}

func (s *SharedDB) ReleaseSavepoint(ctx context.Context, name string) error {
	return s.savepointStmt(ctx, "RELEASE SAVEPOINT %s", name)
}

func (s *SharedDB) RollbackToSavepoint(ctx context.Context, name string) error {
	return s.savepointStmt(ctx, "ROLLBACK TO SAVEPOINT %s", name)
}

// InTransaction reports whether a transaction is open on the connection.
func (s *SharedDB) InTransaction(ctx context.Context) (bool, error) {
	return delegate.Call(ctx, s.q, func(context.Context) (bool, error) {
		return s.tx != nil, nil
	})
}

// Atomic runs fn on the worker inside a transaction, committing when fn returns nil and
// rolling back otherwise. Handle calls made by fn with the ctx it receives run inline, so
// no other goroutine can interleave with the transaction.
func (s *SharedDB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, func(ctx context.Context) error {
		if s.tx != nil {
			return fn(ctx)
		}
		if err := s.begin(ctx); err != nil {
			return err
		}

		finished := false
		defer func() {
			if !finished {
				_ = s.rollback()
			}
		}()

		if err := fn(ctx); err != nil {
			finished = true
			if rbErr := s.rollback(); rbErr != nil {
				return errors.Join(err, rbErr)
			}
			return err
		}
		finished = true
		return s.commit()
	})
}

// Close rolls back any open transaction and returns the connection to db. It does not
// close db nor stop the queue.
func (s *SharedDB) Close() error {
	return s.run(context.Background(), func(context.Context) error {
		if s.conn == nil {
			return nil
		}
		var errs []error
		if s.tx != nil {
			errs = append(errs, s.rollback())
		}
		errs = append(errs, s.conn.Close())
		s.conn = nil
		return errors.Join(errs...)
	})
}

func (s *SharedDB) run(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := s.q.Execute(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *SharedDB) savepointStmt(ctx context.Context, format, name string) error {
	if !savepointName.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	return s.run(ctx, func(ctx context.Context) error {
		if s.tx == nil {
			return ErrNoTransaction
		}
		_, err := s.tx.ExecContext(ctx, fmt.Sprintf(format, name))
		return err
	})
}

func (s *SharedDB) begin(ctx context.Context) error {
	if s.conn == nil {
		return ErrClosed
	}
	if s.tx != nil {
		return ErrTransactionActive
	}
	// The transaction outlives the call that opened it.
	tx, err := s.conn.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

func (s *SharedDB) commit() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

func (s *SharedDB) rollback() error {
	if s.tx == nil {
		return ErrNoTransaction
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}
