// Package store implements the data access layer over one database alias.
//
// Every repository is written against Executor, so the same code runs on a delegated
// handle (SharedDB) or a plain one (DirectDB).
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	│                        SomethingStore                           │
//	├─────────────────────────────────────────────────────────────────┤
//	│                 QueryInterceptor (debug logging)                │
//	├────────────────────────────────┬────────────────────────────────┤
//	│           SharedDB             │           DirectDB             │
//	│  one *sql.Conn, used only on   │  *sql.DB, tx carried in ctx    │
//	│  the delegate.Queue worker     │                                │
//	└────────────────────────────────┴────────────────────────────────┘
//
// # SharedDB
//
// NewSharedDB checks out the single connection of the database on the worker. From then on
// every statement, cursor and transaction step is a task on the queue:
//
//	caller A ──┐
//	caller B ──┼── ExecContext/QueryContext ──► queue ──► worker ──► *sql.Conn
//	caller C ──┘
//
// Cursors never leave the worker: QueryContext takes a RowsFunc that scans the rows
// inside the task. The transaction is a property of the connection, so Begin, Commit and
// Rollback from different goroutines act on the same transaction. Savepoint,
// ReleaseSavepoint and RollbackToSavepoint need an open transaction.
//
// # Transactions
//
// Atomic is the safe way to group statements:
//
//	err := st.Atomic(ctx, func(ctx context.Context, st *store.Store) error {
//	    if _, err := st.Something().Create(ctx, "a"); err != nil {
//	        return err
//	    }
//	    _, err := st.Something().Create(ctx, "b")
//	    return err
//	})
//
// On a SharedDB the whole callback is one task: the statements it issues with its ctx run
// inline on the worker, so no other caller can interleave. A nested Atomic joins the outer
// transaction. A returned error or a panic rolls back.
//
// On a DirectDB the transaction rides in the context returned to the callback.
//
// # Migrations
//
// See the migrations subpackage. Schema files are embedded per dialect (duckdb, sqlite3)
// and applied in order, each inside Atomic, with versions recorded in schema_migrations.
//
// # Query Building
//
// SomethingStore builds its statements with squirrel:
//
//	sq.Select("id", "data").From(tableSomething).OrderBy("id").Limit(10)
//
// # Error Handling
//
// A missing row is returned as *errors.ResourceNotFoundError. Driver errors are wrapped
// with the operation that failed.
package store
