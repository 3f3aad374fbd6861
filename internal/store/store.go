package store

import "context"

// Store provides access to all storage repositories of one database alias.
type Store struct {
	conn      Conn
	something *SomethingStore
}

func NewStore(conn Conn) *Store {
	return &Store{
		conn:      conn,
		something: NewSomethingStore(conn),
	}
}

func (s *Store) Something() *SomethingStore {
	return s.something
}

// Atomic runs fn in a transaction. Stores obtained from the Store passed to fn must be used
// with the ctx fn receives.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, st *Store) error) error {
	return s.conn.Atomic(ctx, func(ctx context.Context) error {
		return fn(ctx, s)
	})
}

func (s *Store) Close() error {
	return s.conn.Close()
}
