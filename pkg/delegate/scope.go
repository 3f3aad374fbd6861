package delegate

import (
	"context"
	"errors"
)

// Call is the typed form of Queue.Execute.
func Call[T any](ctx context.Context, q *Queue, work Work[T]) (T, error) {
	v, err := q.Execute(ctx, func(ctx context.Context) (any, error) {
		return work(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Run starts a queue, hands it to fn and stops it on every exit path of fn, panics
// included. The stop error is joined to the error returned by fn.
func Run(ctx context.Context, fn func(ctx context.Context, q *Queue) error, opts ...Option) (err error) {
	q := New(opts...)
	if err := q.Start(); err != nil {
		return err
	}
	defer func() {
		if stopErr := q.Stop(); stopErr != nil {
			err = errors.Join(err, stopErr)
		}
	}()

	return fn(ctx, q)
}
