package delegate

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"

	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

// Task is one captured invocation. It is written by the worker only, and read by the
// submitter only after done is closed.
type Task struct {
	kind  Kind
	id    uuid.UUID
	queue *Queue
	ctx   context.Context
	work  Work[any]

	done     chan struct{}
	running  atomic.Bool
	result   Result[any]
	panicErr *srvErrors.PanicError

	// OS thread of the worker, set before running.
	thread   int
	threaded bool
}

func newTask(ctx context.Context, q *Queue, work Work[any]) *Task {
	return &Task{
		kind:  KindData,
		id:    uuid.New(),
		queue: q,
		ctx:   ctx,
		work:  work,
		done:  make(chan struct{}),
	}
}

// newStopTask returns the sentinel. Its done channel is never closed.
func newStopTask() *Task {
	return &Task{kind: KindStop, done: make(chan struct{})}
}

func (t *Task) Kind() Kind { return t.kind }

func (t *Task) ID() uuid.UUID { return t.id }

// Done is closed once the outcome is available.
func (t *Task) Done() <-chan struct{} { return t.done }

// execute runs the work once and records its outcome. It never propagates a failure:
// errors and panics are kept for the submitter. done is closed last on every path,
// including runtime.Goexit called from the work.
func (t *Task) execute() {
	returned := false
	t.running.Store(true)
	defer func() {
		if rec := recover(); rec != nil {
			t.panicErr = srvErrors.NewPanicError(rec, debug.Stack())
		} else if !returned {
			t.result.Err = srvErrors.ErrWorkerDied
		}
		t.running.Store(false)
		close(t.done)
	}()

	v, err := t.work(withMarker(t.ctx, t))
	returned = true
	if err != nil {
		t.result.Err = err
		return
	}
	t.result.Data = v
}

// fail completes a task that will never be executed.
func (t *Task) fail(err error) {
	if t.kind == KindStop {
		return
	}
	t.result.Err = err
	close(t.done)
}

func (t *Task) String() string {
	if t.kind == KindStop {
		return "<Task: STOP>"
	}
	select {
	case <-t.done:
	default:
		return fmt.Sprintf("<Task: %s (pending)>", t.id)
	}
	switch {
	case t.panicErr != nil:
		return fmt.Sprintf("<Task: %s !-> %v>", t.id, t.panicErr)
	case t.result.Err != nil:
		return fmt.Sprintf("<Task: %s !-> %v>", t.id, t.result.Err)
	default:
		return fmt.Sprintf("<Task: %s --> %v>", t.id, t.result.Data)
	}
}

type markerKey struct {
	q *Queue
}

// withMarker tags ctx as originating from t, which lets nested Execute calls on the same
// queue run inline instead of waiting on the worker that is already running them.
func withMarker(ctx context.Context, t *Task) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, markerKey{q: t.queue}, t)
}

func markedTask(ctx context.Context, q *Queue) *Task {
	if ctx == nil {
		return nil
	}
	t, _ := ctx.Value(markerKey{q: q}).(*Task)
	return t
}
