// Package delegate serializes calls to a resource that must only be used from one goroutine.
//
// A Queue owns a single worker goroutine, locked to its OS thread. Other goroutines never
// touch the resource; they submit Work through Execute and block until the worker has run it.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                              Queue                                  │
//	│                                                                     │
//	│   caller 1 ──┐                                                      │
//	│   caller 2 ──┼── Execute(fn) ──► push ──► ┌──────────────────────┐  │
//	│   caller N ──┘        ▲                   │  channel (FIFO)      │  │
//	│                       │                   │  [t1] [t2] [STOP]    │  │
//	│                   <-t.done                └──────────┬───────────┘  │
//	│                       │                              │ pop          │
//	│                       │                   ┌──────────▼───────────┐  │
//	│                       └────────────────── │  worker (1 goroutine) │  │
//	│                                           │  owns the resource    │  │
//	│                                           └──────────────────────┘  │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Lifecycle
//
//	┌─────┐  Start()  ┌─────────┐  Stop()  ┌─────────┐
//	│ New │ ────────► │ Started │ ───────► │ Stopped │
//	└─────┘           └─────────┘          └─────────┘
//
// Transitions are monotonic. Start from anything but New, and Execute or Stop outside
// Started, return a *errors.PreconditionError without side effects: no second worker is
// spawned and nothing is queued.
//
// # Execution Flow
//
//  1. Execute builds a Task wrapping the work and pushes it on the channel.
//  2. The worker pops tasks in push order and runs them one at a time.
//  3. The task records the returned value, the returned error, or a recovered panic,
//     then closes its done channel.
//  4. Execute wakes up and returns the value, returns the error unchanged, or re-panics
//     with a *errors.PanicError carrying the original panic value and the worker stack.
//
// A failing task never stops the worker.
//
// # Reentrancy
//
// The worker passes every task a context tagged with the queue. Execute called with that
// context, while the task is still running, runs the work inline instead of queueing it:
// the worker would otherwise wait on itself forever.
//
//	q.Execute(ctx, func(ctx context.Context) (any, error) {
//	    // ctx is the worker's: this runs inline
//	    return q.Execute(ctx, inner)
//	})
//
// Delegated work must therefore propagate the context it receives. Calling Execute from
// the worker with an unrelated context deadlocks, and so does calling Stop.
//
// The context alone is not enough: the call must also come from the worker's OS thread.
// A goroutine spawned by the task that calls Execute with the task's context is queued
// behind it like any other caller, so the task must not wait for such a goroutine.
//
// # Stopping
//
// Stop moves the queue to Stopped, pushes a stop sentinel behind every pending task, and
// waits for the channel to drain and the worker to exit. Work queued before Stop always
// runs. Run wraps Start and Stop around a function so the worker is stopped on every path:
//
//	err := delegate.Run(ctx, func(ctx context.Context, q *delegate.Queue) error {
//	    n, err := delegate.Call(ctx, q, func(ctx context.Context) (int, error) {
//	        return 2 + 2, nil
//	    })
//	    ...
//	}, delegate.WithName("default"))
//
// # Worker Death
//
// If the worker goroutine exits without the sentinel (runtime.Goexit in delegated work),
// the running task and every pending task complete with errors.ErrWorkerDied, and later
// Execute calls return it immediately instead of blocking.
package delegate
