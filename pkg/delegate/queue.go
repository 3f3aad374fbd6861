package delegate

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

const defaultName = "delegate"

type Option func(*Queue)

// WithName names the queue in logs and metrics.
func WithName(name string) Option {
	return func(q *Queue) {
		if name != "" {
			q.name = name
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(q *Queue) {
		if log != nil {
			q.log = log
		}
	}
}

func WithMetrics(m Metrics) Option {
	return func(q *Queue) {
		if m != nil {
			q.metrics = m
		}
	}
}

// Queue delegates work to a single dedicated worker goroutine.
type Queue struct {
	name    string
	log     *zap.Logger
	metrics Metrics

	mu       sync.Mutex
	state    State
	broken   bool
	ch       *channel
	worker   *worker
	workerID uuid.UUID
}

func New(opts ...Option) *Queue {
	q := &Queue{
		name:    defaultName,
		metrics: noopMetrics{},
		state:   StateNew,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.log == nil {
		q.log = zap.L()
	}
	q.log = q.log.Named("delegate").With(zap.String("queue", q.name))
	return q
}

func (q *Queue) Name() string { return q.name }

func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Len returns the number of tasks waiting for the worker.
func (q *Queue) Len() int {
	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()
	if ch == nil {
		return 0
	}
	return ch.len()
}

// Start spawns the worker. It is only valid on a new queue.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != StateNew {
		err := srvErrors.ErrAlreadyStarted
		if q.state == StateStopped {
			err = srvErrors.ErrStopped
		}
		return q.precondition("start", err)
	}

	q.ch = newChannel()
	q.worker = newWorker(q, q.ch)
	q.workerID = uuid.New()
	q.state = StateStarted
	go q.worker.run()

	q.log.Debug("started delegate worker", zap.String("worker", q.workerID.String()))
	return nil
}

// InWorker reports whether the caller is this queue's worker, running the task that
// handed out ctx. Other goroutines holding that ctx are not on the worker: their calls are
// queued like any other.
func (q *Queue) InWorker(ctx context.Context) bool {
	t := markedTask(ctx, q)
	if t == nil || !t.running.Load() {
		return false
	}
	if !t.threaded {
		return true
	}
	thread, _ := threadID()
	return thread == t.thread
}

// Execute runs work on the worker and blocks until it has finished.
//
// Calls made on the worker with a context received from a task of this same queue run
// inline. Errors returned by work are returned unchanged.
//
// A panic in queued work is re-raised in the calling goroutine as a *errors.PanicError,
// not as the original value: recover() sees the wrapper, whose Value field holds the
// original panic value and whose Stack is the worker's stack. When the value is an error,
// errors.Is and errors.As reach it through the wrapper. Inline calls panic with the
// original value, as a direct call would.
//
// There is no timeout: ctx is passed to work, which decides whether to honour it.
func (q *Queue) Execute(ctx context.Context, work Work[any]) (any, error) {
	if q.InWorker(ctx) {
		return work(ctx)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	t := newTask(ctx, q, work)

	q.mu.Lock()
	if q.state != StateStarted {
		err := q.precondition("execute", nil)
		q.mu.Unlock()
		return nil, err
	}
	if q.broken {
		q.mu.Unlock()
		return nil, srvErrors.ErrWorkerDied
	}
	depth := q.ch.push(t)
	q.mu.Unlock()
	q.metrics.RecordQueueDepth(q.name, depth)

	<-t.done
	if t.panicErr != nil {
		panic(t.panicErr)
	}
	return t.result.Data, t.result.Err
}

// Stop pushes the stop sentinel and returns once every task queued before it has run
// and the worker has exited. It must not be called from inside delegated work.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.state != StateStarted {
		err := q.precondition("stop", nil)
		q.mu.Unlock()
		return err
	}
	q.state = StateStopped
	ch, w := q.ch, q.worker
	ch.push(newStopTask())
	q.mu.Unlock()

	ch.join()
	<-w.exited

	q.mu.Lock()
	broken := q.broken
	q.mu.Unlock()

	q.log.Debug("stopped delegate worker", zap.String("worker", q.workerID.String()))
	if broken {
		return srvErrors.ErrWorkerDied
	}
	return nil
}

// precondition must be called with q.mu held.
func (q *Queue) precondition(op string, err error) error {
	if err == nil {
		switch q.state {
		case StateNew:
			err = srvErrors.ErrNotStarted
		case StateStopped:
			err = srvErrors.ErrStopped
		}
	}
	q.log.Error("queue precondition violated", zap.String("op", op), zap.Stringer("state", q.state), zap.Error(err))
	return srvErrors.NewPreconditionError(op, q.state.String(), err)
}
