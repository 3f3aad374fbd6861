package delegate

import (
	"runtime"
	"time"

	"go.uber.org/zap"

	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

type worker struct {
	q        *Queue
	ch       *channel
	exited   chan struct{}
	thread   int
	threaded bool
}

func newWorker(q *Queue, ch *channel) *worker {
	return &worker{q: q, ch: ch, exited: make(chan struct{})}
}

// run is the worker loop. It owns the OS thread for its whole life so that resources with
// thread affinity always see the same thread.
func (w *worker) run() {
	runtime.LockOSThread()
	w.thread, w.threaded = threadID()

	stopped := false
	defer func() {
		if stopped {
			runtime.UnlockOSThread()
		} else {
			w.q.workerDied()
		}
		close(w.exited)
	}()

	for {
		t := w.ch.pop()
		if t.kind == KindStop {
			w.q.log.Debug("delegate worker received stop")
			w.ch.taskDone()
			stopped = true
			return
		}
		w.process(t)
		w.ch.taskDone()
	}
}

func (w *worker) process(t *Task) {
	m := w.q.metrics
	m.RecordQueueDepth(w.q.name, w.ch.len())

	t.thread, t.threaded = w.thread, w.threaded
	start := time.Now()
	t.execute()
	m.RecordTaskDuration(w.q.name, time.Since(start))

	switch {
	case t.panicErr != nil:
		m.RecordTaskPanic(w.q.name, t.panicErr.Value)
		w.q.log.Warn("delegated work panicked", zap.Stringer("task", t), zap.ByteString("stack", t.panicErr.Stack))
	case t.result.Err != nil:
		m.RecordTaskFailure(w.q.name)
		if ce := w.q.log.Check(zap.DebugLevel, "delegated work failed"); ce != nil {
			ce.Write(zap.Stringer("task", t))
		}
	default:
		if ce := w.q.log.Check(zap.DebugLevel, "delegated work done"); ce != nil {
			ce.Write(zap.Stringer("task", t))
		}
	}
}

// workerDied runs when the worker goroutine exits without a stop sentinel. Every waiting
// and future caller gets ErrWorkerDied instead of blocking forever.
func (q *Queue) workerDied() {
	q.log.Error("delegate worker exited unexpectedly", zap.String("worker", q.workerID.String()))
	q.mu.Lock()
	q.broken = true
	q.mu.Unlock()
	q.ch.failPending(srvErrors.ErrWorkerDied)
}
