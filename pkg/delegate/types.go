package delegate

import (
	"context"
	"time"
)

// Work is a unit of work delegated to the worker. Arguments are captured by the closure.
type Work[T any] func(ctx context.Context) (T, error)

type Result[T any] struct {
	Data T
	Err  error
}

type Kind int

const (
	KindData Kind = iota
	KindStop
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// State of a Queue. Transitions are monotonic: New -> Started -> Stopped.
type State int

const (
	StateNew State = iota
	StateStarted
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Metrics receives queue observations. Implementations must be safe for concurrent use.
type Metrics interface {
	RecordTaskDuration(queue string, duration time.Duration)
	RecordTaskFailure(queue string)
	RecordTaskPanic(queue string, panicInfo any)
	RecordQueueDepth(queue string, depth int)
}

type noopMetrics struct{}

func (noopMetrics) RecordTaskDuration(string, time.Duration) {}
func (noopMetrics) RecordTaskFailure(string)                 {}
func (noopMetrics) RecordTaskPanic(string, any)              {}
func (noopMetrics) RecordQueueDepth(string, int)             {}
