// Package metrics exports delegation queue observations to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kubev2v/shareddb/pkg/delegate"
)

const defaultNamespace = "shareddb"

// QueueMetrics implements delegate.Metrics with Prometheus collectors labelled by queue.
type QueueMetrics struct {
	taskDurationSeconds *prometheus.HistogramVec
	taskFailedTotal     *prometheus.CounterVec
	taskPanicTotal      *prometheus.CounterVec
	queueDepth          *prometheus.GaugeVec
}

var _ delegate.Metrics = (*QueueMetrics)(nil)

// NewQueueMetrics creates the collectors and registers them with reg. Collectors already
// registered by a previous call are reused.
func NewQueueMetrics(namespace string, reg prometheus.Registerer) (*QueueMetrics, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	durationVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Delegated task execution duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"queue"})
	failedVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_failed_total",
		Help:      "Total number of delegated tasks that returned an error.",
	}, []string{"queue"})
	panicVec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of delegated tasks that panicked.",
	}, []string{"queue"})
	depthVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Number of tasks waiting for the worker.",
	}, []string{"queue"})

	var err error
	if durationVec, err = register(reg, durationVec); err != nil {
		return nil, err
	}
	if failedVec, err = register(reg, failedVec); err != nil {
		return nil, err
	}
	if panicVec, err = register(reg, panicVec); err != nil {
		return nil, err
	}
	if depthVec, err = register(reg, depthVec); err != nil {
		return nil, err
	}

	return &QueueMetrics{
		taskDurationSeconds: durationVec,
		taskFailedTotal:     failedVec,
		taskPanicTotal:      panicVec,
		queueDepth:          depthVec,
	}, nil
}

func (m *QueueMetrics) RecordTaskDuration(queue string, duration time.Duration) {
	m.taskDurationSeconds.WithLabelValues(label(queue)).Observe(duration.Seconds())
}

func (m *QueueMetrics) RecordTaskFailure(queue string) {
	m.taskFailedTotal.WithLabelValues(label(queue)).Inc()
}

func (m *QueueMetrics) RecordTaskPanic(queue string, _ any) {
	m.taskPanicTotal.WithLabelValues(label(queue)).Inc()
}

func (m *QueueMetrics) RecordQueueDepth(queue string, depth int) {
	m.queueDepth.WithLabelValues(label(queue)).Set(float64(depth))
}

func label(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				var zero T
				return zero, fmt.Errorf("collector already registered with a different type: %T", are.ExistingCollector)
			}
			return existing, nil
		}
		var zero T
		return zero, err
	}
	return c, nil
}
