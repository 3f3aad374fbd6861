package metrics_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kubev2v/shareddb/internal/metrics"
	"github.com/kubev2v/shareddb/pkg/delegate"
)

var _ = Describe("QueueMetrics", func() {
	var reg *prometheus.Registry

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
	})

	It("should export queue observations", func() {
		m, err := metrics.NewQueueMetrics("test", reg)
		Expect(err).NotTo(HaveOccurred())

		m.RecordTaskFailure("default")
		m.RecordTaskFailure("default")
		m.RecordTaskPanic("default", "boom")
		m.RecordQueueDepth("default", 3)
		m.RecordQueueDepth("", 1)

		expected := `
# HELP test_task_failed_total Total number of delegated tasks that returned an error.
# TYPE test_task_failed_total counter
test_task_failed_total{queue="default"} 2
# HELP test_task_panic_total Total number of delegated tasks that panicked.
# TYPE test_task_panic_total counter
test_task_panic_total{queue="default"} 1
# HELP test_queue_depth Number of tasks waiting for the worker.
# TYPE test_queue_depth gauge
test_queue_depth{queue="default"} 3
test_queue_depth{queue="unknown"} 1
`
		err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
			"test_task_failed_total", "test_task_panic_total", "test_queue_depth")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reuse collectors registered twice", func() {
		first, err := metrics.NewQueueMetrics("", reg)
		Expect(err).NotTo(HaveOccurred())
		second, err := metrics.NewQueueMetrics("", reg)
		Expect(err).NotTo(HaveOccurred())

		first.RecordTaskFailure("q")
		second.RecordTaskFailure("q")

		count, err := testutil.GatherAndCount(reg, "shareddb_task_failed_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))
	})

	It("should be fed by a queue", func() {
		m, err := metrics.NewQueueMetrics("fed", reg)
		Expect(err).NotTo(HaveOccurred())
		ctx := context.Background()

		err = delegate.Run(ctx, func(ctx context.Context, q *delegate.Queue) error {
			_, _ = q.Execute(ctx, func(ctx context.Context) (any, error) { return nil, errors.New("x") })
			_, err := q.Execute(ctx, func(ctx context.Context) (any, error) { return 1, nil })
			return err
		}, delegate.WithName("fed"), delegate.WithMetrics(m))
		Expect(err).NotTo(HaveOccurred())

		count, err := testutil.GatherAndCount(reg, "fed_task_duration_seconds")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(1))

		expected := `
# HELP fed_task_failed_total Total number of delegated tasks that returned an error.
# TYPE fed_task_failed_total counter
fed_task_failed_total{queue="fed"} 1
`
		Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected), "fed_task_failed_total")).To(Succeed())
	})
})
