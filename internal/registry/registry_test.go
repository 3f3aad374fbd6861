package registry_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/shareddb/internal/config"
	"github.com/kubev2v/shareddb/internal/registry"
	"github.com/kubev2v/shareddb/internal/settings"
	"github.com/kubev2v/shareddb/internal/store"
	"github.com/kubev2v/shareddb/pkg/delegate"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

var _ = Describe("Registry", func() {
	var (
		ctx   context.Context
		r     *registry.Registry
		opens atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		opens.Store(0)

		databases := settings.Patch(map[string]config.Database{
			"default": {Engine: "duckdb", DSN: ":memory:"},
			"cache":   {Engine: "sqlite3", DSN: ":memory:"},
			"broken":  {Engine: "shareddb"},
		}, nil, []string{"cache", "broken"})

		r = registry.New(databases, registry.WithOpenFunc(func(driver, dsn string) (*sql.DB, error) {
			opens.Add(1)
			return store.NewDB(driver, dsn)
		}))
	})

	AfterEach(func() {
		Expect(r.Close()).To(Succeed())
	})

	It("should list the aliases", func() {
		Expect(r.Aliases()).To(Equal([]string{"broken", "cache", "default"}))
	})

	// Given a delegated alias
	// When many goroutines resolve it concurrently
	// Then they should all get the same handle backed by one started queue
	It("should open one queue per alias", func() {
		const n = 20
		handles := make([]*registry.Handle, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(idx int) {
				defer GinkgoRecover()
				defer wg.Done()
				h, err := r.Get(ctx, "default")
				Expect(err).NotTo(HaveOccurred())
				handles[idx] = h
			}(i)
		}
		wg.Wait()

		for _, h := range handles {
			Expect(h).To(BeIdenticalTo(handles[0]))
		}
		Expect(opens.Load()).To(Equal(int32(1)))
		Expect(handles[0].Driver).To(Equal("duckdb"))
		Expect(handles[0].Queue).NotTo(BeNil())
		Expect(handles[0].Queue.State()).To(Equal(delegate.StateStarted))
		Expect(handles[0].Queue.Name()).To(Equal("default"))
	})

	It("should serve queries through the handle", func() {
		h, err := r.Get(ctx, "default")
		Expect(err).NotTo(HaveOccurred())

		var v int
		err = h.Conn.QueryRowContext(ctx, func(row *sql.Row) error {
			return row.Scan(&v)
		}, "SELECT 2 + 2")

		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(4))
	})

	It("should not delegate blacklisted aliases", func() {
		h, err := r.Get(ctx, "cache")

		Expect(err).NotTo(HaveOccurred())
		Expect(h.Driver).To(Equal("sqlite3"))
		Expect(h.Queue).To(BeNil())
	})

	It("should return a not found error for unknown aliases", func() {
		_, err := r.Get(ctx, "missing")

		Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		Expect(opens.Load()).To(BeZero())
	})

	It("should reject improperly configured aliases", func() {
		_, err := r.Get(ctx, "broken")

		Expect(srvErrors.IsImproperlyConfiguredError(err)).To(BeTrue())
	})

	It("should stop every queue on close", func() {
		h, err := r.Get(ctx, "default")
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Close()).To(Succeed())

		Expect(h.Queue.State()).To(Equal(delegate.StateStopped))
		_, err = r.Get(ctx, "default")
		Expect(err).To(MatchError(srvErrors.ErrRegistryClosed))
	})

	// Given an alias that takes long to open
	// When another, already open alias is requested meanwhile
	// Then it should be returned without waiting for the slow one
	It("should not block open aliases while another alias is opening", func() {
		entered := make(chan struct{})
		release := make(chan struct{})
		slow := registry.New(map[string]config.Database{
			"default": {Engine: "duckdb", DSN: ":memory:"},
			"slow":    {Engine: "duckdb", DSN: "slow"},
		}, registry.WithOpenFunc(func(driver, dsn string) (*sql.DB, error) {
			if dsn == "slow" {
				close(entered)
				<-release
				dsn = ":memory:"
			}
			return store.NewDB(driver, dsn)
		}))
		defer func() { Expect(slow.Close()).To(Succeed()) }()

		open, err := slow.Get(ctx, "default")
		Expect(err).NotTo(HaveOccurred())

		slowDone := make(chan error, 1)
		go func() {
			_, err := slow.Get(ctx, "slow")
			slowDone <- err
		}()
		Eventually(entered).Should(BeClosed())

		got := make(chan *registry.Handle, 1)
		go func() {
			h, _ := slow.Get(ctx, "default")
			got <- h
		}()
		Eventually(got).Should(Receive(BeIdenticalTo(open)))
		Consistently(slowDone).ShouldNot(Receive())

		close(release)
		Eventually(slowDone).Should(Receive(BeNil()))
	})

	It("should retry an alias whose open failed", func() {
		var attempts atomic.Int32
		flaky := registry.New(map[string]config.Database{
			"default": {Engine: "duckdb", DSN: ":memory:"},
		}, registry.WithOpenFunc(func(driver, dsn string) (*sql.DB, error) {
			if attempts.Add(1) == 1 {
				return nil, errors.New("not yet")
			}
			return store.NewDB(driver, dsn)
		}))
		defer func() { Expect(flaky.Close()).To(Succeed()) }()

		_, err := flaky.Get(ctx, "default")
		Expect(err).To(MatchError(ContainSubstring("not yet")))

		h, err := flaky.Get(ctx, "default")
		Expect(err).NotTo(HaveOccurred())
		Expect(h).NotTo(BeNil())
		Expect(attempts.Load()).To(Equal(int32(2)))
	})

	It("should report open failures", func() {
		failing := registry.New(map[string]config.Database{
			"default": {Engine: "duckdb"},
		}, registry.WithOpenFunc(func(driver, dsn string) (*sql.DB, error) {
			return nil, errors.New("unreachable")
		}))
		defer failing.Close()

		_, err := failing.Get(ctx, "default")

		Expect(err).To(MatchError(ContainSubstring("unreachable")))
	})
})
