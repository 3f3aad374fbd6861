package store_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/shareddb/internal/store"
	"github.com/kubev2v/shareddb/internal/store/migrations"
	"github.com/kubev2v/shareddb/pkg/delegate"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

var _ = Describe("SomethingStore", func() {
	var (
		ctx    context.Context
		q      *delegate.Queue
		db     *sql.DB
		shared *store.SharedDB
		s      *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB("duckdb", ":memory:")
		Expect(err).NotTo(HaveOccurred())

		q = delegate.New(delegate.WithName("something"))
		Expect(q.Start()).To(Succeed())

		shared, err = store.NewSharedDB(ctx, q, db)
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, shared, "duckdb")
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(store.NewQueryInterceptor("default", shared))
	})

	AfterEach(func() {
		Expect(s.Close()).To(Succeed())
		Expect(q.Stop()).To(Succeed())
		Expect(db.Close()).To(Succeed())
	})

	Context("List", func() {
		// Given an empty store
		// When we list records
		// Then it should return an empty, non-nil slice
		It("should return an empty list", func() {
			// Act
			items, err := s.Something().List(ctx)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(items).NotTo(BeNil())
			Expect(items).To(BeEmpty())
		})

		It("should return records ordered by id", func() {
			// Arrange
			for _, d := range []string{"a", "b", "c"} {
				_, err := s.Something().Create(ctx, d)
				Expect(err).NotTo(HaveOccurred())
			}

			// Act
			items, err := s.Something().List(ctx)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(3))
			Expect(items[0].Data).To(Equal("a"))
			Expect(items[2].Data).To(Equal("c"))
			Expect(items[0].ID).To(BeNumerically("<", items[1].ID))
		})

		It("should paginate and filter", func() {
			for _, d := range []string{"apple", "avocado", "banana", "apricot"} {
				_, err := s.Something().Create(ctx, d)
				Expect(err).NotTo(HaveOccurred())
			}

			items, err := s.Something().List(ctx, store.ByDataPrefix("a"), store.WithLimit(2), store.WithOffset(1))

			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(2))
			Expect(items[0].Data).To(Equal("avocado"))
			Expect(items[1].Data).To(Equal("apricot"))
		})
	})

	Context("Get", func() {
		It("should return a created record", func() {
			created, err := s.Something().Create(ctx, "data")
			Expect(err).NotTo(HaveOccurred())

			item, err := s.Something().Get(ctx, created.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(item).To(Equal(created))
		})

		It("should return a not found error", func() {
			_, err := s.Something().Get(ctx, 42)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Context("Delete", func() {
		It("should delete a record", func() {
			created, err := s.Something().Create(ctx, "data")
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Something().Delete(ctx, created.ID)).To(Succeed())

			count, err := s.Something().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})

		It("should return a not found error for a missing record", func() {
			err := s.Something().Delete(ctx, 42)

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Context("Atomic", func() {
		It("should commit when the function succeeds", func() {
			err := s.Atomic(ctx, func(ctx context.Context, st *store.Store) error {
				_, err := st.Something().Create(ctx, "committed")
				return err
			})
			Expect(err).NotTo(HaveOccurred())

			count, err := s.Something().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("should roll back when the function fails", func() {
			err := s.Atomic(ctx, func(ctx context.Context, st *store.Store) error {
				if _, err := st.Something().Create(ctx, "discarded"); err != nil {
					return err
				}
				return fmt.Errorf("abort")
			})
			Expect(err).To(MatchError("abort"))

			count, err := s.Something().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})

	Context("Concurrent writes", func() {
		// Given many goroutines sharing a single connection
		// When they all insert at the same time
		// Then every insert should succeed with a distinct id
		It("should handle concurrent writes from multiple goroutines", func() {
			const numGoroutines = 50
			var wg sync.WaitGroup
			errs := make(chan error, numGoroutines)
			ids := make(chan int64, numGoroutines)

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(idx int) {
					defer wg.Done()
					item, err := s.Something().Create(ctx, fmt.Sprintf("item-%d", idx))
					if err != nil {
						errs <- fmt.Errorf("goroutine %d: %w", idx, err)
						return
					}
					ids <- item.ID
				}(i)
			}

			wg.Wait()
			close(errs)
			close(ids)

			var all []error
			for err := range errs {
				all = append(all, err)
			}
			Expect(all).To(BeEmpty(), "Expected no errors from concurrent writes, got: %v", all)

			seen := map[int64]bool{}
			for id := range ids {
				Expect(seen).NotTo(HaveKey(id))
				seen[id] = true
			}
			Expect(seen).To(HaveLen(numGoroutines))

			count, err := s.Something().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(numGoroutines))
		})

		It("should not interleave concurrent transactions", func() {
			const numGoroutines = 10
			var wg sync.WaitGroup

			for i := 0; i < numGoroutines; i++ {
				wg.Add(1)
				go func(idx int) {
					defer GinkgoRecover()
					defer wg.Done()
					err := s.Atomic(ctx, func(ctx context.Context, st *store.Store) error {
						before, err := st.Something().Count(ctx)
						if err != nil {
							return err
						}
						if _, err := st.Something().Create(ctx, fmt.Sprintf("tx-%d", idx)); err != nil {
							return err
						}
						after, err := st.Something().Count(ctx)
						if err != nil {
							return err
						}
						if after != before+1 {
							return fmt.Errorf("interleaved: before=%d after=%d", before, after)
						}
						return nil
					})
					Expect(err).NotTo(HaveOccurred())
				}(i)
			}
			wg.Wait()

			count, err := s.Something().Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(numGoroutines))
		})
	})
})
