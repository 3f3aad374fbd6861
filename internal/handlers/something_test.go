package handlers_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/kubev2v/shareddb/api/v1"
	"github.com/kubev2v/shareddb/internal/handlers"
	"github.com/kubev2v/shareddb/internal/services"
	"github.com/kubev2v/shareddb/internal/store"
	"github.com/kubev2v/shareddb/internal/store/migrations"
	"github.com/kubev2v/shareddb/pkg/delegate"
)

var _ = Describe("Something handlers", func() {
	var (
		ctx    context.Context
		q      *delegate.Queue
		db     *sql.DB
		st     *store.Store
		router *gin.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		gin.SetMode(gin.TestMode)

		var err error
		db, err = store.NewDB("duckdb", ":memory:")
		Expect(err).NotTo(HaveOccurred())

		q = delegate.New(delegate.WithName("handlers"))
		Expect(q.Start()).To(Succeed())

		shared, err := store.NewSharedDB(ctx, q, db)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrations.Run(ctx, shared, "duckdb")).To(Succeed())

		st = store.NewStore(shared)
		router = gin.New()
		handlers.RegisterHandlers(router, handlers.New(services.NewSomethingService(st)))
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
		Expect(q.Stop()).To(Succeed())
		Expect(db.Close()).To(Succeed())
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	create := func(data string) v1.Something {
		rec := do(http.MethodPost, "/somethings", `{"data":"`+data+`"}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var item v1.Something
		Expect(json.Unmarshal(rec.Body.Bytes(), &item)).To(Succeed())
		return item
	}

	Describe("GET /read", func() {
		It("returns an empty list on an empty table", func() {
			rec := do(http.MethodGet, "/read", "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`[]`))
		})

		It("returns records ordered by pk", func() {
			first := create("a")
			second := create("b")

			rec := do(http.MethodGet, "/read", "")
			Expect(rec.Code).To(Equal(http.StatusOK))

			var items []v1.Something
			Expect(json.Unmarshal(rec.Body.Bytes(), &items)).To(Succeed())
			Expect(items).To(Equal([]v1.Something{first, second}))
		})
	})

	Describe("GET /atomic-read", func() {
		It("returns the same records as /read", func() {
			create("a")

			plain := do(http.MethodGet, "/read", "")
			atomic := do(http.MethodGet, "/atomic-read", "")
			Expect(atomic.Code).To(Equal(http.StatusOK))
			Expect(atomic.Body.String()).To(MatchJSON(plain.Body.String()))
		})
	})

	Describe("POST /somethings", func() {
		It("rejects a body without data", func() {
			rec := do(http.MethodPost, "/somethings", `{}`)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /somethings/:id", func() {
		It("returns the record", func() {
			item := create("hello")

			rec := do(http.MethodGet, "/somethings/"+itoa(item.Pk), "")
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"pk":` + itoa(item.Pk) + `,"data":"hello"}`))
		})

		It("returns 404 for a missing record", func() {
			rec := do(http.MethodGet, "/somethings/999", "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			rec := do(http.MethodGet, "/somethings/abc", "")
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /somethings/:id", func() {
		It("deletes the record", func() {
			item := create("bye")

			rec := do(http.MethodDelete, "/somethings/"+itoa(item.Pk), "")
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			rec = do(http.MethodGet, "/somethings/"+itoa(item.Pk), "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 404 for a missing record", func() {
			rec := do(http.MethodDelete, "/somethings/999", "")
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
