package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/shareddb/api/v1"
	srvErrors "github.com/kubev2v/shareddb/pkg/errors"
)

// Read returns every record ordered by id
// (GET /read)
func (h *Handler) Read(c *gin.Context) {
	items, err := h.somethingSrv.List(c.Request.Context())
	if err != nil {
		zap.S().Named("something_handler").Errorw("failed to read somethings", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to read somethings"})
		return
	}
	c.JSON(http.StatusOK, v1.NewSomethingsFromModel(items))
}

// AtomicRead is Read inside a transaction
// (GET /atomic-read)
func (h *Handler) AtomicRead(c *gin.Context) {
	items, err := h.somethingSrv.AtomicList(c.Request.Context())
	if err != nil {
		zap.S().Named("something_handler").Errorw("failed to read somethings atomically", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to read somethings"})
		return
	}
	c.JSON(http.StatusOK, v1.NewSomethingsFromModel(items))
}

// CreateSomething stores a new record
// (POST /somethings)
func (h *Handler) CreateSomething(c *gin.Context) {
	var req v1.CreateSomethingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}

	item, err := h.somethingSrv.Create(c.Request.Context(), req.Data)
	if err != nil {
		zap.S().Named("something_handler").Errorw("failed to create something", "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to create something"})
		return
	}
	c.JSON(http.StatusCreated, v1.NewSomethingFromModel(*item))
}

// GetSomething returns one record
// (GET /somethings/{id})
func (h *Handler) GetSomething(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.somethingSrv.Get(c.Request.Context(), id)
	switch {
	case srvErrors.IsResourceNotFoundError(err):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
	case err != nil:
		zap.S().Named("something_handler").Errorw("failed to get something", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to get something"})
	default:
		c.JSON(http.StatusOK, v1.NewSomethingFromModel(*item))
	}
}

// DeleteSomething removes one record
// (DELETE /somethings/{id})
func (h *Handler) DeleteSomething(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	err := h.somethingSrv.Delete(c.Request.Context(), id)
	switch {
	case srvErrors.IsResourceNotFoundError(err):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
	case err != nil:
		zap.S().Named("something_handler").Errorw("failed to delete something", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: "failed to delete something"})
	default:
		c.Status(http.StatusNoContent)
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "invalid id"})
		return 0, false
	}
	return id, true
}
