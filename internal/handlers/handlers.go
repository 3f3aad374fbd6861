package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kubev2v/shareddb/internal/services"
)

type Handler struct {
	somethingSrv *services.SomethingService
}

func New(somethingSrv *services.SomethingService) *Handler {
	return &Handler{
		somethingSrv: somethingSrv,
	}
}

// RegisterHandlers mounts the API routes on router.
func RegisterHandlers(router gin.IRouter, h *Handler) {
	router.GET("/read", h.Read)
	router.GET("/atomic-read", h.AtomicRead)
	router.POST("/somethings", h.CreateSomething)
	router.GET("/somethings/:id", h.GetSomething)
	router.DELETE("/somethings/:id", h.DeleteSomething)
}
