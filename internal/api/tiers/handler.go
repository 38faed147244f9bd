package tiers

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalog *tiers.Catalog
	log     *logger.Logger
}

func NewHandler(catalog *tiers.Catalog, log *logger.Logger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	tier, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, tier)
}
