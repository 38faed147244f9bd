package insurance

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/domain/insurance"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	policies *insurance.Service
	log      *logger.Logger
}

func NewHandler(policies *insurance.Service, log *logger.Logger) *Handler {
	return &Handler{policies: policies, log: log}
}

func (h *Handler) Policies(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	list, err := h.policies.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Policy(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	policy, err := h.policies.Get(c.Request.Context(), id, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	policy, err := h.policies.Cancel(c.Request.Context(), id, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}
