package billing

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/domain/billing"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	bridge *billing.Bridge
	log    *logger.Logger
}

func NewHandler(bridge *billing.Bridge, log *logger.Logger) *Handler {
	return &Handler{bridge: bridge, log: log}
}

func (h *Handler) GetPaymentHistory(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}

	payments, err := h.bridge.ListPayments(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *Handler) GetPayment(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.bridge.GetPayment(c.Request.Context(), id, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *Handler) GetSubscriptionPayments(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	subscriptionID, ok := respond.ParamUUID(c, "subscriptionId")
	if !ok {
		return
	}

	payments, err := h.bridge.ListForSubscription(c.Request.Context(), subscriptionID, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}
