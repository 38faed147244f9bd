package subscriptions

import (
	"net/http"

	"academy-api/internal/api/respond"
	"academy-api/internal/app/http/middleware"
	"academy-api/internal/domain/access"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	subs *subscriptions.Service
	log  *logger.Logger
}

func NewHandler(subs *subscriptions.Service, log *logger.Logger) *Handler {
	return &Handler{subs: subs, log: log}
}

type subscribeRequest struct {
	TierID           uuid.UUID `json:"tier_id" binding:"required"`
	PaymentFrequency string    `json:"payment_frequency" binding:"omitempty,oneof=monthly annual"`
	Currency         string    `json:"currency" binding:"omitempty,currency"`
}

// subscriptionView is a subscription plus what its tier unlocks.
type subscriptionView struct {
	*subscriptions.Subscription
	Capabilities []string `json:"capabilities"`
}

func view(sub *subscriptions.Subscription) subscriptionView {
	return subscriptionView{Subscription: sub, Capabilities: access.CapabilitiesFor(sub.Tier)}
}

func (h *Handler) Subscribe(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}

	sub, err := h.subs.Subscribe(c.Request.Context(), subscriptions.SubscribeInput{
		UserID:    userID,
		Region:    middleware.Region(c),
		TierID:    req.TierID,
		Frequency: subscriptions.Frequency(req.PaymentFrequency),
		Currency:  req.Currency,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, view(sub))
}

// Me returns the caller's active subscription, or null.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	sub, err := h.subs.GetActive(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, view(sub))
}

func (h *Handler) History(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	list, err := h.subs.History(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	sub, err := h.subs.Cancel(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view(sub))
}
