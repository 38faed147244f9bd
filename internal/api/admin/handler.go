package admin

import (
	"errors"
	"io"
	"net/http"
	"time"

	"academy-api/internal/api/respond"
	"academy-api/internal/domain/billing"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/insurance"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	subs      *subscriptions.Service
	courses   *courses.Service
	bridge    *billing.Bridge
	insurance *insurance.Service
	log       *logger.Logger
}

func NewHandler(subs *subscriptions.Service, courses *courses.Service, bridge *billing.Bridge, ins *insurance.Service, log *logger.Logger) *Handler {
	return &Handler{subs: subs, courses: courses, bridge: bridge, insurance: ins, log: log}
}

type AdminStats struct {
	ActiveSubscriptions int                `json:"active_subscriptions"`
	SubscribersPerTier  map[string]int     `json:"subscribers_per_tier"`
	TotalRevenue        map[string]float64 `json:"total_revenue"`
	RecentRevenue       map[string]float64 `json:"recent_revenue"`
}

func (h *Handler) GetAdminStats(c *gin.Context) {
	ctx := c.Request.Context()
	perTier, err := h.subs.ActiveByTier(ctx)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	total, err := h.bridge.Revenue(ctx, time.Time{})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	recent, err := h.bridge.Revenue(ctx, time.Now().AddDate(0, 0, -30))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	stats := AdminStats{SubscribersPerTier: perTier, TotalRevenue: total, RecentRevenue: recent}
	for _, n := range perTier {
		stats.ActiveSubscriptions += n
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	sub, err := h.subs.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

type paymentFailedRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

func (h *Handler) PaymentFailed(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req paymentFailedRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respond.BindError(c, err)
		return
	}
	if req.Reason == "" {
		req.Reason = "marked failed by admin"
	}
	sub, err := h.subs.MarkPaymentFailed(c.Request.Context(), id, req.Reason)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Expire(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	sub, err := h.subs.Expire(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) ApprovePolicy(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	policy, err := h.insurance.Approve(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

type rejectPolicyRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

func (h *Handler) RejectPolicy(c *gin.Context) {
	id, ok := respond.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req rejectPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BindError(c, err)
		return
	}
	policy, err := h.insurance.Reject(c.Request.Context(), id, req.Reason)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *Handler) ListPolicies(c *gin.Context) {
	list, err := h.insurance.List(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) PendingPolicies(c *gin.Context) {
	list, err := h.insurance.Pending(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) InsuranceStatistics(c *gin.Context) {
	st, err := h.insurance.Statistics(c.Request.Context())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
