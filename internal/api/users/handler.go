package users

import (
	"net/http"
	"time"

	"academy-api/internal/api/respond"
	"academy-api/internal/app/http/middleware"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	subs    *subscriptions.Service
	courses *courses.Service
	log     *logger.Logger
}

func NewHandler(subs *subscriptions.Service, courses *courses.Service, log *logger.Logger) *Handler {
	return &Handler{subs: subs, courses: courses, log: log}
}

// GetCurrentUser summarises the caller's subscription, access and learning.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID, ok := respond.CurrentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	sub, err := h.subs.GetActive(ctx, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	enrollments, err := h.courses.ListEnrollments(ctx, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	resp := MeResponse{
		User: UserDTO{
			ID:     userID,
			Region: middleware.Region(c),
			Role:   c.GetString(middleware.KeyRole),
		},
		Billing: BillingDTO{
			Subscription: BuildSubscriptionDTO(sub),
			Renewal:      BuildRenewalDTO(time.Now(), sub),
		},
		Access:   BuildAccessDTO(sub),
		Learning: BuildLearningDTO(enrollments),
	}
	if sub != nil {
		resp.Billing.Tier = BuildTierDTO(sub.Tier)
	}

	c.JSON(http.StatusOK, resp)
}
