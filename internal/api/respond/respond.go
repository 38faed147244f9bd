// Package respond holds the JSON helpers shared by the API handlers.
package respond

import (
	"errors"
	"net/http"

	"academy-api/internal/app/http/middleware"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Error writes err as {"error", "kind"} with the status for its kind.
// Unexpected errors are logged and answered with a generic reason.
func Error(c *gin.Context, log *logger.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(apperr.HTTPStatus(kind), gin.H{
		"error": apperr.PublicReason(err),
		"kind":  kind,
	})
}

// BindError answers a failed ShouldBindJSON with a 400.
func BindError(c *gin.Context, err error) {
	reason := "Invalid request body"
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		reason = "Invalid value for " + verrs[0].Field()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": reason,
		"kind":  apperr.KindValidation,
	})
}

// ParamUUID reads a path parameter as a UUID, answering 400 when it is malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
			"kind":  apperr.KindValidation,
		})
		return uuid.Nil, false
	}
	return id, true
}

// CurrentUser returns the authenticated caller, answering 401 when there is none.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}
