package middleware

import (
	"context"
	"net/http"

	"academy-api/internal/domain/access"
	"academy-api/internal/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TierChecker interface {
	Check(ctx context.Context, userID uuid.UUID, requiredLevel int) (access.Decision, error)
}

// RequireTierLevel lets the request through only for callers whose active
// subscription reaches level. Must run after AuthMiddleware.
func RequireTierLevel(checker TierChecker, level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		decision, err := checker.Check(c.Request.Context(), userID, level)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": apperr.PublicReason(err),
				"kind":  apperr.KindUnexpected,
			})
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":  decision.Message,
				"kind":   apperr.KindForbidden,
				"reason": decision.Reason,
			})
			return
		}
		c.Set("access_level", decision.CurrentLevel)
		c.Next()
	}
}
