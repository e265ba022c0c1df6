package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/profilehub/profilehub/internal/access"
)

// RequireMinValue rejects callers whose rank snapshot is below the given
// minimum. Per-target comparisons still happen in the services; this is only
// the cheap outer gate.
func (m *AuthMiddleware) RequireMinValue(minimum int) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)

		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}

		if !access.MeetsMinimum(actor.RoleValue, minimum) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Insufficient role for this operation",
				},
			})
			return
		}

		c.Next()
	}
}
