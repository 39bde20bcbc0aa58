package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles rejects requests whose role_id is not in the allow list.
// It assumes AuthMiddleware already ran and set role_id on the context.
func RequireRoles(roleIDs ...int) gin.HandlerFunc {
	allowed := make(map[int]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
	}
	return func(c *gin.Context) {
		v, ok := c.Get("role_id")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		roleID, ok := v.(int)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		if _, ok := allowed[roleID]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden."})
			return
		}
		c.Next()
	}
}
