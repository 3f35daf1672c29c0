package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JWTAuthAdminMiddleware gates back-office routes. It runs after
// JWTAuthUserMiddleware and checks the role claim set there.
func JWTAuthAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
