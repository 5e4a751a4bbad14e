package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Jovan-creator/armaflex-sub001/internal/domain"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/jwt"
	"github.com/Jovan-creator/armaflex-sub001/internal/pkg/response"
)

// JWTAuth validates the bearer token and stores the resolved actor on the
// context for handlers and downstream middleware.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			abortUnauthorized(c, "Invalid Authorization header")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			abortUnauthorized(c, "Empty token")
			return
		}

		claims, err := jwtService.ValidateToken(tokenStr)
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("actor", domain.Actor{UserID: claims.UserID, Role: domain.Role(claims.Role)})

		c.Next()
	}
}

// RequireStaff lets admin and staff roles through.
func RequireStaff() gin.HandlerFunc {
	return requireRoles(domain.RoleAdmin, domain.RoleStaff)
}

// RequireAdmin lets only admins through.
func RequireAdmin() gin.HandlerFunc {
	return requireRoles(domain.RoleAdmin)
}

func requireRoles(allowed ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("actor")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		actor := v.(domain.Actor)
		for _, role := range allowed {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": msg,
		},
	})
}
