// Package middleware holds the gin middleware chain.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"chatwave-backend/pkg/jwt"
	"chatwave-backend/pkg/response"
)

// Auth validates the bearer token and stores the caller's identity in the
// request context. Websocket clients cannot set headers during the upgrade
// handshake, so a "token" query parameter is accepted as a fallback.
func Auth(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing access token")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired access token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID.String())
		c.Set("email", claims.Email)
		c.Set("username", claims.Username)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
