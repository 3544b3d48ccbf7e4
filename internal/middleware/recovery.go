package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/response"
)

// Recovery turns panics in handlers into 500 responses instead of dropped
// connections
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.Stack("stack"))
				response.InternalError(c, "internal server error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
