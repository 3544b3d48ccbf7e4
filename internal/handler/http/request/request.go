// Package request holds shared helpers for reading authenticated request
// context.
package request

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserID returns the authenticated user's ID from the request context
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := value.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Username returns the authenticated user's username from the request context
func Username(c *gin.Context) string {
	return c.GetString("username")
}
