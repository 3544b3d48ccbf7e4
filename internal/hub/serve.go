package hub

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Auth happens on the JWT, not the Origin header
		return true
	},
}

// ServeWS upgrades an authenticated HTTP request to a websocket connection
// and runs it until the peer goes away. Auth middleware must have stored the
// caller's identity in the gin context before this runs.
func (h *Hub) ServeWS(c *gin.Context) {
	userIDValue, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "authentication required")
		return
	}
	userID, err := uuid.Parse(userIDValue.(string))
	if err != nil {
		response.Unauthorized(c, "invalid user identity")
		return
	}

	select {
	case h.semaphore <- struct{}{}:
	default:
		logger.Warn("connection limit reached",
			zap.String("user_id", userID.String()))
		response.Error(c, http.StatusServiceUnavailable, "CONNECTION_LIMIT", "server at connection capacity")
		return
	}
	defer func() { <-h.semaphore }()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed",
			zap.Error(err),
			zap.String("user_id", userID.String()))
		return
	}

	client := newClient(h, conn, userID)
	h.handleConnect(client)

	go client.writePump()
	client.readPump()
}
