// Package call exposes call session state over HTTP.
package call

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatwave-backend/internal/handler/http/request"
	"chatwave-backend/internal/hub"
	"chatwave-backend/pkg/response"
)

// Handler serves the /v1/calls routes
type Handler struct {
	hub *hub.Hub
}

// NewHandler creates a new call handler
func NewHandler(h *hub.Hub) *Handler {
	return &Handler{hub: h}
}

// RegisterRoutes mounts the call routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/current", h.Current)
}

// Current handles GET /v1/calls/current. A client reconnecting mid-call uses
// this to resynchronize before resuming signaling.
func (h *Handler) Current(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"call": h.hub.CurrentCall(userID)})
}
