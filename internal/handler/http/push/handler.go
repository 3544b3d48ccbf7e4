// Package push exposes the device push token HTTP endpoints.
package push

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatwave-backend/internal/handler/http/request"
	pushservice "chatwave-backend/internal/service/push"
	"chatwave-backend/pkg/response"
)

// Handler serves the /v1/push routes
type Handler struct {
	push *pushservice.Service
}

// NewHandler creates a new push handler
func NewHandler(push *pushservice.Service) *Handler {
	return &Handler{push: push}
}

// RegisterRoutes mounts the push routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/tokens", h.RegisterToken)
	rg.DELETE("/tokens/:token", h.UnregisterToken)
}

type registerTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required"`
}

// RegisterToken handles POST /v1/push/tokens
func (h *Handler) RegisterToken(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req registerTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.push.RegisterToken(c.Request.Context(), userID, req.Token, req.Platform); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"registered": true})
}

// UnregisterToken handles DELETE /v1/push/tokens/:token
func (h *Handler) UnregisterToken(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.push.UnregisterToken(c.Request.Context(), userID, c.Param("token")); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unregistered": true})
}
