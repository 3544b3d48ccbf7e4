// Package auth exposes the authentication HTTP endpoints.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatwave-backend/internal/domain"
	"chatwave-backend/internal/handler/http/request"
	authservice "chatwave-backend/internal/service/auth"
	"chatwave-backend/pkg/response"
)

// Handler serves the /v1/auth routes
type Handler struct {
	auth *authservice.Service
}

// NewHandler creates a new auth handler
func NewHandler(auth *authservice.Service) *Handler {
	return &Handler{auth: auth}
}

// RegisterRoutes mounts the auth routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authRequired gin.HandlerFunc) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", authRequired, h.Logout)
	rg.POST("/logout-all", authRequired, h.LogoutAll)
}

// Register handles POST /v1/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), &req, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Refresh handles POST /v1/auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	resp, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, c.GetHeader("User-Agent"), c.ClientIP())
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Logout handles POST /v1/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req domain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), userID, req.RefreshToken); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// LogoutAll handles POST /v1/auth/logout-all
func (h *Handler) LogoutAll(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	if err := h.auth.LogoutAll(c.Request.Context(), userID); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}
