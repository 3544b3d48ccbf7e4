// Package user exposes the user directory and profile HTTP endpoints.
package user

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatwave-backend/internal/handler/http/request"
	authservice "chatwave-backend/internal/service/auth"
	"chatwave-backend/pkg/constants"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/response"
)

// AvatarStore uploads profile pictures and returns a public URL
type AvatarStore interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// Handler serves the /v1/users routes
type Handler struct {
	auth    *authservice.Service
	avatars AvatarStore
}

// NewHandler creates a new user handler
func NewHandler(auth *authservice.Service, avatars AvatarStore) *Handler {
	return &Handler{auth: auth, avatars: avatars}
}

// RegisterRoutes mounts the user routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListContacts)
	rg.GET("/me", h.Me)
	rg.PATCH("/me", h.UpdateMe)
	rg.POST("/me/avatar", h.UploadAvatar)
}

// ListContacts handles GET /v1/users, the sidebar listing of everyone the
// caller can message
func (h *Handler) ListContacts(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	users, err := h.auth.ListContacts(c.Request.Context(), userID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Me handles GET /v1/users/me
func (h *Handler) Me(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	profile, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

type updateProfileRequest struct {
	FullName   string  `json:"full_name" binding:"required"`
	ProfilePic *string `json:"profile_pic"`
}

// UpdateMe handles PATCH /v1/users/me
func (h *Handler) UpdateMe(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), userID, req.FullName, req.ProfilePic)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

type uploadAvatarRequest struct {
	Image       string `json:"image" binding:"required"` // base64
	ContentType string `json:"content_type" binding:"required"`
}

// UploadAvatar handles POST /v1/users/me/avatar
func (h *Handler) UploadAvatar(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}

	var req uploadAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		response.BadRequest(c, "image must be base64 encoded")
		return
	}
	if len(image) == 0 || len(image) > constants.MaxImageSize {
		response.BadRequest(c, "image is empty or too large")
		return
	}

	url, err := h.avatars.UploadImage(c.Request.Context(), image, req.ContentType)
	if err != nil {
		response.AppError(c, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to upload avatar", err))
		return
	}

	profile, err := h.auth.UpdateAvatar(c.Request.Context(), userID, url)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
