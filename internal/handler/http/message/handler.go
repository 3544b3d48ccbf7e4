// Package message exposes the direct messaging HTTP endpoints.
package message

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatwave-backend/internal/domain"
	"chatwave-backend/internal/handler/http/request"
	messageservice "chatwave-backend/internal/service/message"
	"chatwave-backend/pkg/response"
)

// Handler serves the /v1/messages routes
type Handler struct {
	messages *messageservice.Service
}

// NewHandler creates a new message handler
func NewHandler(messages *messageservice.Service) *Handler {
	return &Handler{messages: messages}
}

// RegisterRoutes mounts the message routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/:peer_id", h.Send)
	rg.GET("/:peer_id", h.History)
	rg.DELETE("/:peer_id/:message_id", h.Delete)
}

type sendMessageRequest struct {
	Text             string `json:"text"`
	Image            string `json:"image"` // base64
	ImageContentType string `json:"image_content_type"`
}

type historyResponse struct {
	Messages  []*domain.Message `json:"messages"`
	PageState string            `json:"page_state,omitempty"`
}

// Send handles POST /v1/messages/:peer_id. The message is persisted first,
// then fanned out to the recipient's live connection or pushed if offline.
func (h *Handler) Send(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		response.BadRequest(c, "invalid peer id")
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	var image []byte
	if req.Image != "" {
		image, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			response.BadRequest(c, "image must be base64 encoded")
			return
		}
	}

	msg, err := h.messages.Send(c.Request.Context(), userID, request.Username(c), peerID, req.Text, image, req.ImageContentType)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

// History handles GET /v1/messages/:peer_id with optional since, limit, and
// page_state query parameters
func (h *Handler) History(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		response.BadRequest(c, "invalid peer id")
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "since must be RFC 3339")
			return
		}
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "limit must be an integer")
			return
		}
	}

	var pageState []byte
	if raw := c.Query("page_state"); raw != "" {
		pageState, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			response.BadRequest(c, "invalid page_state")
			return
		}
	}

	msgs, next, err := h.messages.History(c.Request.Context(), userID, peerID, since, limit, pageState)
	if err != nil {
		response.AppError(c, err)
		return
	}

	resp := historyResponse{Messages: msgs}
	if len(next) > 0 {
		resp.PageState = base64.URLEncoding.EncodeToString(next)
	}
	response.Success(c, http.StatusOK, resp)
}

// Delete handles DELETE /v1/messages/:peer_id/:message_id. The sent_at query
// parameter locates the message's partition.
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := request.UserID(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	peerID, err := uuid.Parse(c.Param("peer_id"))
	if err != nil {
		response.BadRequest(c, "invalid peer id")
		return
	}
	messageID, err := uuid.Parse(c.Param("message_id"))
	if err != nil {
		response.BadRequest(c, "invalid message id")
		return
	}
	sentAt, err := time.Parse(time.RFC3339Nano, c.Query("sent_at"))
	if err != nil {
		response.BadRequest(c, "sent_at must be RFC 3339")
		return
	}

	if err := h.messages.Delete(c.Request.Context(), userID, peerID, messageID, sentAt); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
