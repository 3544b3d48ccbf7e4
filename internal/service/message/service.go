// Package message implements direct message persistence, history, and
// delivery fanout.
package message

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatwave-backend/internal/domain"
	"chatwave-backend/pkg/constants"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/logger"
)

// MessageRepository defines the persistence operations the service needs
type MessageRepository interface {
	Save(msg *domain.Message) error
	GetByPair(userA, userB uuid.UUID, since time.Time, limit int, pageState []byte) ([]*domain.Message, []byte, error)
	GetByID(userA, userB, messageID uuid.UUID, sentAt time.Time) (*domain.Message, error)
	Delete(userA, userB, messageID uuid.UUID, sentAt time.Time) error
}

// Notifier delivers real-time message events to live connections. Returns
// whether the recipient had a live connection.
type Notifier interface {
	NotifyNewMessage(msg *domain.Message) bool
	NotifyMessageDeleted(senderID, receiverID, messageID uuid.UUID)
}

// BlobStore uploads message attachments and returns a public URL
type BlobStore interface {
	UploadImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// PushSender notifies offline recipients out of band
type PushSender interface {
	SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string)
}

// Service implements messaging business logic
type Service struct {
	messages MessageRepository
	notifier Notifier
	blobs    BlobStore
	push     PushSender
}

// NewService creates a new message service
func NewService(messages MessageRepository, notifier Notifier, blobs BlobStore, push PushSender) *Service {
	return &Service{messages: messages, notifier: notifier, blobs: blobs, push: push}
}

// Send persists a message and fans it out. A recipient without a live
// connection gets a push notification instead of a websocket event.
func (s *Service) Send(ctx context.Context, senderID uuid.UUID, senderName string, receiverID uuid.UUID, text string, image []byte, contentType string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" && len(image) == 0 {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeValidation, "message must have text or an image", http.StatusBadRequest)
	}
	if len(text) > constants.MaxMessageLength {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeValidation, "message text too long", http.StatusBadRequest)
	}
	if senderID == receiverID {
		return nil, apperrors.NewWithStatus(apperrors.ErrCodeValidation, "cannot message yourself", http.StatusBadRequest)
	}

	var imageURL *string
	if len(image) > 0 {
		if len(image) > constants.MaxImageSize {
			return nil, apperrors.NewWithStatus(apperrors.ErrCodeValidation, "image too large", http.StatusBadRequest)
		}
		url, err := s.blobs.UploadImage(ctx, image, contentType)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to upload image", err)
		}
		imageURL = &url
	}

	now := time.Now().UTC()
	msg := &domain.Message{
		MessageID:  uuid.New(),
		PairKey:    domain.PairKey(senderID, receiverID),
		Bucket:     domain.CalculateBucket(now),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		SentAt:     now,
	}
	if err := s.messages.Save(msg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to save message", err)
	}

	if !s.notifier.NotifyNewMessage(msg) {
		body := text
		if body == "" {
			body = "Sent you an image"
		}
		s.push.SendToUser(ctx, receiverID, senderName, body, map[string]string{
			"type":      "new_message",
			"senderId":  senderID.String(),
			"messageId": msg.MessageID.String(),
		})
	}

	logger.Debug("message sent",
		zap.String("message_id", msg.MessageID.String()),
		zap.String("sender_id", senderID.String()),
		zap.String("receiver_id", receiverID.String()))

	return msg, nil
}

// History returns a page of the conversation between two users
func (s *Service) History(ctx context.Context, userID, peerID uuid.UUID, since time.Time, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if since.IsZero() {
		since = time.Now().UTC().AddDate(0, -6, 0)
	}

	msgs, next, err := s.messages.GetByPair(userID, peerID, since, limit, pageState)
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to load history", err)
	}
	return msgs, next, nil
}

// Delete retracts a message. Only the sender may delete, and the recipient
// is told so their view updates.
func (s *Service) Delete(ctx context.Context, userID, peerID, messageID uuid.UUID, sentAt time.Time) error {
	msg, err := s.messages.GetByID(userID, peerID, messageID, sentAt)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to load message", err)
	}
	if msg == nil {
		return apperrors.NewWithStatus(apperrors.ErrCodeMessageNotFound, "message not found", http.StatusNotFound)
	}
	if msg.SenderID != userID {
		return apperrors.NewWithStatus(apperrors.ErrCodeForbidden, "only the sender can delete a message", http.StatusForbidden)
	}

	if err := s.messages.Delete(userID, peerID, messageID, sentAt); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeDatabase, "failed to delete message", err)
	}

	s.notifier.NotifyMessageDeleted(msg.SenderID, msg.ReceiverID, messageID)
	return nil
}
