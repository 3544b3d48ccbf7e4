// Package push routes notifications for offline users to their registered
// devices.
package push

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisrepo "chatwave-backend/internal/repository/redis"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/logger"
	"chatwave-backend/pkg/metrics"
	pushpkg "chatwave-backend/pkg/push"
)

// TokenRepository defines the push token storage operations the service needs
type TokenRepository interface {
	RegisterToken(ctx context.Context, token *redisrepo.PushToken) error
	UnregisterToken(ctx context.Context, userID, token string) error
	GetUserTokens(ctx context.Context, userID string) ([]*redisrepo.PushToken, error)
}

// Service fans a notification out to every device a user has registered
type Service struct {
	tokens    TokenRepository
	providers map[string]pushpkg.Provider
	metrics   *metrics.Metrics
}

// NewService creates a new push service
func NewService(tokens TokenRepository, providers map[string]pushpkg.Provider, m *metrics.Metrics) *Service {
	return &Service{tokens: tokens, providers: providers, metrics: m}
}

// RegisterToken records a device token for a user
func (s *Service) RegisterToken(ctx context.Context, userID uuid.UUID, token, platform string) error {
	if _, ok := s.providers[platform]; !ok {
		return apperrors.NewWithStatus(apperrors.ErrCodeValidation, "unknown push platform", http.StatusBadRequest)
	}
	err := s.tokens.RegisterToken(ctx, &redisrepo.PushToken{
		UserID:    userID.String(),
		Token:     token,
		Platform:  platform,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to register push token", err)
	}
	return nil
}

// UnregisterToken removes a device token
func (s *Service) UnregisterToken(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.tokens.UnregisterToken(ctx, userID.String(), token); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, "failed to unregister push token", err)
	}
	return nil
}

// SendToUser delivers a notification to every device the user has
// registered. Delivery is best effort; stale tokens are pruned as providers
// reject them.
func (s *Service) SendToUser(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) {
	tokens, err := s.tokens.GetUserTokens(ctx, userID.String())
	if err != nil {
		logger.Warn("failed to load push tokens",
			zap.Error(err),
			zap.String("user_id", userID.String()))
		return
	}

	notification := &pushpkg.Notification{Title: title, Body: body, Data: data}
	for _, t := range tokens {
		provider, ok := s.providers[t.Platform]
		if !ok {
			continue
		}
		if err := provider.Send(ctx, t.Token, notification); err != nil {
			s.metrics.RecordPush(provider.Name(), true)
			if errors.Is(err, pushpkg.ErrTokenInvalid) {
				s.tokens.UnregisterToken(ctx, t.UserID, t.Token)
				continue
			}
			logger.Warn("push delivery failed",
				zap.Error(err),
				zap.String("provider", provider.Name()),
				zap.String("user_id", userID.String()))
			continue
		}
		s.metrics.RecordPush(provider.Name(), false)
	}
}
