package push

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chatwave-backend/pkg/logger"
)

// MockProvider logs notifications instead of delivering them. Used in
// development and in tests.
type MockProvider struct {
	mu   sync.Mutex
	sent []MockDelivery
}

// MockDelivery records one Send call
type MockDelivery struct {
	Token        string
	Notification Notification
}

// NewMockProvider creates a mock push provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name implements Provider
func (p *MockProvider) Name() string {
	return "mock"
}

// Send implements Provider
func (p *MockProvider) Send(ctx context.Context, token string, notification *Notification) error {
	p.mu.Lock()
	p.sent = append(p.sent, MockDelivery{Token: token, Notification: *notification})
	p.mu.Unlock()

	logger.Debug("mock push notification",
		zap.String("token", token),
		zap.String("title", notification.Title))
	return nil
}

// Sent returns every recorded delivery
func (p *MockProvider) Sent() []MockDelivery {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MockDelivery, len(p.sent))
	copy(out, p.sent)
	return out
}
