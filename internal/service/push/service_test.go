package push

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	redisrepo "chatwave-backend/internal/repository/redis"
	apperrors "chatwave-backend/pkg/errors"
	"chatwave-backend/pkg/metrics"
	pushpkg "chatwave-backend/pkg/push"
)

var testMetrics = metrics.New("push-test")

type mockTokenRepo struct {
	mock.Mock
}

func (m *mockTokenRepo) RegisterToken(ctx context.Context, token *redisrepo.PushToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockTokenRepo) UnregisterToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockTokenRepo) GetUserTokens(ctx context.Context, userID string) ([]*redisrepo.PushToken, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*redisrepo.PushToken), args.Error(1)
}

func TestRegisterTokenUnknownPlatform(t *testing.T) {
	repo := new(mockTokenRepo)
	svc := NewService(repo, map[string]pushpkg.Provider{"mock": pushpkg.NewMockProvider()}, testMetrics)

	err := svc.RegisterToken(context.Background(), uuid.New(), "tok-1", "carrier-pigeon")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
	repo.AssertNotCalled(t, "RegisterToken", mock.Anything, mock.Anything)
}

func TestRegisterToken(t *testing.T) {
	repo := new(mockTokenRepo)
	svc := NewService(repo, map[string]pushpkg.Provider{"mock": pushpkg.NewMockProvider()}, testMetrics)
	userID := uuid.New()

	repo.On("RegisterToken", mock.Anything, mock.MatchedBy(func(tok *redisrepo.PushToken) bool {
		return tok.UserID == userID.String() && tok.Token == "tok-1" && tok.Platform == "mock"
	})).Return(nil)

	require.NoError(t, svc.RegisterToken(context.Background(), userID, "tok-1", "mock"))
	repo.AssertExpectations(t)
}

func TestSendToUserFansOutToAllDevices(t *testing.T) {
	repo := new(mockTokenRepo)
	provider := pushpkg.NewMockProvider()
	svc := NewService(repo, map[string]pushpkg.Provider{"mock": provider}, testMetrics)
	userID := uuid.New()

	repo.On("GetUserTokens", mock.Anything, userID.String()).Return([]*redisrepo.PushToken{
		{UserID: userID.String(), Token: "phone", Platform: "mock", CreatedAt: time.Now()},
		{UserID: userID.String(), Token: "tablet", Platform: "mock", CreatedAt: time.Now()},
		{UserID: userID.String(), Token: "legacy", Platform: "gone", CreatedAt: time.Now()},
	}, nil)

	svc.SendToUser(context.Background(), userID, "alice", "hello", map[string]string{"type": "new_message"})

	sent := provider.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "phone", sent[0].Token)
	assert.Equal(t, "tablet", sent[1].Token)
	assert.Equal(t, "alice", sent[0].Notification.Title)
}

type invalidTokenProvider struct{}

func (invalidTokenProvider) Name() string { return "mock" }
func (invalidTokenProvider) Send(context.Context, string, *pushpkg.Notification) error {
	return pushpkg.ErrTokenInvalid
}

func TestSendToUserPrunesInvalidTokens(t *testing.T) {
	repo := new(mockTokenRepo)
	svc := NewService(repo, map[string]pushpkg.Provider{"mock": invalidTokenProvider{}}, testMetrics)
	userID := uuid.New()

	repo.On("GetUserTokens", mock.Anything, userID.String()).Return([]*redisrepo.PushToken{
		{UserID: userID.String(), Token: "stale", Platform: "mock", CreatedAt: time.Now()},
	}, nil)
	repo.On("UnregisterToken", mock.Anything, userID.String(), "stale").Return(nil)

	svc.SendToUser(context.Background(), userID, "alice", "hello", nil)
	repo.AssertExpectations(t)
}
